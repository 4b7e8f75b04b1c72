// Package api is a small client for the Electricity Maps carbon intensity API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
)

// HTTPClient interface allows mocking http.Client in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client handles interactions with the Electricity Maps API
type Client struct {
	apiConfig   config.ElectricityMapsAPIConfig
	cacheConfig config.APICacheConfig
	httpClient  HTTPClient
	limiter     *rate.Limiter
	cache       CacheInterface
}

// ElectricityData is the latest carbon intensity reported for a zone
type ElectricityData struct {
	Zone            string    `json:"zone"`
	CarbonIntensity float64   `json:"carbonIntensity"`
	Datetime        time.Time `json:"datetime"`
	IsEstimated     bool      `json:"isEstimated"`
}

// latestResponse mirrors the wire format. CarbonIntensity is a pointer so a
// missing value can be told apart from zero.
type latestResponse struct {
	Zone            string     `json:"zone"`
	CarbonIntensity *float64   `json:"carbonIntensity"`
	Datetime        *time.Time `json:"datetime"`
	IsEstimated     bool       `json:"isEstimated"`
}

// ClientOption allows customizing the client
type ClientOption func(*Client)

// WithHTTPClient allows injecting a custom HTTP client
func WithHTTPClient(client HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// CacheInterface is the subset of the zone cache the client needs
type CacheInterface interface {
	Get(zone string) (*ElectricityData, bool)
	Set(zone string, data *ElectricityData)
}

// WithCache adds a cache to the client
func WithCache(cache CacheInterface) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a new API client
func NewClient(apiCfg config.ElectricityMapsAPIConfig, cacheCfg config.APICacheConfig, opts ...ClientOption) *Client {
	client := &Client{
		apiConfig:   apiCfg,
		cacheConfig: cacheCfg,
		httpClient: &http.Client{
			Timeout: cacheCfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ensureNonZero(cacheCfg.RateLimit)), 1),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// HasCredentials reports whether an API key is configured
func (c *Client) HasCredentials() bool {
	return c.apiConfig.APIKey != ""
}

// GetCarbonIntensity fetches the latest carbon intensity of a zone with retries
func (c *Client) GetCarbonIntensity(ctx context.Context, zone string) (*ElectricityData, error) {
	if zone == "" {
		return nil, fmt.Errorf("zone cannot be empty")
	}

	if c.cache != nil {
		if data, fresh := c.cache.Get(zone); fresh {
			klog.V(3).InfoS("Using cached carbon intensity data",
				"zone", zone,
				"intensity", data.CarbonIntensity)
			return data, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.cacheConfig.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		data, err := c.doRequest(ctx, zone)
		if err == nil {
			if c.cache != nil {
				c.cache.Set(zone, data)
			}
			return data, nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.cacheConfig.MaxRetries {
			break
		}
		klog.V(2).InfoS("Carbon API request failed, retrying",
			"zone", zone,
			"attempt", attempt+1,
			"maxRetries", c.cacheConfig.MaxRetries,
			"err", err)

		timer := time.NewTimer(c.getBackoffDuration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("context cancelled during backoff: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("carbon intensity request for zone %s failed: %w", zone, lastErr)
}

// statusError is returned for non-200 responses
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	switch e.code {
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "invalid API key"
	case http.StatusNotFound:
		return "zone not found"
	}
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// retryable reports whether another attempt could succeed. Client errors other
// than throttling are final.
func retryable(err error) bool {
	se, ok := err.(*statusError)
	if !ok {
		return true
	}
	return se.code == http.StatusTooManyRequests || se.code >= http.StatusInternalServerError
}

func (c *Client) doRequest(ctx context.Context, zone string) (*ElectricityData, error) {
	u, err := url.Parse(c.apiConfig.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	q := u.Query()
	q.Set("zone", zone)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	klog.V(4).InfoS("Making carbon API request",
		"url", req.URL.String(),
		"zone", zone,
		"hasApiKey", c.apiConfig.APIKey != "")

	req.Header.Set("auth-token", c.apiConfig.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.CarbonIntensity == nil {
		return nil, fmt.Errorf("response for zone %s carries no carbon intensity", zone)
	}
	if *body.CarbonIntensity < 0 {
		return nil, fmt.Errorf("invalid carbon intensity value: %f", *body.CarbonIntensity)
	}

	data := &ElectricityData{
		Zone:            body.Zone,
		CarbonIntensity: *body.CarbonIntensity,
		IsEstimated:     body.IsEstimated,
	}
	if data.Zone == "" {
		data.Zone = zone
	}
	if body.Datetime != nil {
		data.Datetime = *body.Datetime
	} else {
		data.Datetime = time.Now()
	}
	return data, nil
}

func (c *Client) getBackoffDuration(attempt int) time.Duration {
	backoff := c.cacheConfig.RetryDelay * time.Duration(1<<uint(attempt))
	maxBackoff := 10 * time.Second
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	// ±20% jitter
	return time.Duration(float64(backoff) * (0.8 + 0.4*float64(time.Now().UnixNano()%100)/100.0))
}

func ensureNonZero(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
