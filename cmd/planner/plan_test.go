package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement"
)

const testRequest = `{
  "components": [
    {"name": "Storefront", "type": "frontend"},
    {"name": "Orders API", "type": "api-gateway"}
  ],
  "userRegionAffinity": "eu-west",
  "latencyTolerance": "balanced",
  "optimizationPreference": "max-green"
}`

func runPlan(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newPlanCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--static"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPlanCommandJSON(t *testing.T) {
	out, err := runPlan(t, testRequest)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	var result placement.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not a result: %v\n%s", err, out)
	}
	if len(result.Plans) != 3 {
		t.Fatalf("got %d plans, want 3", len(result.Plans))
	}
	rec := result.Recommended()
	if rec == nil || rec.Region != "eu-north-1" {
		t.Errorf("recommended plan = %+v, want eu-north-1", rec)
	}
	for _, r := range result.Readings {
		if r.Source != "fallback-static" {
			t.Errorf("reading for %s has source %s", r.Region, r.Source)
		}
	}
}

func TestPlanCommandManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.json")
	if err := os.WriteFile(path, []byte(testRequest), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runPlan(t, "", "-f", path, "--strategy", "budget")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, want := range []string{"kind: Namespace", "kind: Deployment", "kind: Service", "name: storefront", "name: orders-api"} {
		if !strings.Contains(out, want) {
			t.Errorf("manifest missing %q", want)
		}
	}
}

func TestPlanCommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "malformed request", stdin: "{"},
		{name: "no components", stdin: `{"components": []}`},
		{name: "unknown strategy", stdin: testRequest, args: []string{"--strategy", "fastest"}},
		{name: "missing file", args: []string{"-f", "/nonexistent/request.json"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runPlan(t, tc.stdin, tc.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
