package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/strategy"
)

func newPlanCommand() *cobra.Command {
	var (
		requestPath  string
		strategyName string
		static       bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate plans for a request and print them",
		Example: `  placement-planner plan -f request.json
  placement-planner plan -f request.json --strategy max-green > manifest.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			if static {
				cfg.Carbon.Provider = config.ProviderStatic
			}

			req, err := readRequest(cmd.InOrStdin(), requestPath)
			if err != nil {
				return err
			}

			built, err := buildPlanner(cfg)
			if err != nil {
				return err
			}
			defer built.Close()

			result, err := built.planner.Plan(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, strategyName)
		},
	}

	cmd.Flags().StringVarP(&requestPath, "file", "f", "-", "Path to the JSON planning request, - for stdin")
	cmd.Flags().StringVar(&strategyName, "strategy", "", "Print only the manifest of this strategy's plan")
	cmd.Flags().BoolVar(&static, "static", false, "Use the built-in carbon intensity values instead of a live source")
	return cmd
}

func readRequest(stdin io.Reader, path string) (placement.Request, error) {
	var req placement.Request

	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("failed to open request: %w", err)
		}
		defer f.Close()
		in = f
	}

	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

func printResult(out io.Writer, result *placement.Result, strategyName string) error {
	if strategyName != "" {
		plan := result.ForStrategy(strategy.Strategy(strategyName))
		if plan == nil {
			return fmt.Errorf("no plan for strategy %q", strategyName)
		}
		_, err := io.WriteString(out, plan.Manifest)
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
