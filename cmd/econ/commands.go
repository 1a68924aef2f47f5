package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fund-economics-lab/internal/config"
	"fund-economics-lab/internal/inputs"
	"fund-economics-lab/internal/observability"
	"fund-economics-lab/internal/orchestrator"
	"fund-economics-lab/internal/reporting"
)

// Output file names written to --output-dir.
const (
	reportFile    = "report.md"
	scenariosFile = "scenarios.csv"
	feesFile      = "fees.csv"
)

func (a *app) loadInputs(path string) (*inputs.Inputs, error) {
	if path == "" {
		return nil, errors.New("--input is required")
	}
	return inputs.Load(path, inputs.Defaults{CatchUpEfficiency: a.cfg.Engine.CatchUpEfficiency})
}

func (a *app) orchestratorOptions(in *inputs.Inputs) orchestrator.Options {
	opts := in.Options()
	opts.Discount = a.cfg.DiscountPolicy()
	opts.Benchmark = a.cfg.BenchmarkPolicy()
	opts.Workers = a.cfg.Orchestrator.Workers
	opts.Logger = a.logger
	return opts
}

func newValidateCmd(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario file without evaluating it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.loadInputs(input)
			if err != nil {
				return err
			}
			if err := orchestrator.New(a.orchestratorOptions(in)).Validate(in.Scenarios); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d scenarios OK\n", input, len(in.Scenarios))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Scenario file (YAML)")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var (
		input       string
		outputDir   string
		storeKind   string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate a scenario file and write reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if storeKind != "" {
				a.cfg.Storage.Kind = storeKind
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			in, err := a.loadInputs(input)
			if err != nil {
				return err
			}
			runID, err := a.run(cmd.Context(), in, outputDir, metricsFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: reports written to %s\n", runID, outputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Scenario file (YAML)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "out", "Output directory for generated files")
	cmd.Flags().StringVar(&storeKind, "store", "", "Run store: memory or postgres (overrides storage.kind)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
	return cmd
}

func (a *app) run(ctx context.Context, in *inputs.Inputs, outputDir, metricsFile string) (string, error) {
	st, err := openStores(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return "", err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg, a.cfg.Metrics.Namespace)

	opts := a.orchestratorOptions(in)
	opts.RunStore = st.runs
	opts.ScenarioStore = st.scenarios
	opts.FeeStore = st.fees
	opts.StepStore = st.steps
	opts.Metrics = metrics

	result, err := orchestrator.New(opts).Run(ctx, in.Scenarios)
	if err != nil {
		return "", err
	}

	gen := reporting.NewGenerator(st.runs, st.scenarios, st.fees, st.steps)
	if err := writeReports(ctx, gen, result.RunID, outputDir); err != nil {
		return "", err
	}

	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			return "", fmt.Errorf("write metrics: %w", err)
		}
	}
	a.logger.Info("reports written", zap.String("run_id", result.RunID), zap.String("dir", outputDir))
	return result.RunID, nil
}

func newReportCmd(a *app) *cobra.Command {
	var (
		runID     string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Regenerate reports for a stored run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return errors.New("--run-id is required")
			}
			if a.cfg.Storage.Kind != config.StorePostgres {
				return errors.New("report needs storage.kind postgres; memory runs end with the process")
			}

			ctx := cmd.Context()
			st, err := openStores(ctx, a.cfg.Storage, a.logger)
			if err != nil {
				return err
			}
			defer st.Close()

			// Without ClickHouse the fee and step stores are fresh and empty.
			gen := reporting.NewGenerator(st.runs, st.scenarios, nil, nil)
			if a.cfg.Storage.ClickhouseDSN != "" {
				gen = reporting.NewGenerator(st.runs, st.scenarios, st.fees, st.steps)
			}
			if err := writeReports(ctx, gen, runID, outputDir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: reports written to %s\n", runID, outputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "Run to report on")
	cmd.Flags().StringVar(&outputDir, "output-dir", "out", "Output directory for generated files")
	return cmd
}

func writeReports(ctx context.Context, gen *reporting.Generator, runID, outputDir string) error {
	report, err := gen.Generate(ctx, runID)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	scenarioCSV, err := reporting.RenderScenarioCSV(report.Scenarios)
	if err != nil {
		return fmt.Errorf("render scenarios: %w", err)
	}
	feeCSV, err := reporting.RenderFeeCSV(report.Fees)
	if err != nil {
		return fmt.Errorf("render fees: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	files := map[string]string{
		reportFile:    reporting.RenderMarkdown(report),
		scenariosFile: scenarioCSV,
		feesFile:      feeCSV,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(outputDir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
