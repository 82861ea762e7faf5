package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nmarkham/citetype/internal/backends"
	"github.com/nmarkham/citetype/internal/classifications"
	"github.com/nmarkham/citetype/internal/config"
	"github.com/nmarkham/citetype/internal/extraction"
	"github.com/nmarkham/citetype/internal/identifiers"
	"github.com/nmarkham/citetype/internal/infrastructure"
	"github.com/nmarkham/citetype/internal/tabular"
	"github.com/nmarkham/citetype/internal/workflow"
)

var (
	flagVerbose     bool
	flagThreshold   float64
	flagConcurrency int
	flagOverwrite   bool
	flagDryRun      bool
	flagBackend     string
	flagModel       string
)

var rootCmd = &cobra.Command{
	Use:   "citetype",
	Short: "Citation context extraction and relationship classification",
	Long: `citetype turns source documents citing a tracked dataset into typed
citation relationships. It extracts bounded evidence windows around dataset
mentions, submits them to one or more language model backends, accumulates
every verdict with full provenance, and projects a single representative
verdict per citation with a human review path.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Float64Var(&flagThreshold, "threshold", 0, "confidence threshold for auto-acceptance (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 0, "document fan-out limit (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagOverwrite, "overwrite", false, "re-process pairs and records that already exist")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "report work without writing artifacts or rows")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "restrict classification to one configured backend by name")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "override the restricted backend's model")
}

// runtimeHandle bundles the assembled pipeline with its infrastructure so
// commands can shut down cleanly when done.
type runtimeHandle struct {
	cfg   *config.Config
	infra *infrastructure.Infrastructure
	rt    *workflow.Runtime
}

// setup loads configuration, starts infrastructure, and assembles the
// workflow runtime. Configuration problems fail here, before any document
// is touched.
func setup() (*runtimeHandle, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flagThreshold != 0 {
		cfg.Pipeline.Threshold = flagThreshold
	}
	if flagConcurrency != 0 {
		cfg.Pipeline.Concurrency = flagConcurrency
	}

	infra, err := infrastructure.New(cfg, flagVerbose)
	if err != nil {
		return nil, err
	}
	if err := infra.Start(); err != nil {
		return nil, err
	}
	infra.Lifecycle.NotifyInterrupt()
	infra.Lifecycle.WaitForStartup()

	backendList, err := buildBackends(cfg)
	if err != nil {
		return nil, err
	}

	selector, err := classifications.NewStrategy(
		cfg.Pipeline.Strategy,
		cfg.Pipeline.MinAgreement,
		cfg.Pipeline.PreferredModels,
	)
	if err != nil {
		return nil, fmt.Errorf("selection strategy: %w", err)
	}

	rt := &workflow.Runtime{
		Tabular:        tabular.New(infra.Database.Connection(), infra.Logger, cfg.Pagination),
		Artifacts:      infra.Storage,
		Store:          classifications.NewStore(infra.Storage, cfg.Pipeline.ClassificationsPrefix, infra.Logger),
		Extractor:      extraction.NewExtractor(identifiers.Default(), infra.Logger),
		Backends:       backendList,
		Selector:       selector,
		Retry:          cfg.Pipeline.Retry(),
		Logger:         infra.Logger.With("system", "workflow"),
		Threshold:      cfg.Pipeline.Threshold,
		Concurrency:    cfg.Pipeline.Concurrency,
		Mode:           cfg.Pipeline.ClassificationMode(),
		ContextsPrefix: cfg.Pipeline.ContextsPrefix,
		Overwrite:      flagOverwrite,
		DryRun:         flagDryRun,
	}

	return &runtimeHandle{cfg: cfg, infra: infra, rt: rt}, nil
}

// buildBackends constructs every configured backend, optionally restricted
// to one by the --backend flag.
func buildBackends(cfg *config.Config) ([]backends.Backend, error) {
	var built []backends.Backend

	for _, bc := range cfg.Backends {
		if flagBackend != "" && bc.Name != flagBackend {
			continue
		}
		if flagBackend != "" && flagModel != "" {
			bc.Model = flagModel
		}

		b, err := backends.New(bc)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", bc.Name, err)
		}
		built = append(built, b)
	}

	if flagBackend != "" && len(built) == 0 {
		return nil, fmt.Errorf("no configured backend named %q", flagBackend)
	}

	return built, nil
}

func (h *runtimeHandle) shutdown() {
	if err := h.infra.Lifecycle.Shutdown(h.cfg.ShutdownTimeoutDuration()); err != nil {
		h.infra.Logger.Error("shutdown incomplete", "error", err)
	}
}
