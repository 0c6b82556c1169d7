package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/fieldlens/backend/internal/domain/batch"
	"github.com/fieldlens/backend/internal/domain/layout"
	"github.com/fieldlens/backend/internal/domain/prompt"
	"github.com/fieldlens/backend/internal/domain/registry"
	"github.com/fieldlens/backend/internal/infrastructure/config"
	"github.com/fieldlens/backend/internal/infrastructure/inference"
	"github.com/fieldlens/backend/internal/infrastructure/monitoring"
	"github.com/fieldlens/backend/internal/logging"
)

func main() {
	mode := flag.String("mode", "paths", "Mode: paths, provision, batch")
	layoutFile := flag.String("layout", "", "Layout file (overrides LAYOUT_FILE)")
	promptName := flag.String("prompt", "basic_extraction", "Prompt template name for batch mode")
	endpoint := flag.String("endpoint", "", "Inference endpoint (overrides INFERENCE_ENDPOINT)")
	metricsAddr := flag.String("metrics", "", "Expose Prometheus metrics at this address (overrides METRICS_ADDR)")
	dev := flag.Bool("dev", false, "Development logging (colored, debug level)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *layoutFile != "" {
		cfg.Paths.LayoutFile = *layoutFile
	}
	if *endpoint != "" {
		cfg.Inference.Endpoint = *endpoint
	}
	if *metricsAddr != "" {
		cfg.Monitoring.Addr = *metricsAddr
	}

	logCfg := logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development}
	if *dev {
		logCfg = logging.Config{Level: "debug", Development: true}
	}
	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	metrics := monitoring.NewMetrics()
	if cfg.Monitoring.Addr != "" {
		srv, err := monitoring.Serve(cfg.Monitoring.Addr, log)
		if err != nil {
			log.Fatal("failed to start metrics endpoint", zap.Error(err))
		}
		defer srv.Close()
	}

	lazy := registry.NewLazy(func() (*registry.Registry, error) {
		l, err := loadLayout(cfg.Paths.LayoutFile)
		if err != nil {
			return nil, err
		}
		return registry.Build(registry.Options{
			Layout:        l,
			MaxPathLength: cfg.Paths.MaxPathLength,
			DirMode:       os.FileMode(cfg.Paths.DirMode),
			Logger:        log,
			Metrics:       metrics,
		})
	})

	reg, err := lazy.Get()
	if err != nil {
		log.Fatal("failed to build path registry", zap.Error(err))
	}

	switch *mode {
	case "paths":
		printPaths(reg)
	case "provision":
		if err := reg.EnsureDirectories(); err != nil {
			log.Fatal("provisioning failed", zap.Error(err))
		}
		log.Info("all directories provisioned")
	case "batch":
		if err := runBatch(cfg, reg, log, metrics, *promptName); err != nil {
			log.Fatal("batch run failed", zap.Error(err))
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

// loadLayout uses the layout file when present, the built-in default
// otherwise.
func loadLayout(path string) (*layout.Layout, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return layout.Default(), nil
		}
		return nil, err
	}
	return layout.Load(path)
}

func printPaths(reg *registry.Registry) {
	all := reg.AllPaths()
	keys := make([]string, 0, len(all))
	for key := range all {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%-18s %s\n", key, all[key])
	}
}

func runBatch(cfg *config.Config, reg *registry.Registry, log *logging.Logger, metrics *monitoring.Metrics, promptName string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := prompt.NewLoader(reg, log)
	if err != nil {
		return err
	}

	runner := inference.New(inference.Config{
		Endpoint:          cfg.Inference.Endpoint,
		Timeout:           cfg.Inference.Timeout,
		RequestsPerSecond: cfg.Inference.RequestsPerSecond,
		MaxRetries:        cfg.Inference.MaxRetries,
		Logger:            log,
		Metrics:           metrics,
	})

	processor, err := batch.New(batch.Options{
		Registry:        reg,
		Loader:          loader,
		Formatter:       prompt.NewFormatter(cfg.Batch.MaxImageBytes),
		Runner:          runner,
		Logger:          log,
		Metrics:         metrics,
		IncludePatterns: cfg.Batch.IncludePatterns,
		Workers:         cfg.Batch.Workers,
	})
	if err != nil {
		return err
	}

	summary, err := processor.Run(ctx, promptName)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %d processed, %d succeeded, %d failed\nresults: %s\n",
		summary.RunID, summary.Total, summary.Succeeded, summary.Failed, summary.OutputFile)
	return nil
}
