package main

import (
	"fmt"
	"os"

	"basekit/internal/config"
	"basekit/pkg/base"
	"basekit/pkg/metrics"
	"basekit/pkg/plugin"
	"basekit/pkg/trace"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables before the logger so BASEKIT_ENV applies
	envErr := godotenv.Load()

	logger, err := newLogger(os.Getenv("BASEKIT_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Warn("No .env file found, using environment variables")
	}

	if err := run(logger, os.Getenv("BASEKIT_OPTIONS")); err != nil {
		logger.Fatal("Demo failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(logger *zap.Logger, optionsPath string) error {
	registry := plugin.NewRegistry(logger.Named("registry"))
	if err := registerDemoPlugins(registry, logger); err != nil {
		return fmt.Errorf("failed to register plugins: %w", err)
	}

	_, button, err := demoClasses(logger.Named("widgets"))
	if err != nil {
		return err
	}

	options, err := buttonOptions(registry, logger, optionsPath)
	if err != nil {
		return err
	}

	recorder := trace.NewRecorder(nil)
	promRegistry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(promRegistry)
	if err != nil {
		return err
	}

	logger.Info("Constructing instance", zap.Stringer("class", button))
	inst, err := base.New(button, options,
		base.WithLogger(logger),
		base.WithObserver(recorder),
		base.WithObserver(collector))
	if err != nil {
		if inst != nil {
			if destroyErr := inst.Destroy(); destroyErr != nil {
				logger.Error("Failed to tear down partial instance", zap.Error(destroyErr))
			}
		}
		return fmt.Errorf("failed to construct %s: %w", button, err)
	}

	for _, pressed := range []bool{true, false, true} {
		if err := inst.Set("pressed", pressed); err != nil {
			return err
		}
	}
	if err := inst.Set("label", "Submit"); err != nil {
		return err
	}

	if err := inst.Unplug("audit"); err != nil {
		logger.Warn("Audit plugin not attached", zap.Error(err))
	}

	if err := inst.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy %s: %w", inst, err)
	}

	logTrace(logger, recorder)
	if lifetime, ok := recorder.Lifetime(button.String(), inst.ID()); ok {
		logger.Info("Instance lifetime", zap.Stringer("instance", inst), zap.Duration("lifetime", lifetime))
	}
	return logMetrics(logger, promRegistry)
}

// buttonOptions returns the default options, or those from path when set
func buttonOptions(registry *plugin.Registry, logger *zap.Logger, path string) (base.Options, error) {
	if path == "" {
		entries, err := registry.CreateAll("audit", "clicks")
		if err != nil {
			return nil, err
		}
		return base.Options{
			"label":         "OK",
			"width":         0,
			base.PluginsKey: entries,
		}, nil
	}

	loader := config.NewLoader(registry, logger)
	file, options, err := loader.LoadOptions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load options: %w", err)
	}
	if file.Class != "" && file.Class != "Button" {
		logger.Warn("Options were written for another class",
			zap.String("class", file.Class),
			zap.String("path", path))
	}
	return options, nil
}

func logTrace(logger *zap.Logger, recorder *trace.Recorder) {
	logger.Info("=== Lifecycle Trace ===")
	for _, entry := range recorder.Entries() {
		logger.Info("  "+entry.String(),
			zap.Time("at", entry.Timestamp),
			zap.Uint64("instance", entry.Event.InstanceID))
	}
}

func logMetrics(logger *zap.Logger, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	logger.Info("=== Metrics ===")
	for _, family := range families {
		for _, m := range family.GetMetric() {
			fields := []zap.Field{zap.String("metric", family.GetName())}
			for _, label := range m.GetLabel() {
				fields = append(fields, zap.String(label.GetName(), label.GetValue()))
			}
			switch {
			case m.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				fields = append(fields, zap.Float64("value", m.GetGauge().GetValue()))
			}
			logger.Info("  metric", fields...)
		}
	}
	return nil
}
