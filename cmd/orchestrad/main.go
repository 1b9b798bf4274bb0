// Command orchestrad wires the core orchestration components from a single
// orchestra.yaml and starts the long-running resource-monitor loop. It is a
// composition root, not a CLI/REPL: embedding code calls
// Orchestrator.Process directly once main has finished construction.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/orchestra/orchestra/pkg/cascade"
	"github.com/orchestra/orchestra/pkg/cascade/planning"
	"github.com/orchestra/orchestra/pkg/cascade/progress"
	"github.com/orchestra/orchestra/pkg/config"
	"github.com/orchestra/orchestra/pkg/invoker"
	"github.com/orchestra/orchestra/pkg/logging"
	"github.com/orchestra/orchestra/pkg/modelfactory"
	"github.com/orchestra/orchestra/pkg/orchestrator"
	"github.com/orchestra/orchestra/pkg/profiler"
	"github.com/orchestra/orchestra/pkg/promptcatalog"
	"github.com/orchestra/orchestra/pkg/registry"
	"github.com/orchestra/orchestra/pkg/resource"
	"github.com/orchestra/orchestra/pkg/responsecache"
	"github.com/orchestra/orchestra/pkg/rolemap"

	"github.com/orchestra/orchestra/internal/contextretriever"
	"github.com/orchestra/orchestra/internal/keystore"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	configDir := flag.String("config-dir", getEnv("ORCHESTRA_CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	daemonCmd := flag.String("daemon-command", getEnv("ORCHESTRA_DAEMON_COMMAND", "ollama"), "Local model daemon binary")
	query := flag.String("query", getEnv("ORCHESTRA_QUERY", ""), "If set, run a single Process() call through the full Planner/Critic/Executor stack and log its outcome before entering the daemon loop")
	flag.Parse()

	if _, err := logging.Init(logging.Options{Level: getEnv("ORCHESTRA_LOG_LEVEL", "info"), Development: getEnv("ORCHESTRA_ENV", "production") == "development"}); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New().String()
	log := slog.With("run_id", runID, "config_dir", *configDir)
	log.Info("starting orchestrad")

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	keys := keystore.New(map[string]string{
		"providerA": os.Getenv("PROVIDER_A_API_KEY"),
		"providerB": os.Getenv("PROVIDER_B_API_KEY"),
	})
	// retriever fills the cascadeContext argument an embedding program
	// passes to Orchestrator.Process; Passthrough is the reference no-op.
	var retriever contextretriever.Retriever = contextretriever.Passthrough{}

	promRegistry := newPrometheusRegistry()

	sampler := resource.NewOSSampler(cfg.MaxMemoryGB)
	monitor := resource.New(sampler, resource.Config{
		HistorySize:    cfg.ResourceHistorySize,
		MaxAlerts:      50,
		SafetyBufferGB: cfg.ResourceSafetyBufferGB,
		ThermalThresholdPct: cfg.ThermalThreshold * 100,
		PollInterval:   cfg.ResourcePollInterval,
	}, promRegistry)

	modelRegistry := registry.New(nil, keys, registry.Config{
		Profiles: cfg.Profiles,
		Remote:   cfg.Remote,
		RolePreferences: cfg.RolePreferences,
		CloudFallback:   cfg.CloudFallback,
		Settings: registry.SystemSettings{
			MaxMemoryGB:           cfg.MaxMemoryGB,
			ThermalThreshold:      cfg.ThermalThreshold,
			CloudFallbacksEnabled: cfg.CloudFallbacksEnabled,
		},
	})
	if err := modelRegistry.Refresh(ctx, true); err != nil {
		log.Warn("initial model registry refresh failed", "error", err)
	}

	mapper := rolemap.New(modelRegistry, cfg.Requirements)

	loader := modelfactory.NewSubprocessLoader(*daemonCmd, []string{"pull"}, []string{"stop"})
	llmInvoker := buildInvoker(*daemonCmd, keys)
	memoryEstimates := make(map[string]float64, len(cfg.Profiles)+len(cfg.Remote))
	for name, m := range cfg.Profiles {
		memoryEstimates[name] = m.RecommendedMemoryGB
	}
	for name, m := range cfg.Remote {
		memoryEstimates[name] = m.RecommendedMemoryGB
	}
	factory := modelfactory.NewFactory(loader, llmInvoker, cfg.ModelFactoryMaxMemoryGB, memoryEstimates).
		WithLoadDeadline(cfg.ModelFactoryLoadDeadline)

	catalog := promptcatalog.New()

	store := responsecache.Store(responsecache.NewJSONFileStore(cfg.CachePath))
	if cfg.CacheBackend == "sqlite" {
		sqliteStore, err := responsecache.NewSQLiteStore(cfg.CachePath)
		if err != nil {
			log.Error("failed to open sqlite cache store", "error", err)
			os.Exit(1)
		}
		store = sqliteStore
	}
	cache, err := responsecache.New(responsecache.Config{
		Capacity:   cfg.CacheCapacity,
		DefaultTTL: cfg.CacheDefaultTTL,
		EvictFrac:  cfg.CacheEvictFrac,
	}, store)
	if err != nil {
		log.Error("failed to initialize response cache", "error", err)
		os.Exit(1)
	}

	prof := profiler.New(promRegistry)
	alertManager := profiler.NewAlertManager(profiler.DefaultRules())

	orch := orchestrator.New(mapper, factory, catalog, monitor, prof, cache, orchestrator.Config{
		MaxCriticIterations: cfg.OrchestratorMaxCriticIterations,
		RiskThreshold:       cfg.OrchestratorRiskThreshold,
		RefinementBackoff:   cfg.OrchestratorRefinementBackoff,
		InvokeTimeout:       cfg.OrchestratorInvokeTimeout,
		SystemConstraints: rolemap.SystemConstraints{
			MaxMemoryGB:           cfg.MaxMemoryGB,
			MaxThermalSensitivity: cfg.ThermalThreshold,
			ThermalState:          "normal",
			LocalOnly:             cfg.LocalOnly,
			CloudFallbacksEnabled: cfg.CloudFallbacksEnabled,
		},
	})

	startupContext, err := retriever.RetrieveAndFormat(ctx, "startup", 0)
	if err != nil {
		log.Warn("context retriever unavailable at startup", "error", err)
	}

	log.Info("orchestrad ready",
		"roles", len(cfg.Requirements),
		"models", len(cfg.Profiles)+len(cfg.Remote),
		"cache_backend", cfg.CacheBackend)

	if *query != "" {
		runOneShot(ctx, orch, mapper, *query, startupContext, log)
	}

	go monitor.RunTimer(ctx)
	runAlertLoop(ctx, monitor, alertManager, cache, log)

	log.Info("orchestrad shutting down")
}

// runOneShot drives query through the full pipeline via the real
// RoleMapper/ModelFactory/ResponseCache wiring built above: the cascade
// decomposes it into an ExecutionPlan, then cascade.Execute runs each
// subtask through Orchestrator.Process, tracked by stage seven (progress)
// and recovered by stage eight (adjust) on failure. It exists so the
// composition root itself exercises the request flow end to end, not just
// package-level tests against stubs.
func runOneShot(ctx context.Context, orch *orchestrator.Orchestrator, mapper *rolemap.RoleMapper, query, cascadeContext string, log *slog.Logger) {
	planned, err := cascade.Run(ctx, cascade.StageInput{RawInput: query}, nil)
	if err != nil {
		log.Error("cascade pipeline failed", "error", err)
		return
	}

	targetModel := ""
	if sel, ok := mapper.Select("executor", rolemap.SystemConstraints{}, rolemap.SelectionCriteria{}); ok {
		targetModel = sel.Name
	}

	execResult := cascade.Execute(ctx, &planned.Plan, targetModel, progress.DefaultPerformanceThreshold, func(ctx context.Context, subtask planning.Subtask) error {
		result := orch.Process(ctx, subtask.Prompt, cascadeContext, "")
		if result.Status != orchestrator.StatusCompleted {
			if result.Error != nil {
				return result.Error
			}
			return fmt.Errorf("subtask %s ended with status %s", subtask.ID, result.Status)
		}
		return nil
	})

	log.Info("query processed",
		"subtasks", len(planned.Plan.Subtasks),
		"progress_percent", execResult.Report.ProgressPercent,
		"obstacles", len(execResult.Report.Obstacles),
		"stopped_early", execResult.Stopped)
}

// runAlertLoop checks AlertManager against the latest resource/cache
// metrics until ctx is cancelled (SIGINT/SIGTERM), mirroring the teacher's
// graceful-shutdown select-on-context convention.
func runAlertLoop(ctx context.Context, monitor *resource.Monitor, alertManager *profiler.AlertManager, cache *responsecache.Cache, log *slog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, ok := monitor.Latest()
			if !ok {
				continue
			}
			stats := cache.Statistics()
			alerts := alertManager.Check(profiler.Metrics{
				MemoryPercent: snap.UsedPct(),
				AvailableGB:   snap.AvailableGB,
				CacheHitRate:  stats.HitRate(),
			}, time.Now())
			for _, a := range alerts {
				log.Warn("alert active", "rule", a.Rule, "severity", a.Severity, "value", a.Value)
			}
		}
	}
}

func newPrometheusRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// buildInvoker selects an Invoker: the local daemon's subprocess transport,
// unless ORCHESTRA_LLM_ENDPOINT points it at an OpenAI-compatible HTTP
// backend instead.
func buildInvoker(daemonCmd string, keys *keystore.MemStore) modelfactory.Invoker {
	if endpoint := os.Getenv("ORCHESTRA_LLM_ENDPOINT"); endpoint != "" {
		return invoker.NewHTTPInvoker(endpoint, getEnv("ORCHESTRA_LLM_PROVIDER", "providerA"), keys)
	}
	return invoker.NewSubprocessInvoker(daemonCmd, "run")
}
