package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	"github.com/andrescamacho/microgreens-go/internal/adapters/httpapi"
	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/adapters/persistence"
	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/application/setup"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/config"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/database"
	infraLogging "github.com/andrescamacho/microgreens-go/internal/infrastructure/logging"
	"github.com/andrescamacho/microgreens-go/internal/infrastructure/pidfile"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: search ./, ./configs, /etc/greens)")
	flag.Parse()

	fmt.Println("Greens Daemon v0.1.0")
	fmt.Println("====================")

	fmt.Println("Loading configuration...")
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Acquire PID file lock to prevent multiple instances
	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		log.Fatalf("Failed to acquire PID file lock: %v", err)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Printf("Fatal error: %v", err)
		pf.Release()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	console, err := infraLogging.NewConsoleLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer console.Close()

	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	fmt.Println("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		fmt.Println("Schema migrated")
	}

	stageRepo := persistence.NewGormStageRepository(db)
	registry, stageCodes, err := stageRepo.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stage catalog: %w", err)
	}
	fmt.Printf("Stage catalog loaded (%d active stages)\n", len(registry.All()))

	cropRepo := persistence.NewGormCropRepository(db, stageCodes)
	recipeRepo := persistence.NewGormRecipeRepository(db, nil) // nil = use RealClock in production
	taskRepo := persistence.NewGormTaskRepository(db)
	planRepo := persistence.NewGormPlanRepository(db)
	store := persistence.NewGormLifecycleStore(db, stageCodes, nil)
	operationLogRepo := persistence.NewGormOperationLogRepository(db, nil)

	var logger logging.OperationLogger = console
	if cfg.Logging.Persist {
		logger = logging.MultiLogger{console, operationLogRepo.ForSource("daemon")}
	}

	var (
		commandMetrics *metrics.CommandMetricsCollector
		httpMetrics    *metrics.HTTPMetricsCollector
		inventory      *metrics.InventoryMetricsCollector
	)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		lifecycleMetrics := metrics.NewLifecycleMetricsCollector()
		if err := lifecycleMetrics.Register(); err != nil {
			return fmt.Errorf("failed to register lifecycle metrics: %w", err)
		}
		metrics.SetGlobalLifecycleCollector(lifecycleMetrics)

		commandMetrics = metrics.NewCommandMetricsCollector()
		if err := commandMetrics.Register(); err != nil {
			return fmt.Errorf("failed to register command metrics: %w", err)
		}

		httpMetrics = metrics.NewHTTPMetricsCollector()
		if err := httpMetrics.Register(); err != nil {
			return fmt.Errorf("failed to register http metrics: %w", err)
		}

		inventory = metrics.NewInventoryMetricsCollector(cropRepo, metrics.DefaultInventoryInterval)
		if err := inventory.Register(); err != nil {
			return fmt.Errorf("failed to register inventory metrics: %w", err)
		}
		fmt.Println("Metrics collectors registered")
	}

	med := mediator.NewMediator()
	med.Use(metrics.PrometheusMiddleware(commandMetrics))

	handlers := setup.NewHandlerRegistry(
		registry,
		cropRepo,
		recipeRepo,
		recipeRepo,
		taskRepo,
		planRepo,
		store,
		nil, // nil = use RealClock in production
		lifecycleCommands.Settings{
			ChunkSize:   cfg.Lifecycle.ChunkSize,
			LockTimeout: cfg.Lifecycle.LockTimeout,
		},
	)
	if err := handlers.RegisterAll(med); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	fmt.Println("Handlers registered")

	socketPath := cfg.Daemon.SocketPath
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	service := grpc.NewLifecycleService(med, logger, cfg.Lifecycle.DefaultActor)
	daemonServer, err := grpc.NewDaemonServer(service, socketPath, logger, cfg.Daemon.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("failed to create daemon server: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if inventory != nil {
		inventory.Start(runCtx)
		defer inventory.Stop()
	}

	if cfg.Scheduler.Enabled {
		opts := []grpc.SweeperOption{
			grpc.WithSweepInterval(cfg.Scheduler.SweepInterval),
			grpc.WithDueLimit(cfg.Scheduler.DueLimit),
		}
		if cfg.Scheduler.AutoTrigger {
			opts = append(opts, grpc.WithAutoTrigger(cfg.Scheduler.TriggerRate, cfg.Scheduler.TriggerBurst))
		}
		sweeper := grpc.NewTaskSweeper(med, logger, opts...)
		sweeper.Start(runCtx)
		defer sweeper.Stop()
	}

	feedsErr := make(chan error, 1)
	if cfg.Metrics.Enabled {
		feeds := httpapi.NewServer(med, metrics.GetRegistry(), httpapi.Options{
			MetricsPath:    cfg.Metrics.Path,
			AllowedOrigins: cfg.Metrics.AllowedOrigins,
			Metrics:        httpMetrics,
		})
		addr := fmt.Sprintf("%s:%d", cfg.Metrics.Host, cfg.Metrics.Port)
		go func() {
			if err := feeds.Run(runCtx, addr); err != nil {
				feedsErr <- err
				// Take the daemon down with the feeds listener
				cancel()
			}
			close(feedsErr)
		}()
	} else {
		close(feedsErr)
	}

	fmt.Println("\n✓ Daemon is ready to accept connections")
	fmt.Println("Press Ctrl+C to stop")

	if err := daemonServer.Start(runCtx); err != nil {
		return fmt.Errorf("daemon server error: %w", err)
	}
	cancel()
	if err := <-feedsErr; err != nil {
		return err
	}

	fmt.Println("\nDaemon stopped")
	return nil
}
