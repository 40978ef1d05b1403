// Command ringline is the main entry point for the Ringline call-handling
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/ringline/ringline/internal/calendar"
	"github.com/ringline/ringline/internal/call"
	"github.com/ringline/ringline/internal/config"
	"github.com/ringline/ringline/internal/directory"
	"github.com/ringline/ringline/internal/health"
	"github.com/ringline/ringline/internal/observe"
	"github.com/ringline/ringline/internal/server"
	"github.com/ringline/ringline/internal/tools"
	"github.com/ringline/ringline/internal/tools/calendartool"
	"github.com/ringline/ringline/internal/tools/directorytool"
	"github.com/ringline/ringline/internal/tools/voicemailtool"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("ringline", version)
		return 0
	}

	// ── Logger (level is hot-reloadable via the config watcher) ───────────────
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load configuration + watch for changes ────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			level.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.RestartRequired {
			slog.Warn("config changes require a restart to take effect", "fields", d.RestartReasons)
		}
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "ringline: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "ringline: %v\n", err)
		}
		return 1
	}
	defer watcher.Stop()

	cfg := watcher.Current()
	level.Set(slogLevel(cfg.Server.LogLevel))

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	slog.Info("ringline starting",
		"version", version,
		"config", *configPath,
		"listen_addr", listenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Calendar store ────────────────────────────────────────────────────────
	var (
		store    calendar.Store
		checkers []health.Checker
	)
	if dsn := cfg.Calendar.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to create postgres pool", "err", err)
			return 1
		}
		defer pool.Close()

		pg := calendar.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("failed to migrate calendar schema", "err", err)
			return 1
		}
		store = pg
		checkers = append(checkers, health.Checker{Name: "calendar", Check: pool.Ping})
		slog.Info("calendar store ready", "backend", "postgres")
	} else {
		store = calendar.NewMemoryStore()
		slog.Info("calendar store ready", "backend", "memory")
	}

	// ── Directory ─────────────────────────────────────────────────────────────
	var repo *directory.Repository
	if cfg.Directory.DemoData {
		repo = directory.NewWithDemoData()
	} else {
		repo = directory.New()
	}

	// ── Tool registry ─────────────────────────────────────────────────────────
	registry := tools.NewRegistry(metrics)
	available := calendartool.Tools(calendartool.Deps{Store: store, Now: time.Now})
	available = append(available, directorytool.Tools(directorytool.Deps{Repo: repo})...)
	available = append(available, voicemailtool.Tools()...)

	for _, tl := range available {
		if !cfg.ToolEnabled(tl.Definition.Name) {
			slog.Debug("tool disabled by config", "tool", tl.Definition.Name)
			continue
		}
		if err := registry.Register(tl); err != nil {
			slog.Error("failed to register tool", "tool", tl.Definition.Name, "err", err)
			return 1
		}
	}

	var mcpHandler http.Handler
	if cfg.Tools.ExposeMCP {
		mcpHandler, err = tools.MCPHandler(registry, version)
		if err != nil {
			slog.Error("failed to build MCP handler", "err", err)
			return 1
		}
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	manager := call.NewManager(metrics)

	healthHandler := health.New(checkers...)
	healthHandler.Version = version

	srv := server.New(server.Config{
		Manager: manager,
		Metrics: metrics,
		Health:  healthHandler,
		Tools:   mcpHandler,
	})

	httpSrv := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printStartupSummary(cfg, listenAddr, registry.Names())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	slog.Info("server ready — press Ctrl+C to shut down", "addr", listenAddr)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, listenAddr string, toolNames []string) {
	backend := "memory"
	if cfg.Calendar.PostgresDSN != "" {
		backend = "postgres"
	}
	mcp := "(disabled)"
	if cfg.Tools.ExposeMCP {
		mcp = "/mcp"
	}
	demo := "(disabled)"
	if cfg.Directory.DemoData {
		demo = "seeded"
	}

	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Ringline — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Listen addr", listenAddr)
	printRow("Calendar store", backend)
	printRow("Directory demo", demo)
	printRow("Tools", fmt.Sprintf("%d registered", len(toolNames)))
	printRow("MCP endpoint", mcp)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(label, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", label, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
