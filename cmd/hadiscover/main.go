// Command hadiscover runs the automation search backend: an HTTP API, a
// one-shot corpus indexer, and an MCP stdio server over the same store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hadiscover/hadiscover/internal/cache"
	"github.com/hadiscover/hadiscover/internal/config"
	"github.com/hadiscover/hadiscover/internal/engine"
	"github.com/hadiscover/hadiscover/internal/ingest"
	"github.com/hadiscover/hadiscover/internal/mcp"
	"github.com/hadiscover/hadiscover/internal/query"
	"github.com/hadiscover/hadiscover/internal/server"
	"github.com/hadiscover/hadiscover/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "hadiscover",
	Short: "Faceted search backend for Home Assistant automations",
	Long: `hadiscover indexes Home Assistant automations extracted from public
configuration repositories and serves search, facet, and statistics queries
over HTTP and MCP. Configuration comes from the environment (DATABASE_TYPE,
SEARCH_ENGINE, HTTP_ADDR, ...).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Stdout is reserved for the MCP protocol; log to stderr everywhere.
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP search API",
	RunE:  runServe,
}

var indexOnceCmd = &cobra.Command{
	Use:   "index-once",
	Short: "Ingest the YAML corpus at CORPUS_PATH and exit",
	Long: `Loads the corpus file, upserts repositories and automations, pushes the
documents to the configured search engine, and flushes the cache. Exits 0
when every record was ingested and 1 when any record failed.`,
	RunE: runIndexOnce,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve MCP tools over stdio",
	RunE:  runMCP,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hadiscover %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", store.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", store.DriverName)
	},
}

// app bundles the wired components behind every subcommand.
type app struct {
	cfg    *config.Config
	store  store.Store
	cache  *cache.Cache
	engine engine.Engine  // nil when SEARCH_ENGINE=none
	syncer *engine.Syncer // nil when engine is nil
	router *query.Router
}

// newApp wires the store, cache, engine, and router from the environment.
func newApp() (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	mem, err := cache.NewMemory(cfg.CacheSize)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}
	c := cache.New(mem, logger)

	eng, err := engine.NewEngine(cfg.SearchEngine, cfg.SearchEngineURL, cfg.SearchEngineAPIKey, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		store:  st,
		cache:  c,
		engine: eng,
		router: query.New(st, c, eng, logger),
	}
	if eng != nil {
		a.syncer = engine.NewSyncer(eng, engine.DefaultSyncerConfig(), logger)
	}
	return a, nil
}

// close releases everything newApp opened.
func (a *app) close() {
	if a.syncer != nil {
		if err := a.syncer.Close(); err != nil {
			logger.Warn("syncer shutdown", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("store shutdown", zap.Error(err))
	}
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	logger.Info("starting http server",
		zap.String("addr", a.cfg.HTTPAddr),
		zap.String("database", a.cfg.DatabaseType),
		zap.String("search_engine", a.cfg.SearchEngine),
		zap.String("version", version))

	srv := server.New(a.router, a.store, a.engine, logger)
	if err := srv.ListenAndServe(ctx, a.cfg.HTTPAddr); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func runIndexOnce(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.CorpusPath == "" {
		return fmt.Errorf("%w: CORPUS_PATH required for index-once", config.ErrInvalidConfig)
	}

	ctx, stop := signalContext()
	defer stop()

	ing := ingest.New(a.store, a.cache, a.syncer, logger)
	report, err := ing.Run(ctx, a.cfg.CorpusPath)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d repositories, %d automations (%d failed)\n",
		report.Repositories, report.Automations, report.Failed)

	if !report.OK() {
		// Partial ingestion is an operational failure even though the run
		// itself completed; surfacing an error makes the process exit 1.
		return fmt.Errorf("%d records failed", report.Failed)
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext()
	defer stop()

	logger.Info("mcp server ready, listening on stdio",
		zap.String("version", version))
	return mcp.NewServer(a.router).Serve(ctx)
}

func main() {
	rootCmd.AddCommand(serveCmd, indexOnceCmd, mcpCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
