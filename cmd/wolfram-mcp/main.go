package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/wolframtools/wolfram-mcp/pkg/cache"
	"github.com/wolframtools/wolfram-mcp/pkg/config"
	"github.com/wolframtools/wolfram-mcp/pkg/ledger"
	"github.com/wolframtools/wolfram-mcp/pkg/pipeline"
	"github.com/wolframtools/wolfram-mcp/pkg/server"
	"github.com/wolframtools/wolfram-mcp/pkg/storage"
	"github.com/wolframtools/wolfram-mcp/pkg/tools"
	"github.com/wolframtools/wolfram-mcp/pkg/tools/analysis"
	"github.com/wolframtools/wolfram-mcp/pkg/tools/quickanswer"
	"github.com/wolframtools/wolfram-mcp/pkg/tools/usage"
	"github.com/wolframtools/wolfram-mcp/pkg/wolfram"
)

const (
	ServiceName     = "WolframAlpha Token-Metered MCP Server"
	ShutdownTimeout = 10 * time.Second
)

//go:embed VERSION
var Version string

func main() {
	var (
		debug        bool
		bindAddr     string
		dbPath       string
		configPath   string
		creditUser   string
		creditAmount int64
		printVersion bool
	)
	flag.BoolVar(&debug, "debug", false, "debug mode")
	flag.StringVar(&bindAddr, "bind", "", "bind address (host:port), overrides config")
	flag.StringVar(&dbPath, "db", "build/wolfram-mcp.db", "SQLite database file path")
	flag.StringVar(&configPath, "config", "", "YAML config file path (optional)")
	flag.StringVar(&creditUser, "credit-user", "", "credit tokens to this user ID and exit")
	flag.Int64Var(&creditAmount, "credit-amount", 0, "token amount for -credit-user")
	flag.BoolVar(&printVersion, "version", false, "print version and exit")
	flag.Parse()
	// Sanitize version
	version := strings.TrimSpace(Version)
	// Check if the version flag is set
	if printVersion {
		fmt.Printf("%s Version: %s\n", ServiceName, version)
		os.Exit(0)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger.Debug().Msg("debug mode enabled")
	}

	// Load configuration
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			logger.Fatal().Msgf("Failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		config.ApplyEnv(cfg)
	}
	if bindAddr == "" {
		bindAddr = cfg.Server.Bind
	}

	// Initialize storage
	storeCfg := storage.Config{
		DatabasePath: dbPath,
		Debug:        debug,
	}
	store, err := storage.NewSQLiteStorage(storeCfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize storage: %v", err)
	}
	logger.Info().Msgf("Database initialized at %s", dbPath)

	ldgr := ledger.New(store, logger)

	// Admin helper: credit a balance and exit.
	if creditUser != "" {
		balance, err := ldgr.Credit(signalCtx, creditUser, creditAmount)
		if err != nil {
			logger.Fatal().Msgf("Failed to credit balance: %v", err)
		}
		fmt.Printf("User %s balance: %d tokens\n", creditUser, balance)
		_ = store.Close()
		os.Exit(0)
	}

	if cfg.Wolfram.AppID == "" {
		logger.Warn().Msg("no WolframAlpha app ID configured; upstream calls will be rejected (set WOLFRAM_APP_ID)")
	}

	memoizer := cache.NewMemoizer(store, cfg.Cache.TTL(), logger)
	client := wolfram.NewClient(cfg.Wolfram.AppID, cfg.Wolfram.BaseURL, logger)
	pipe := pipeline.New(memoizer, ldgr, cfg.RedactOptions(), cfg.Server.Name, logger)

	impl := &mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: version,
	}

	srv := server.NewServer(impl, store, ldgr, memoizer, pipe, client)

	// Create tool instances.
	toolList := []tools.Tool{
		quickanswer.New(logger, cfg.Costs.QuickAnswer),
		analysis.New(logger, cfg.Costs.DetailedAnalysis),
		usage.New(logger),
	}

	// Register all tools
	for _, tool := range toolList {
		if err := tool.Register(srv); err != nil {
			logger.Error().Msgf("Failed to register tool: %v", err)
		}
	}
	// Create HTTP handler for MCP server
	// Stateless mode avoids "session not found" errors after server restart
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return &srv.Server
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	http.Handle("/mcp", handler)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service": ServiceName,
			"version": version,
			"endpoints": map[string]string{
				"mcp": "/mcp",
			},
		})
	})

	logger.Info().Msgf("%s starting on address %s", ServiceName, bindAddr)
	logger.Info().Msgf("MCP endpoint available at: http://%s/mcp", bindAddr)

	go func() {
		//nolint:gosec
		if err := http.ListenAndServe(bindAddr, nil); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("%s failed to start: %v", cfg.Server.Name, err)
		}
	}()
	<-signalCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	// Shutdown MCP server
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Msgf("%s shutdown error: %v", ServiceName, err)
	} else {
		logger.Info().Msgf("%s shutdown complete", ServiceName)
	}
}
