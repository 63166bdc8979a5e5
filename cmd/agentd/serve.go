package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/agentd/internal/checkpoint"
	"github.com/fyrsmithlabs/agentd/internal/config"
	agentdhttp "github.com/fyrsmithlabs/agentd/internal/http"
	"github.com/fyrsmithlabs/agentd/internal/logging"
	"github.com/fyrsmithlabs/agentd/internal/memory"
	"github.com/fyrsmithlabs/agentd/internal/model"
	"github.com/fyrsmithlabs/agentd/internal/orchestrator"
	"github.com/fyrsmithlabs/agentd/internal/search"
	"github.com/fyrsmithlabs/agentd/internal/services"
	"github.com/fyrsmithlabs/agentd/internal/telemetry"
	"github.com/fyrsmithlabs/agentd/internal/tools"
	"github.com/fyrsmithlabs/agentd/internal/workflow"
	"github.com/fyrsmithlabs/agentd/internal/workspace"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agentd daemon",
	Long: `Start the agentd HTTP server.

Configuration is loaded from the config file and overridden by
environment variables (SERVER_PORT, MODEL_API_KEY, WORKSPACE_ROOT, ...).

Examples:
  # Start with defaults
  agentd serve

  # Start with an explicit config file
  agentd serve --config ./agentd.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	zlog := logger.Zap()

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zlog.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	reg, err := buildRegistry(ctx, cfg, zlog)
	if err != nil {
		return err
	}

	srv, err := agentdhttp.NewServer(reg, zlog, &agentdhttp.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		EventBuffer: cfg.Orchestrator.EventBuffer,
	})
	if err != nil {
		return fmt.Errorf("create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		zlog.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
	}

	zlog.Info("server shutdown complete")
	return nil
}

// buildRegistry wires every service the daemon needs.
func buildRegistry(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (services.Registry, error) {
	ws, err := workspace.New(cfg.Workspace.Root, zlog.Named("workspace"))
	if err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", cfg.Workspace.Root, err)
	}

	mem := memory.NewInMemoryStore(zlog.Named("memory"))
	cps := checkpoint.NewInMemoryStore(zlog.Named("checkpoint"))
	wf := workflow.NewInMemoryTracker(zlog.Named("workflow"))

	index, err := buildIndex(ctx, cfg, ws, zlog.Named("search"))
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	if err := registry.RegisterAll(tools.ReadFileTool{}, tools.ListFilesTool{}, tools.WriteFileTool{}); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	if index != nil {
		searchTool, err := tools.NewSearchTool(index)
		if err != nil {
			return nil, fmt.Errorf("create search tool: %w", err)
		}
		if err := registry.Register(searchTool); err != nil {
			return nil, fmt.Errorf("register search tool: %w", err)
		}
	}

	streamer, err := model.NewOpenAIStreamer(cfg.Model, zlog.Named("model"))
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}

	orch, err := orchestrator.New(orchestrator.Config{
		MaxIterations: cfg.Orchestrator.MaxIterations,
		HistoryLimit:  cfg.Orchestrator.HistoryLimit,
		TurnTimeout:   cfg.Orchestrator.TurnTimeout.Duration(),
	}, mem, cps, wf, registry, streamer, ws, zlog.Named("orchestrator"))
	if err != nil {
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}

	return services.NewRegistry(services.Options{
		Orchestrator: orch,
		Memory:       mem,
		Checkpoint:   cps,
		Workflow:     wf,
		Tools:        registry,
		Search:       index,
		Workspace:    ws,
	}), nil
}

// buildIndex creates the code-search index and seeds it from the
// workspace. Without a model API key it falls back to the local hash
// embedder so search still works offline.
func buildIndex(ctx context.Context, cfg *config.Config, ws *workspace.Workspace, zlog *zap.Logger) (*search.Index, error) {
	var embedder search.Embedder
	if cfg.Model.APIKey.IsSet() {
		e, err := search.NewOpenAIEmbedder(cfg.Model.APIKey.Value(), cfg.Model.BaseURL, "")
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
		embedder = e
	} else {
		zlog.Warn("no model api key; using local hash embedder for search")
		embedder = search.HashEmbedder{}
	}

	index, err := search.NewIndex(search.Config{
		Path:       cfg.Search.Path,
		Collection: cfg.Search.Collection,
	}, embedder, zlog)
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}

	if err := indexWorkspace(ctx, index, cfg.Workspace.Root); err != nil {
		return nil, fmt.Errorf("index workspace: %w", err)
	}
	zlog.Info("workspace indexed", zap.Int("documents", index.Count()))

	return index, nil
}

// maxIndexedFileSize bounds what goes into the search index.
const maxIndexedFileSize = 256 * 1024

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".idea":        true,
}

func indexWorkspace(ctx context.Context, index *search.Index, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxIndexedFileSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		content := string(data)
		if !isText(content) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		return index.Add(ctx, filepath.ToSlash(rel), content)
	})
}

// isText is a cheap binary check: real source files don't contain NUL.
func isText(content string) bool {
	return !strings.ContainsRune(content, '\x00')
}

func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	logCfg := logging.NewDefaultConfig()
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
		logCfg.Level = level
	}
	if cfg.Format != "" {
		logCfg.Format = cfg.Format
	}
	return logging.NewLogger(logCfg)
}
