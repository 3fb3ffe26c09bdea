package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/api"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/config"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/engine"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/ingest"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/pipeline"
	"github.com/divyamoorthy99/PersonalIntelligenceEngine/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the pie server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running pie server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pie system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "pie.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// embedModel returns the embedding model for the configured provider.
func embedModel(cfg config.Config) string {
	if cfg.Embedding.Provider == "openai" {
		return cfg.Embedding.OpenAIModel
	}
	return cfg.Embedding.Model
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "pie version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	apiToken, err := config.APIToken(cfg)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("pie is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("pie is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Detect and check embedding backend readiness.
	eng, err := engine.Detect(engine.DetectConfig{
		Provider:      cfg.Embedding.Provider,
		OllamaBaseURL: cfg.Embedding.BaseURL,
		OpenAIAPIKey:  cfg.Embedding.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Embedding.OpenAIBaseURL,
	})
	if err != nil {
		return fmt.Errorf("detecting embedding backend: %w", err)
	}
	model := embedModel(cfg)
	if err := engine.EnsureReady(ctx, eng, model, os.Stderr); err != nil {
		return err
	}

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build the analysis service.
	runner, err := pipeline.NewRunner(pipeline.Config{
		Themes:         cfg.Analysis.Themes,
		Contamination:  cfg.Analysis.Contamination,
		AnomalyTopN:    cfg.Analysis.AnomalyTopN,
		WeekWindow:     cfg.Analysis.WeekWindow,
		Seed:           int64(cfg.Analysis.Seed),
		TrendEpsilon:   cfg.Analysis.TrendEpsilon,
		CycleThreshold: cfg.Analysis.CycleThreshold,
		Restarts:       cfg.Analysis.Restarts,
		Trees:          cfg.Analysis.Trees,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	svc := &pipeline.Service{
		Store:    store,
		Embedder: ingest.NewEmbedder(eng, model),
		Runner:   runner,
	}

	// Build HTTP handler and server.
	appHandler := api.NewAppHandler(api.AppDeps{
		Store:   store,
		Service: svc,
		Token:   apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: appHandler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:   store,
		Service: svc,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "pie listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("pie is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop pie (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to pie (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Check embedding backend.
	printStatus("Provider", "%s", cfg.Embedding.Provider)
	if cfg.Embedding.Provider != "openai" {
		ollamaResp, err := client.Get(cfg.Embedding.BaseURL + "/api/version")
		if err != nil {
			printStatus("Ollama", "not running")
		} else {
			ollamaResp.Body.Close()
			printStatus("Ollama", "running at %s", cfg.Embedding.BaseURL)
		}
	}
	printStatus("Embed model", "%s", embedModel(cfg))

	// Show entry/run counts if server is running.
	apiToken, tokenErr := config.APIToken(cfg)
	if tokenErr == nil && resp != nil && resp.StatusCode == 200 {
		entriesResp, err := apiGet(client, serverURL+"/entries", apiToken)
		if err == nil {
			var entries []json.RawMessage
			if json.NewDecoder(entriesResp.Body).Decode(&entries) == nil {
				printStatus("Entries", "%d", len(entries))
			}
			entriesResp.Body.Close()
		}
		runsResp, err2 := apiGet(client, serverURL+"/runs?limit=100", apiToken)
		if err2 == nil {
			var runs []json.RawMessage
			if json.NewDecoder(runsResp.Body).Decode(&runs) == nil {
				printStatus("Analysis runs", "%s", countLabel(len(runs), 100))
			}
			runsResp.Body.Close()
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}

func apiGet(client *http.Client, url, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return client.Do(req)
}
