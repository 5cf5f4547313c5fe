package main

import (
	"context"
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

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mahadevipille/Job-tracker-notification/internal/api"
	"github.com/mahadevipille/Job-tracker-notification/internal/catalog"
	"github.com/mahadevipille/Job-tracker-notification/internal/checklist"
	"github.com/mahadevipille/Job-tracker-notification/internal/config"
	"github.com/mahadevipille/Job-tracker-notification/internal/digest"
	"github.com/mahadevipille/Job-tracker-notification/internal/match"
	"github.com/mahadevipille/Job-tracker-notification/internal/prefs"
	"github.com/mahadevipille/Job-tracker-notification/internal/saved"
	"github.com/mahadevipille/Job-tracker-notification/internal/storage"
	"github.com/mahadevipille/Job-tracker-notification/internal/tracker"
)

const apiTokenKey = "api_token"

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the jobtrack server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running jobtrack server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show jobtrack system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "jobtrack.pid")
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

// loadOrCreateToken returns the API bearer token, minting one on first start.
func loadOrCreateToken(store *storage.Store) (string, error) {
	token, err := store.GetStateKey(apiTokenKey)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	token = uuid.New().String()
	if err := store.SetStateKey(apiTokenKey, token); err != nil {
		return "", err
	}
	return token, nil
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "jobtrack version %s\n", version)

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

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("jobtrack is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("jobtrack is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	apiToken, err := loadOrCreateToken(store)
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Load the embedded job catalogue.
	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("loading job catalogue: %w", err)
	}
	slog.Info("job catalogue loaded", "jobs", cat.Len())

	// Build the application core.
	scorer := match.NewScorer(cfg.Catalog.PremiumSource)
	prefsMgr := prefs.NewManager(store)
	digestEngine := digest.New(store, scorer, cfg.Digest.Size)
	statusTracker := tracker.New(store, cat.ByID)
	savedSet := saved.NewSet(store)
	gate := checklist.NewGate(store)

	deps := api.AppDeps{
		Catalog: cat,
		Scorer:  scorer,
		Prefs:   prefsMgr,
		Digest:  digestEngine,
		Tracker: statusTracker,
		Saved:   savedSet,
		Gate:    gate,
		Token:   apiToken,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewAppHandler(deps),
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(deps)
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
		fmt.Fprintf(os.Stderr, "jobtrack listening on %s\n", addr)
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
		printError("jobtrack is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop jobtrack (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to jobtrack (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	httpClient := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := httpClient.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Premium source", "%s", cfg.Catalog.PremiumSource)
	printStatus("Digest size", "%d", cfg.Digest.Size)

	// Show ship readiness if the server is running.
	if running {
		if client, clientErr := newAPIClient(); clientErr == nil {
			if shipResp, shipErr := client.get("/ship"); shipErr == nil {
				var ship struct {
					Shipped   bool `json:"shipped"`
					CanShip   bool `json:"canShip"`
					Completed int  `json:"completed"`
					Total     int  `json:"total"`
				}
				if decodeJSON(shipResp, &ship) == nil {
					printStatus("Checklist", "%d/%d complete", ship.Completed, ship.Total)
					if ship.Shipped {
						printStatus("Shipped", "yes")
					} else {
						printStatus("Shipped", "no (can ship: %v)", ship.CanShip)
					}
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
