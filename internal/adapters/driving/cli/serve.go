package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariata/ariata/internal/adapters/driven/config/file"
	"github.com/ariata/ariata/internal/adapters/driving/httpapi"
	"github.com/ariata/ariata/internal/logger"
	"github.com/ariata/ariata/internal/spool"
)

const defaultListenAddr = "127.0.0.1:8714"

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Ariata server",
	Long: `Starts the HTTP API, the spool watcher and the sync scheduler.
The server runs until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if svc == nil {
		return errors.New("services not configured")
	}

	addr := serveAddr
	if addr == "" {
		addr = svc.Config.GetString(file.KeyListenAddr)
	}
	if addr == "" {
		addr = defaultListenAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reaper for jobs abandoned by a previous process.
	svc.Engine.Start()
	defer svc.Engine.Stop()

	if spoolDir := svc.Config.GetString(file.KeySpoolDir); spoolDir != "" {
		watcher := spool.NewWatcher(spoolDir, svc.Router)
		go func() {
			if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Spool watcher stopped: %v", err)
			}
		}()
		cmd.Printf("Watching spool directory %s\n", spoolDir)
	}

	if svc.Config.GetBool(file.KeySchedulerEnabled) {
		go func() {
			if err := svc.Scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Scheduler stopped: %v", err)
			}
		}()
		defer func() { _ = svc.Scheduler.Stop() }()
		cmd.Println("Scheduler enabled")
	}

	server := httpapi.NewServer(svc.Router, svc.Engine, svc.Catalog, svc.Sources, svc.Activities)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	cmd.Printf("Ariata server listening on %s\n", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	cmd.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
