package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ragcore/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (/chat, /doc)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(configPath)
	if err != nil {
		exitWith(ExitConfigInvalid, err)
	}
	defer func() { _ = a.Close() }()

	srv := httpapi.New(a.corpus, a.retrieve, a.audit, slog.Default())

	timeout := time.Duration(a.cfg.Server.RequestTimeout) * time.Second
	httpSrv := &http.Server{
		Addr:        a.cfg.Server.Listen,
		Handler:     srv,
		ReadTimeout: timeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", a.cfg.Server.Listen)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	}
}
