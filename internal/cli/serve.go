package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"medialib/internal/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on server.port (or $PORT).

Routes are mounted under /api: items CRUD, search, random, enhance-query,
backup, restore and health. Pending index updates are drained on shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, GetRootDir(), -1)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("shutdown incomplete", "error", err)
		}
	}()

	if err := a.prepareIndex(ctx, cfg.Index.RebuildOnModelChange, nil); err != nil {
		slog.Error("index preparation failed; search may be degraded", "error", err)
	}

	server := handler.NewApp(cfg.Server,
		handler.NewItemsHandler(a.catalog),
		handler.NewSearchHandler(a.searcher, a.recommend, a.enhance),
		handler.NewLibraryHandler(a.catalog, a.sync),
		handler.NewAutofillHandler(a.autofill),
		handler.NewHealthHandler(cfg.Server.AppName, a.records, a.index, a.embedder, a.llm),
	)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening",
			"port", cfg.Server.Port,
			"store", cfg.Store.Driver,
			"embedding", a.embedder.ModelName(),
			"generation", a.llm.ModelName(),
		)
		errCh <- server.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
