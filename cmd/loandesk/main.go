package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/loandesk/internal/infra/localstore"
	"github.com/totegamma/loandesk/internal/present/rest"
)

var version = "unknown"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "loandesk",
	Short:         "Loan desk backend with best-effort remote sync",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background sync workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	slog.InfoContext(
		ctx, "loandesk starting",
		slog.String("version", version),
		slog.String("listen", cfg.Server.Listen),
		slog.String("dataDir", cfg.Server.DataDir),
		slog.String("module", "main"),
	)

	if cfg.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, cfg.Server.TraceEndpoint, "loandesk", version)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", slog.String("error", err.Error()), slog.String("module", "main"))
			}
		}()
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if cfg.Server.EnableTrace {
		e.Use(otelecho.Middleware("loandesk"))
	}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handler := rest.NewHandler(a.records, a.loan, a.sync, a.dispatcher, a.signal)
	handler.RegisterRoutes(e)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.dispatcher.Run(gctx)
	})

	if cfg.Sync.WatchFiles {
		watcher, err := localstore.NewWatcher(a.registry, a.dispatcher)
		if err != nil {
			return err
		}
		group.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	a.scheduler.Start(gctx)

	group.Go(func() error {
		if err := e.Start(cfg.Server.Listen); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", slog.String("module", "main"))

		a.scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
