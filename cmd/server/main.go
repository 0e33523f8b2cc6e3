package main

import (
	"cardbook/internal/api"
	"cardbook/internal/config"
	"cardbook/internal/engine"
	"cardbook/internal/geo"
	"cardbook/internal/logging"
	"cardbook/internal/session"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cardbook-server",
		Short:         "Serve the contact table and dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// 1. Table starts empty; the API answers 503 until the first load lands
	table := engine.NewTable(log.Named("table"))
	table.Dispatch(engine.SetPageSize{Size: cfg.Table.PageSize})

	geocoder, err := geo.New(geo.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		RPS:       cfg.Geocoder.RPS,
		Timeout:   cfg.Geocoder.Timeout,
		CacheSize: cfg.Geocoder.CacheSize,
	}, log.Named("geo"))
	if err != nil {
		return err
	}
	sessions := session.NewCookieProvider([]byte(cfg.Session.Secret), cfg.Session.Secure)

	h := api.NewHandler(table, geocoder, sessions, log.Named("api"))
	e := api.NewServer(h, log.Named("http"))

	// 2. Load contacts in the background so the server is up immediately
	go func() {
		log.Info("loading contacts", zap.String("path", cfg.Data.Path))
		t0 := time.Now()

		err := table.Load(func() (*engine.ContactStore, error) {
			return engine.LoadFile(cfg.Data.Path, log)
		})
		if err != nil {
			return
		}
		// warm the analytics cache
		if _, err := table.Dashboard(); err != nil {
			log.Warn("dashboard aggregate failed", zap.Error(err))
		}
		log.Info("contacts ready",
			zap.Int("rows", table.Store().Len()),
			zap.Duration("took", time.Since(t0)),
		)
	}()

	// 3. Serve until interrupted
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("server ready", zap.String("addr", cfg.Server.Addr))
		errc <- e.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
