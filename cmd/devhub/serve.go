package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/joestump/devhub/internal/api"
	"github.com/joestump/devhub/internal/config"
	"github.com/joestump/devhub/internal/db"
	"github.com/joestump/devhub/internal/metrics"
	"github.com/joestump/devhub/internal/store"
)

const gaugeInterval = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Data API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(cmd.Context(), database, cfg.DB.Driver); err != nil {
				return err
			}

			ctx := cmd.Context()
			stores := store.New(database)
			if err := applySeed(ctx, stores, cfg.Seed.File); err != nil {
				return err
			}
			go runGaugeRefresher(ctx, stores, gaugeInterval)

			router := api.NewRouter(api.Deps{
				Stores:         stores,
				EnforceAuthor:  cfg.Server.EnforceAuthor,
				UsersRate:      cfg.Server.UsersRate,
				UsersBurst:     cfg.Server.UsersBurst,
				AllowedOrigins: cfg.CORS.AllowedOrigins,
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", cfg.HTTP.Addr)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			log.Println("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

// runGaugeRefresher keeps the collection size gauges current until ctx ends.
func runGaugeRefresher(ctx context.Context, stores *store.Stores, every time.Duration) {
	refresh := func() {
		if n, err := stores.Developers.Count(ctx); err != nil {
			log.Printf("gauge refresh: count developers: %v", err)
		} else {
			metrics.DevelopersTotal.Set(float64(n))
		}
		if n, err := stores.Blogs.Count(ctx); err != nil {
			log.Printf("gauge refresh: count blogs: %v", err)
		} else {
			metrics.BlogsTotal.Set(float64(n))
		}
	}

	refresh()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			refresh()
		case <-ctx.Done():
			return
		}
	}
}
