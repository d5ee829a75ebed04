package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/joestump/devhub/internal/config"
	"github.com/joestump/devhub/internal/db"
	"github.com/joestump/devhub/internal/seed"
	"github.com/joestump/devhub/internal/store"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a db.json document into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Seed.File
			}

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(cmd.Context(), database, cfg.DB.Driver); err != nil {
				return err
			}
			return applySeed(cmd.Context(), store.New(database), file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed document (default: DEVHUB_SEED_FILE or the embedded sample)")
	return cmd
}

func applySeed(ctx context.Context, stores *store.Stores, file string) error {
	doc, err := seed.Open(file)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, stores, doc)
	if err != nil {
		return err
	}
	if res.Skipped {
		log.Println("seed: database already has users, skipping")
		return nil
	}
	log.Printf("seed: loaded %d users, %d developers, %d blogs, %d comments",
		res.Users, res.Developers, res.Blogs, res.Comments)
	return nil
}
