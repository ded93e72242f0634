// Command seed prepares the Postgres data source: it applies the schema and
// loads the sample Bangalore listings.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yourorg/pg-finder/internal/config"
	"github.com/yourorg/pg-finder/internal/events"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/seed"
	"github.com/yourorg/pg-finder/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagKeys maps command flags onto the seed config section, so a flag set on
// the command line wins over config.yaml and SEED_* variables.
var flagKeys = map[string]string{
	"dsn":      "seed.dsn",
	"owner":    "seed.owner_id",
	"interval": "seed.interval",
	"once":     "seed.once",
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Manage the pg-finder Postgres data source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("dsn", "", "Postgres DSN (defaults to the configured database)")

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, log, err := open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			log.Info("schema applied", nil)
			return nil
		},
	})

	load := &cobra.Command{
		Use:   "load",
		Short: "Upsert the sample listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runLoad(cmd.Context(), cfg)
		},
	}
	load.Flags().String("owner", "", "owner id stamped on every sample listing")
	load.Flags().Duration("interval", 0, "reseed on this interval until interrupted")
	load.Flags().Bool("once", false, "seed once and exit even when an interval is set")
	root.AddCommand(load)

	return root
}

// loadConfig binds the flags cmd knows about and loads the configuration.
func loadConfig(cmd *cobra.Command, paths ...string) (*config.Config, error) {
	return config.LoadWith(func(v *viper.Viper) error {
		for name, key := range flagKeys {
			f := cmd.Flags().Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
		return nil
	}, paths...)
}

func runLoad(ctx context.Context, cfg *config.Config) error {
	st, log, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	s := &seed.Seeder{
		Store:  st,
		Pub:    events.Discard,
		Logger: log,
		Config: seed.Config{OwnerID: cfg.Seed.OwnerID, Interval: cfg.Seed.Interval},
	}

	rootCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Seed.RunsOnce() {
		if _, err := s.RunOnce(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("seed run failed: %w", err)
		}
		return nil
	}
	if err := s.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("seeder stopped with error: %w", err)
	}
	return nil
}

// open loads config, connects and migrates. Every subcommand migrates first
// so load works against an empty database.
func open(ctx context.Context, cfg *config.Config) (*store.Store, logger.Logger, error) {
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).WithFields(map[string]interface{}{"cmd": "seed"})

	dsn := cfg.Seed.DSN
	if dsn == "" {
		dsn = cfg.Database.Postgres.GetDSN()
	}
	st, err := store.Open(dsn, store.Options{
		MaxOpen: cfg.Database.Postgres.MaxConnections,
		MaxIdle: cfg.Database.Postgres.MaxIdle,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("store open: %w", err)
	}

	tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := st.Ping(tctx); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := st.Migrate(tctx); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return st, log, nil
}
