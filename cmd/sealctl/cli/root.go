// Package cli implements the sealctl admin commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/sealworks/seal-erp/internal/app"
	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/customers"
	"github.com/sealworks/seal-erp/internal/inventory"
	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/platform/db"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/suppliers"
	"github.com/sealworks/seal-erp/internal/users"
)

// Migrator applies pending schema migrations.
type Migrator interface {
	Migrate(ctx context.Context) ([]string, error)
}

// UserCreator creates accounts.
type UserCreator interface {
	Create(ctx context.Context, input users.CreateInput) (users.User, error)
}

// Env resolves the resources a command needs. Each opener returns a release func.
type Env struct {
	Stdout      io.Writer
	OpenMigrate func(ctx context.Context) (Migrator, func(), error)
	OpenUsers   func(ctx context.Context) (UserCreator, func(), error)
	OpenJobs    func() (JobQueue, func(), error)
	OpenSeeder  func(ctx context.Context) (*Seeder, func(), error)
}

// NewRootCommand assembles the command tree over env.
func NewRootCommand(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "sealctl",
		Short:         "Administrative commands for the seal ERP backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if env.Stdout != nil {
		root.SetOut(env.Stdout)
	}
	root.AddCommand(newMigrateCommand(env), newUserCommand(env), newJobsCommand(env), newSeedCommand(env))
	return root
}

// Execute runs sealctl against the configured environment.
func Execute() {
	if err := NewRootCommand(defaultEnv()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sealctl: %v\n", err)
		os.Exit(1)
	}
}

type poolMigrator struct {
	migrate func(ctx context.Context) ([]string, error)
}

func (m poolMigrator) Migrate(ctx context.Context) ([]string, error) { return m.migrate(ctx) }

func defaultEnv() *Env {
	loadConfig := func() (*app.Config, *slog.Logger, error) {
		cfg, err := app.LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		return cfg, app.NewLogger(cfg), nil
	}
	return &Env{
		Stdout: os.Stdout,
		OpenMigrate: func(ctx context.Context) (Migrator, func(), error) {
			cfg, _, err := loadConfig()
			if err != nil {
				return nil, nil, err
			}
			pool, err := db.New(ctx, cfg.PGDSN, cfg.PGDatabase)
			if err != nil {
				return nil, nil, err
			}
			m := poolMigrator{migrate: func(ctx context.Context) ([]string, error) { return db.Migrate(ctx, pool) }}
			return m, pool.Close, nil
		},
		OpenUsers: func(ctx context.Context) (UserCreator, func(), error) {
			cfg, _, err := loadConfig()
			if err != nil {
				return nil, nil, err
			}
			pool, err := db.New(ctx, cfg.PGDSN, cfg.PGDatabase)
			if err != nil {
				return nil, nil, err
			}
			return users.NewService(users.NewRepository(pool), 0), pool.Close, nil
		},
		OpenSeeder: func(ctx context.Context) (*Seeder, func(), error) {
			cfg, logger, err := loadConfig()
			if err != nil {
				return nil, nil, err
			}
			pool, err := db.New(ctx, cfg.PGDSN, cfg.PGDatabase)
			if err != nil {
				return nil, nil, err
			}
			audit := shared.NewAuditLogger(pool)
			inventoryService := inventory.NewService(inventory.NewRepository(pool), audit, logger)
			seeder := &Seeder{
				Customers: customers.NewService(customers.NewRepository(pool)),
				Suppliers: suppliers.NewService(suppliers.NewRepository(pool), nil, logger),
				Inventory: inventoryService,
				Materials: materials.NewService(materials.NewRepository(pool), inventoryService, audit, logger),
				Catalog:   catalog.NewService(catalog.NewRepository(pool)),
			}
			return seeder, pool.Close, nil
		},
		OpenJobs: func() (JobQueue, func(), error) {
			cfg, logger, err := loadConfig()
			if err != nil {
				return nil, nil, err
			}
			q := NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			return q, func() {
				if err := q.Close(); err != nil {
					logger.Warn("jobs cli close", slog.Any("error", err))
				}
			}, nil
		},
	}
}
