package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
	"github.com/sandeepkv93/movie-catalog-backend/internal/database"
	"github.com/sandeepkv93/movie-catalog-backend/internal/di"
	"github.com/sandeepkv93/movie-catalog-backend/internal/tools/common"
	"github.com/sandeepkv93/movie-catalog-backend/internal/tools/ui"
)

const migrateExitCode = 2

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Identity store schema tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newUpCommand(opts),
		newStatusCommand(opts),
		newPlanCommand(opts),
	)
	return cmd
}

func newUpCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "migrate up", func(ctx context.Context) ([]string, error) {
				if err := common.LoadEnvFile(opts.envFile); err != nil {
					return nil, err
				}
				runner, err := di.InitializeMigrationRunner()
				if err != nil {
					return nil, err
				}
				report, err := runner.Run(ctx)
				if err != nil {
					return nil, err
				}
				details := append([]string{"schema migration applied"}, planFor(runner.Config())...)
				return append(details, report.Lines()...), nil
			})
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check migration prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "migrate status", func(ctx context.Context) ([]string, error) {
				cfg, store, err := common.OpenStore(ctx, opts.envFile, false)
				if err != nil {
					return nil, err
				}
				defer func() { _ = store.Close(context.Background()) }()
				return status(ctx, cfg, store)
			})
		},
	}
}

func newPlanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show migration plan (dry-run)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "migrate plan", func(ctx context.Context) ([]string, error) {
				if err := common.LoadEnvFile(opts.envFile); err != nil {
					return nil, err
				}
				cfg, err := config.Load()
				if err != nil {
					return nil, err
				}
				return append(planFor(cfg), "no mutation executed in plan mode"), nil
			})
		},
	}
}

func planFor(cfg *config.Config) []string {
	if cfg.UsesGorm() {
		return []string{
			"store: " + cfg.StoreDriver,
			"auto-migrate tables: users, liked_movies",
			"indexes: users.email unique, liked_movies(user_id, movie_id) unique",
		}
	}
	return []string{
		"store: " + cfg.StoreDriver + " database " + cfg.MongoDatabase,
		"indexes: users.email unique (uniq_users_email)",
	}
}

func status(ctx context.Context, cfg *config.Config, store *database.Store) ([]string, error) {
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store ping: %w", err)
	}
	details := []string{"store reachable", "driver: " + cfg.StoreDriver, "service: " + cfg.OTELServiceName}
	if store.DB != nil {
		for _, table := range []string{"users", "liked_movies"} {
			state := "missing"
			if store.DB.Migrator().HasTable(table) {
				state = "present"
			}
			details = append(details, fmt.Sprintf("table %s: %s", table, state))
		}
	}
	return details, nil
}

func execute(opts *options, title string, action ui.Action) error {
	return ui.Execute(opts.ci, title, opts.timeout, migrateExitCode, action)
}
