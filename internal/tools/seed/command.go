package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/movie-catalog-backend/internal/database"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
	"github.com/sandeepkv93/movie-catalog-backend/internal/tools/common"
	"github.com/sandeepkv93/movie-catalog-backend/internal/tools/ui"
)

const seedExitCode = 3

type options struct {
	envFile             string
	bootstrapAdminEmail string
	timeout             time.Duration
	ci                  bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Identity seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.bootstrapAdminEmail, "bootstrap-admin-email", "", "override bootstrap admin email")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(
		newApplyCommand(opts),
		newDryRunCommand(opts),
		newAdminFlagCommand(opts, "promote-admin", "Grant the admin flag to a registered identity", true),
		newAdminFlagCommand(opts, "demote-admin", "Revoke the admin flag from an identity", false),
	)
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Promote the bootstrap admin if it has registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				cfg, store, err := common.OpenStore(ctx, opts.envFile, true)
				if err != nil {
					return nil, err
				}
				defer func() { _ = store.Close(context.Background()) }()

				report, err := database.SeedSync(ctx, store.Users, pickEmail(opts, cfg.BootstrapAdminEmail))
				if err != nil {
					return nil, err
				}
				return describeReport(cfg.StoreDriver, report), nil
			})
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				cfg, store, err := common.OpenStore(ctx, opts.envFile, false)
				if err != nil {
					return nil, err
				}
				defer func() { _ = store.Close(context.Background()) }()

				return planSeed(ctx, store.Users, pickEmail(opts, cfg.BootstrapAdminEmail))
			})
		},
	}
}

func newAdminFlagCommand(opts *options, use, short string, isAdmin bool) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "seed "+use, func(ctx context.Context) ([]string, error) {
				if strings.TrimSpace(email) == "" {
					return nil, fmt.Errorf("--email is required")
				}
				_, store, err := common.OpenStore(ctx, opts.envFile, false)
				if err != nil {
					return nil, err
				}
				defer func() { _ = store.Close(context.Background()) }()

				if err := database.SetAdminFlag(ctx, store.Users, email, isAdmin); err != nil {
					if errors.Is(err, repository.ErrUserNotFound) {
						return nil, fmt.Errorf("no identity registered with email %s", strings.ToLower(strings.TrimSpace(email)))
					}
					return nil, err
				}
				return []string{fmt.Sprintf("is_admin=%t for %s", isAdmin, strings.ToLower(strings.TrimSpace(email)))}, nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "identity email")
	return cmd
}

// planSeed reports the seed outcome without writing.
func planSeed(ctx context.Context, users repository.UserRepository, email string) ([]string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return []string{"no bootstrap admin configured", "no mutation executed in dry-run mode"}, nil
	}
	u, err := users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return []string{"bootstrap admin " + email + " has not registered; nothing to promote"}, nil
	case err != nil:
		return nil, err
	case u.IsAdmin:
		return []string{"bootstrap admin " + email + " is already an admin"}, nil
	default:
		return []string{"would promote " + email + " to admin", "no mutation executed in dry-run mode"}, nil
	}
}

func describeReport(driver string, report *database.SeedReport) []string {
	return append([]string{"store: " + driver}, report.Lines()...)
}

func pickEmail(opts *options, configured string) string {
	if opts.bootstrapAdminEmail != "" {
		return opts.bootstrapAdminEmail
	}
	return configured
}

func execute(opts *options, title string, action ui.Action) error {
	return ui.Execute(opts.ci, title, opts.timeout, seedExitCode, action)
}
