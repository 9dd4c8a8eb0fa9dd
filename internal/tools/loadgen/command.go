package loadgen

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/movie-catalog-backend/internal/tools/ui"
)

const (
	loadgenExitCode = 4
	// drainSlack covers worker sign-up and in-flight requests after the
	// traffic window closes.
	drainSlack = 15 * time.Second
)

type options struct {
	cfg Config
	ci  bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "loadgen", Short: "Generate account and favorites traffic against a running API"}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfg.BaseURL, "base-url", defaultBaseURL, "API base URL")
	flags.StringVar(&opts.cfg.Profile, "profile", ProfileMixed, "traffic profile: "+profileList())
	flags.DurationVar(&opts.cfg.Duration, "duration", 15*time.Second, "traffic duration")
	flags.IntVar(&opts.cfg.RPS, "rps", 20, "requests per second")
	flags.IntVar(&opts.cfg.Concurrency, "concurrency", 6, "concurrent workers")
	flags.Int64Var(&opts.cfg.Seed, "seed", 42, "random seed")
	flags.BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run load generation",
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			return validateProfile(opts.cfg.Profile)
		},
		RunE: func(*cobra.Command, []string) error {
			title := "loadgen run (" + opts.cfg.Profile + ")"
			return ui.Execute(opts.ci, title, opts.cfg.Duration+drainSlack, loadgenExitCode, func(ctx context.Context) ([]string, error) {
				res, err := Run(ctx, opts.cfg)
				if err != nil {
					return nil, err
				}
				return res.Lines(), nil
			})
		},
	}
}
