// Package cli implements the poassist command line: project housekeeping and
// one-shot generation against the configured store.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"poassistant/internal/gateway/app"
	"poassistant/internal/gateway/config"
	"poassistant/internal/gateway/projectstore"
	"poassistant/internal/logger"
)

// Options configure the root command. Zero values load the config from the
// environment and write to stdout.
type Options struct {
	Config *config.Config
	Logger logrus.FieldLogger
	Out    io.Writer
}

type runtime struct {
	cfg   *config.Config
	log   logrus.FieldLogger
	out   io.Writer
	store *projectstore.Store
}

func (r *runtime) load(cmd *cobra.Command, _ []string) error {
	if r.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		r.cfg = cfg
	}
	if r.log == nil {
		verbose, _ := cmd.Flags().GetBool("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")
		switch {
		case quiet:
			r.log = logger.Discard()
		case verbose:
			r.log = logger.NewWithOutput(os.Stderr, "debug", r.cfg.Log.Format)
		default:
			r.log = logger.NewWithOutput(os.Stderr, "warn", r.cfg.Log.Format)
		}
	}
	return nil
}

// projects opens the project store once per invocation.
func (r *runtime) projects(ctx context.Context) (*projectstore.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	store, err := app.OpenProjectStore(ctx, r.cfg, r.log, nil)
	if err != nil {
		return nil, err
	}
	r.store = store
	return store, nil
}

func (r *runtime) close() {
	if r.store != nil {
		_ = r.store.Close()
		r.store = nil
	}
}

func NewRootCmd(opts Options) *cobra.Command {
	r := &runtime{cfg: opts.Config, log: opts.Logger, out: opts.Out}
	if r.out == nil {
		r.out = os.Stdout
	}

	root := &cobra.Command{
		Use:               "poassist",
		Short:             "Product owner assistant",
		Long:              "Generate UI prototypes and Jira-ready user stories, and manage saved projects",
		SilenceUsage:      true,
		PersistentPreRunE: r.load,
		PersistentPostRun: func(*cobra.Command, []string) { r.close() },
	}
	root.SetOut(r.out)
	root.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolP("quiet", "q", false, "suppress log output")

	root.AddCommand(newProjectsCmd(r), newGenerateCmd(r))
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := NewRootCmd(Options{}).Execute(); err != nil {
		return 1
	}
	return 0
}
