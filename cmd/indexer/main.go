// Command indexer maintains the search index the bot answers from:
// it creates the index, uploads the sample documents and runs ad-hoc queries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/config"
	logpkg "github.com/kailas-cloud/searchbot/internal/logger"
	"github.com/kailas-cloud/searchbot/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// state is shared by all subcommands and filled in before any of them runs.
type state struct {
	env        string
	configPath string

	cfg    config.Config
	logger *zap.Logger
}

func (s *state) load() error {
	var err error
	if s.configPath != "" {
		s.cfg, err = config.LoadFile(s.configPath)
	} else {
		s.cfg, err = config.Load(s.env)
	}
	if err != nil {
		return err //nolint:wrapcheck // config errors already carry the path
	}

	s.logger, err = logpkg.NewLogger(s.env, s.cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:           "indexer",
		Short:         "Create, fill and query the searchbot index",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return st.load()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if st.logger != nil {
				_ = st.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&st.env, "env", config.GetEnv(), "environment: local, dev, prod")
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "config file path (overrides --env lookup)")

	root.AddCommand(newSetupCmd(st), newWatchCmd(st), newDeleteCmd(st), newSearchCmd(st))
	return root
}
