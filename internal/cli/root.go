// Package cli implements rxpctl, the operator command line for exports,
// statistics and admin accounts.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ralph-xpert/internal/config"
	"ralph-xpert/internal/leads"
	"ralph-xpert/internal/logging"
	"ralph-xpert/internal/store"
)

func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func (e *env) open(ctx context.Context) (store.Store, *leads.Service, error) {
	st, err := store.Open(ctx, e.cfg, e.logger)
	if err != nil {
		return nil, nil, err
	}
	svc := leads.NewService(st,
		leads.WithLocation(e.cfg.Location()),
		leads.WithMemberGoal(e.cfg.MemberGoal),
		leads.WithLogger(e.logger),
	)
	return st, svc, nil
}

func NewRootCmd() *cobra.Command {
	var (
		dataDir string
		driver  string
		verbose bool
	)
	e := &env{}

	cmd := &cobra.Command{
		Use:          "rxpctl",
		Short:        "Ralph Xpert operator tool",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			e.cfg = config.LoadConfig()
			if dataDir != "" {
				e.cfg.DataDir = dataDir
			}
			if driver != "" {
				e.cfg.StorageDriver = driver
			}
			e.logger = zap.NewNop()
			if verbose {
				logger, err := logging.New("debug")
				if err != nil {
					return err
				}
				e.logger = logger
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "JSON data directory (overrides DATA_DIR)")
	cmd.PersistentFlags().StringVar(&driver, "driver", "", "storage driver: json, sqlite or postgres (overrides STORAGE_DRIVER)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log storage activity to stderr")

	cmd.AddCommand(exportCmd(e), statsCmd(e), adminCmd(e))
	return cmd
}
