package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
)

func newRootCommand() *cobra.Command {
	var addrFlag string
	var configFlag string

	ctx := &commandContext{addrFlag: &addrFlag, configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "clipforge",
		Short:         "Clipforge CLI",
		Long:          "Submit and monitor video generation jobs on a running clipforged daemon.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Daemon API address (host:port)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newSubmitCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newCancelCommand(ctx))
	rootCmd.AddCommand(newClearCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newHealthCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// commandContext resolves shared flag state lazily so commands that never
// touch the daemon (config init) skip config loading.
type commandContext struct {
	addrFlag   *string
	configFlag *string
	cfg        *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) client() (*apiClient, error) {
	addr := *c.addrFlag
	if addr == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		addr = cfg.Paths.APIBind
	}
	return newAPIClient(addr), nil
}
