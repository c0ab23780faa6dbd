package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/modelq-io/modelq/config"
)

var (
	configurationFile string
)

func initConfig(filename string) (*config.Config, error) {
	cfg := config.New()
	if filename != "" {
		if err := config.Load(filename, cfg); err != nil {
			return nil, errors.Wrap(err, "could not load configuration")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "modelq",
		Short:        "",
		Long:         ``,
		SilenceUsage: true,
	}

	cmd.SetOut(os.Stdout)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStartCmd())

	return cmd
}

func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
