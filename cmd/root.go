package cmd

import (
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/inventory-sms-agent/pkg/config"
	logx "github.com/tanpawarit/inventory-sms-agent/pkg/logger"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "inventory-agent",
		Short:         "SMS inventory assistant: supervisor routing to an inventory worker agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			configx.SetEnvFile(envFile)
			// Re-read LOG_* now that the env file is known.
			logConf, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logx.Init(*logConf)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (defaults to ./.env when present)")

	rootCmd.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newToolCmd(),
		newSeedCmd(),
	)

	return rootCmd
}
