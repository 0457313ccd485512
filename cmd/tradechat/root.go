package main

import (
	"os"

	"github.com/saeid-a/tradechat/internal/config"
	"github.com/saeid-a/tradechat/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configFile string
	outputType string

	app *application
)

var rootCmd = &cobra.Command{
	Use:           "tradechat",
	Short:         "Chat and trade with your suppliers and customers",
	Long:          `tradechat signs in to the ordering backend, lists conversations, sends messages and manages orders and the item catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		logging.Setup(os.Stderr, "text", cfg.LogLevel)

		app, err = newApplication(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputType, "output", "o", "table", "output format: table|json")
}
