// Package cli implements the emily command line: the HTTP service plus
// one-shot ask and seed commands.
package cli

import (
	"github.com/spf13/cobra"

	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

var (
	envFile string
	appCfg  *AppConfig
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "emily",
	Short:        "Emily, the retail avatar assistant",
	Long:         "Retrieval augmented retail assistant that answers shoppers as a 3D avatar and manages the product catalog.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(envFile)
		if err != nil {
			return err
		}
		logx.Init(logx.LoggerOpts{Environment: cfg.Environment})
		appCfg = cfg
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", ".env", "Dotenv file loaded before reading the environment")
}
