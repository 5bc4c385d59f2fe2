// Package cmd 提供 avatarhub 命令行入口.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/avatarhub/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "avatarhub",
		Short:         "A community avatar gallery service",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       configs.AppVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configs.InitConfig(configPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
}

// loadConfig 返回当前配置，--debug 覆盖 server.debug.
func loadConfig() *configs.AppConfig {
	cfg := configs.GetConfig()
	if debug {
		cfg.Server.Debug = true
	}

	return cfg
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
