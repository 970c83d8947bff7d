package main

import (
	"fmt"

	"github.com/amankumarsingh77/episode-transcoder/internal/config"
	"github.com/amankumarsingh77/episode-transcoder/pkg/logger"
	"github.com/spf13/cobra"
)

type commandContext struct {
	configFile string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}
	root := &cobra.Command{
		Use:           "worker",
		Short:         "Transcode episodes queued by the web application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&ctx.configFile, "config", "c", "config.yml", "path to the config file")
	root.AddCommand(newListenCommand(ctx))
	root.AddCommand(newPushCommand(ctx))
	return root
}

func (c *commandContext) load() (*config.Config, logger.Logger, error) {
	cfgFile, err := config.LoadConfig(c.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loadConfig: %w", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("parseConfig: %w", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	return cfg, appLogger, nil
}
