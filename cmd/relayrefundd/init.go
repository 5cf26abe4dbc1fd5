package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blockberries/relayrefund/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(*configPath); err == nil {
			return fmt.Errorf("config file %s already exists", *configPath)
		}
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (data dir %s)\n", *configPath, cfg.DataDir)
		return nil
	},
}
