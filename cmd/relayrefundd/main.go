// Command relayrefundd runs the relayer refund pipeline over a
// simulated bridged runtime and serves it over gRPC.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var configPath *string

var rootCmd = &cobra.Command{
	Use:           "relayrefundd",
	Short:         "Relayer refund pipeline daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "./relayrefund.toml", "Path to the TOML configuration file (created if missing)")

	rootCmd.AddCommand(initCmd, serveCmd, rewardCmd)
}

func newLogger(lvl zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
