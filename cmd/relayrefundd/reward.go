package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/blockberries/relayrefund/config"
	refundgrpc "github.com/blockberries/relayrefund/grpc"
	"github.com/blockberries/relayrefund/types"
)

var (
	rewardRPC  *string
	rewardLane *string
)

func init() {
	rewardRPC = rewardCmd.Flags().String("rpc", "", "Address of a running relayrefundd (defaults to rpc.ListenAddress from the config)")
	rewardLane = rewardCmd.Flags().String("lane", "", "Lane id in hex (defaults to bridge.Lane from the config)")
}

var rewardCmd = &cobra.Command{
	Use:   "reward <relayer>",
	Short: "Query the reward registered for a relayer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		relayer, err := types.ParseAccountID(args[0])
		if err != nil {
			return err
		}

		addr, laneHex := *rewardRPC, *rewardLane
		if addr == "" || laneHex == "" {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.RPC.ListenAddress
			}
			if laneHex == "" {
				laneHex = cfg.Bridge.Lane
			}
		}
		lane, err := types.ParseLaneID(laneHex)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		client, err := refundgrpc.Dial(ctx, addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return err
		}
		defer client.Close()

		reward, ok, err := client.RelayerReward(ctx, relayer, lane)
		if err != nil {
			return fmt.Errorf("query reward: %w", err)
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "no reward for %s on lane %s\n", relayer, lane)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s on lane %s: %d\n", relayer, lane, reward)
		return nil
	},
}
