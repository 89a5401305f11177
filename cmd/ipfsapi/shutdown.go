package main

import (
	"context"

	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/spf13/cobra"
)

func newShutdownCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Shut down the daemon.",
		Args:  cobra.NoArgs,
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, _ []string) error {
			return api.Shutdown(ctx)
		}),
	}
}
