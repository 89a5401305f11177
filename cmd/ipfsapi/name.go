package main

import (
	"context"
	"fmt"

	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/spf13/cobra"
)

func newNameCmd(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Publish and resolve IPNS names.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "publish <ipfs-path>",
		Short: "Publish an object to ipns under the node's key.",
		Args:  cobra.ExactArgs(1),
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, args []string) error {
			if err := api.Name().Publish(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(env.stdout, "published %s\n", args[0])
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <name>",
		Short: "Resolve an IPNS name or DNSLink domain.",
		Args:  cobra.ExactArgs(1),
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, args []string) error {
			p, err := api.Name().Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(env.stdout, p)
			return nil
		}),
	})

	return cmd
}
