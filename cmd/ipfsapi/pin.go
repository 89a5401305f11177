package main

import (
	"context"
	"fmt"

	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/spf13/cobra"
)

func newPinCmd(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin",
		Short: "Pin (and unpin) objects to local storage.",
		Long: `ipfsapi pin (add|rm|ls) - manage the daemon's pin set.

    Pinned objects are kept by the daemon's garbage collector.
`,
	}

	var addRecursive bool
	add := &cobra.Command{
		Use:   "add <ipfs-path>",
		Short: "Pin an object to local storage.",
		Args:  cobra.ExactArgs(1),
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, args []string) error {
			pins, err := api.Pin().Add(ctx, args[0], addRecursive)
			if err != nil {
				return err
			}
			how := "directly"
			if addRecursive {
				how = "recursively"
			}
			for _, id := range pins {
				fmt.Fprintf(env.stdout, "pinned %s %s\n", id, how)
			}
			return nil
		}),
	}
	add.Flags().BoolVarP(&addRecursive, "recursive", "r", true, "recursively pin the object linked to by the specified object(s)")

	var rmRecursive bool
	rm := &cobra.Command{
		Use:   "rm <ipfs-path>",
		Short: "Remove a pinned object from local storage.",
		Args:  cobra.ExactArgs(1),
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, args []string) error {
			pins, err := api.Pin().Rm(ctx, args[0], rmRecursive)
			if err != nil {
				return err
			}
			for _, id := range pins {
				fmt.Fprintf(env.stdout, "unpinned %s\n", id)
			}
			return nil
		}),
	}
	rm.Flags().BoolVarP(&rmRecursive, "recursive", "r", true, "recursively unpin the object linked to by the specified object(s)")

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List objects pinned to local storage.",
		Args:  cobra.NoArgs,
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, _ []string) error {
			pins, err := api.Pin().Ls(ctx)
			if err != nil {
				return err
			}
			for _, p := range pins {
				fmt.Fprintf(env.stdout, "%s %s\n", p.Cid, p.RawKind)
			}
			return nil
		}),
	}

	cmd.AddCommand(add, rm, ls)
	return cmd
}
