package main

import (
	"context"
	"io"

	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/spf13/cobra"
)

func newCatCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <ipfs-path>",
		Short: "Show ipfs object data.",
		Long: `ipfsapi cat <ipfs-path> - Show ipfs object data.

    Retrieves the file named by <ipfs-path> and writes its content to
    stdout.
`,
		Args: cobra.ExactArgs(1),
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, args []string) error {
			rc, err := api.Unixfs().CatStream(ctx, args[0])
			if err != nil {
				return err
			}
			defer rc.Close()

			r, finish := env.progressReader(rc, 0)
			defer finish()

			_, err = io.Copy(env.stdout, r)
			return err
		}),
	}
}
