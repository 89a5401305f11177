package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/spf13/cobra"
)

func newBlockCmd(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "get/put **raw** ipfs blocks",
		Long: `ipfsapi block (get|put) - get/put **raw** ipfs blocks.

    ipfsapi block get <key> > valfile    - get block of <key> and write it to valfile
    ipfsapi block put < valfile          - saves the contents of valfile and returns its <key>
`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "put [<path> | -]",
		Short: "put a raw ipfs block",
		Args:  cobra.MaximumNArgs(1),
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			in, size, err := env.openInput(name)
			if err != nil {
				return err
			}
			defer in.Close()

			r, finish := env.progressReader(in, size)
			id, err := api.Block().PutReader(ctx, r)
			finish()
			if err != nil {
				return err
			}
			fmt.Fprintln(env.stdout, id)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "get a raw ipfs block",
		Args:  cobra.ExactArgs(1),
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, args []string) error {
			rc, err := api.Block().GetStream(ctx, args[0])
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = io.Copy(env.stdout, rc)
			return err
		}),
	})

	return cmd
}
