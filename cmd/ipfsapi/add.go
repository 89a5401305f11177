package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb"
	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/spf13/cobra"
)

func newAddCmd(env *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "add [<path> | -]",
		Short: "Add a file to ipfs.",
		Long: `ipfsapi add <path> - Add a file to ipfs.

    Adds the contents of <path>, or of stdin when <path> is "-" or missing,
    and prints the identifier of the resulting object. The daemon pins
    what it adds.
`,
		Args: cobra.MaximumNArgs(1),
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
			id, err := api.Unixfs().AddReader(ctx, r)
			finish()
			if err != nil {
				return err
			}

			if name == "-" {
				fmt.Fprintf(env.stdout, "added %s\n", id)
			} else {
				fmt.Fprintf(env.stdout, "added %s %s\n", id, filepath.Base(name))
			}
			return nil
		}),
	}
}

// openInput opens a file argument, with "-" standing for stdin. The size is
// 0 when unknown.
func (env *cmdEnv) openInput(name string) (io.ReadCloser, int64, error) {
	if name == "-" {
		return io.NopCloser(env.stdin), 0, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, 0, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%s is a directory, only files can be added", name)
	}
	return f, fi.Size(), nil
}

// progressReader draws a progress bar on stderr while r is consumed, when
// --progress is set. finish must be called once reading is over.
func (env *cmdEnv) progressReader(r io.Reader, size int64) (io.Reader, func()) {
	if !env.progress {
		return r, func() {}
	}
	bar := pb.New64(size).SetUnits(pb.U_BYTES)
	bar.Output = env.stderr
	bar.Start()
	return bar.NewProxyReader(r), bar.Finish
}
