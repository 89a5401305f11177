package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/ipfs-shipyard/ipfsapi/misc/fsutil"
	"github.com/ipfs/boxo/tar"
	"github.com/spf13/cobra"
)

func newGetCmd(env *cmdEnv) *cobra.Command {
	var (
		output  string
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "get <ipfs-path>",
		Short: "Download ipfs objects.",
		Long: `ipfsapi get <ipfs-path> - Download ipfs objects.

    Stores the object named by <ipfs-path> on disk, under its identifier
    unless -o is given. With --archive the daemon's tar stream is saved
    as is instead of being extracted.
`,
		Args: cobra.ExactArgs(1),
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, args []string) error {
			outPath := output
			if outPath == "" {
				outPath = path.Base(strings.TrimRight(args[0], "/"))
			}
			if err := fsutil.DirWritable(filepath.Dir(outPath)); err != nil {
				return err
			}

			rc, err := api.Unixfs().GetStream(ctx, args[0])
			if err != nil {
				return err
			}
			defer rc.Close()

			gw := getWriter{env: env, Archive: archive}
			return gw.Write(rc, outPath)
		}),
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "path where the output should be stored")
	cmd.Flags().BoolVarP(&archive, "archive", "a", false, "save the tar archive instead of extracting it")
	return cmd
}

type getWriter struct {
	env *cmdEnv

	Archive bool
}

func (gw *getWriter) Write(r io.Reader, fpath string) error {
	counted := &countingReader{r: r}
	var err error
	if gw.Archive {
		fpath, err = gw.writeArchive(counted, fpath)
	} else {
		err = gw.writeExtracted(counted, fpath)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(gw.env.stdout, "Saved %s to %s\n", humanize.Bytes(counted.n), fpath)
	return nil
}

func (gw *getWriter) writeArchive(r io.Reader, fpath string) (string, error) {
	if !strings.HasSuffix(fpath, ".tar") {
		fpath += ".tar"
	}

	file, err := os.Create(fpath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	fmt.Fprintf(gw.env.stderr, "Saving archive to %s\n", fpath)
	br, finish := gw.env.progressReader(r, 0)
	defer finish()

	if _, err := io.Copy(file, br); err != nil {
		return "", err
	}
	return fpath, file.Close()
}

func (gw *getWriter) writeExtracted(r io.Reader, fpath string) error {
	fmt.Fprintf(gw.env.stderr, "Saving file(s) to %s\n", fpath)
	br, finish := gw.env.progressReader(r, 0)
	defer finish()

	extractor := &tar.Extractor{Path: fpath}
	return extractor.Extract(br)
}

type countingReader struct {
	r io.Reader
	n uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)
	return n, err
}
