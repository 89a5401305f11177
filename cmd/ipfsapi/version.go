package main

import (
	"context"
	"fmt"

	"github.com/blang/semver/v4"
	ipfsapi "github.com/ipfs-shipyard/ipfsapi"
	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/spf13/cobra"
)

func newVersionCmd(env *cmdEnv) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the daemon's version information.",
		Args:  cobra.NoArgs,
		RunE: env.daemonCmd(func(ctx context.Context, api *rpc.HttpApi, _ []string) error {
			info, err := api.Version(ctx)
			if err != nil {
				return err
			}
			if v, err := api.RemoteVersion(ctx); err != nil {
				log.Warnf("daemon reports unparsable version %q", info.Version)
			} else {
				warnIfTooOld(v)
			}

			if !all {
				fmt.Fprintf(env.stdout, "ipfs version %s\n", info.Version)
				return nil
			}
			fmt.Fprintf(env.stdout, "Daemon Version: %s\n", info.Version)
			fmt.Fprintf(env.stdout, "Daemon Commit: %s\n", info.Commit)
			fmt.Fprintf(env.stdout, "Repo Version: %s\n", info.Repo)
			fmt.Fprintf(env.stdout, "System Version: %s\n", info.System)
			fmt.Fprintf(env.stdout, "Golang version: %s\n", info.Golang)
			fmt.Fprintf(env.stdout, "Client Version: %s\n", ipfsapi.GetUserAgentVersion())
			return nil
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "show all version information")
	return cmd
}

var minimumDaemonVersion = semver.MustParse(ipfsapi.MinimumDaemonVersion)

// warnIfTooOld reports whether v predates the oldest supported daemon, and
// logs a warning when it does.
func warnIfTooOld(v *semver.Version) bool {
	if !v.LT(minimumDaemonVersion) {
		return false
	}
	log.Warnf("daemon version %s is older than %s, some commands may fail", v, ipfsapi.MinimumDaemonVersion)
	return true
}
