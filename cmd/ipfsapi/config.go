package main

import (
	"fmt"

	"github.com/ipfs-shipyard/ipfsapi/config"
	"github.com/ipfs-shipyard/ipfsapi/config/serialize"
	"github.com/ipfs-shipyard/ipfsapi/misc/fsutil"
	"github.com/spf13/cobra"
)

func newConfigCmd(env *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the client config file.",
		Long: `ipfsapi config (show|init) - manage the client config file.

    ipfsapi config show         - print the config in effect, --api and
                                  $IPFS_API applied
    ipfsapi config init         - write a default config file

    The file is $IPFS_PATH/ipfsapi.json unless --config says otherwise.
`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the config in effect, with the daemon address resolved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			repoRoot, err := config.PathRoot()
			if err != nil {
				return err
			}
			addr, err := resolveEndpoint(env.apiAddr, cfg, repoRoot)
			if err != nil {
				return err
			}

			effective, err := cfg.Clone()
			if err != nil {
				return err
			}
			effective.API.Address = addr
			out, err := config.HumanOutput(effective)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.stdout, string(out))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filename, err := env.configFilename()
			if err != nil {
				return err
			}
			if fsutil.FileExists(filename) && !force {
				return fmt.Errorf("config file %s already exists, use --force to overwrite", filename)
			}
			if err := serialize.WriteConfigFile(filename, config.Init()); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Fprintf(env.stdout, "wrote %s\n", filename)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")

	cmd.AddCommand(initCmd)
	return cmd
}
