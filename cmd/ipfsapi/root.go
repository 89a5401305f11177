package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	ipfsapi "github.com/ipfs-shipyard/ipfsapi"
	"github.com/ipfs-shipyard/ipfsapi/client/rpc"
	"github.com/ipfs-shipyard/ipfsapi/config"
	"github.com/ipfs-shipyard/ipfsapi/config/serialize"
	logging "github.com/ipfs/go-log/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// cmdEnv holds what every command needs: the standard streams, the global
// flags and the metrics registry requests are counted on.
type cmdEnv struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	apiAddr    string
	configFile string
	timeout    time.Duration
	logLevel   string
	progress   bool
	userAgent  string

	registry *prometheus.Registry
	cfg      *config.Config
}

func newRootCmd(env *cmdEnv) *cobra.Command {
	root := &cobra.Command{
		Use:   "ipfsapi",
		Short: "Talk to a running ipfs daemon over its RPC API.",
		Long: `ipfsapi <command> [<args>] - talk to a running ipfs daemon.

    The daemon is found through --api, then $IPFS_API, then API.Address in
    the client config file, then $IPFS_PATH/api, and finally
    /ip4/127.0.0.1/tcp/5001.
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: env.setup,
	}
	root.SetIn(env.stdin)
	root.SetOut(env.stdout)
	root.SetErr(env.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&env.apiAddr, "api", "", "daemon RPC address, as a multiaddr or URL")
	flags.StringVarP(&env.configFile, "config", "c", "", "path to the client config file")
	flags.DurationVar(&env.timeout, "timeout", 0, "limit for the whole command, 0 uses API.Timeout from the config")
	flags.StringVar(&env.logLevel, "log-level", "", "log level for all subsystems (debug, info, warn, error)")
	flags.BoolVar(&env.progress, "progress", false, "show a progress bar for transfers")
	flags.StringVar(&env.userAgent, "user-agent", "", "name appended to the User-Agent sent to the daemon")

	root.AddCommand(
		newAddCmd(env),
		newCatCmd(env),
		newGetCmd(env),
		newBlockCmd(env),
		newPinCmd(env),
		newNameCmd(env),
		newVersionCmd(env),
		newShutdownCmd(env),
		newConfigCmd(env),
	)
	return root
}

func (env *cmdEnv) setup(cmd *cobra.Command, _ []string) error {
	if env.logLevel != "" {
		if err := logging.SetLogLevel("*", env.logLevel); err != nil {
			return fmt.Errorf("setting log level: %w", err)
		}
	}
	if env.userAgent != "" {
		ipfsapi.SetUserAgentSuffix(env.userAgent)
	}
	return nil
}

// configFilename is where the client config lives for this invocation.
func (env *cmdEnv) configFilename() (string, error) {
	root, err := config.PathRoot()
	if err != nil {
		return "", err
	}
	return config.Filename(root, env.configFile)
}

// config loads the client config, falling back to defaults when none was
// written yet.
func (env *cmdEnv) config() (*config.Config, error) {
	if env.cfg != nil {
		return env.cfg, nil
	}

	filename, err := env.configFilename()
	if err != nil {
		return nil, err
	}
	cfg, err := serialize.Load(filename)
	switch {
	case errors.Is(err, serialize.ErrNotInitialized):
		log.Debugf("no config at %s, using defaults", filename)
		cfg = config.Init()
	case err != nil:
		return nil, err
	}
	env.cfg = cfg
	return cfg, nil
}

// api connects the handle every daemon command goes through.
func (env *cmdEnv) api() (*rpc.HttpApi, error) {
	cfg, err := env.config()
	if err != nil {
		return nil, err
	}
	repoRoot, err := config.PathRoot()
	if err != nil {
		return nil, err
	}
	addr, err := resolveEndpoint(env.apiAddr, cfg, repoRoot)
	if err != nil {
		return nil, err
	}
	log.Debugf("using daemon at %s", addr)
	return rpc.NewApiFromConfig(addr, cfg, env.registry)
}

// resolveEndpoint picks the daemon address by precedence: flag, environment,
// config file, api file, built-in default.
func resolveEndpoint(flagAddr string, cfg *config.Config, repoRoot string) (string, error) {
	if flagAddr != "" {
		return flagAddr, nil
	}
	if addr := os.Getenv(config.EnvAPI); addr != "" {
		return addr, nil
	}
	if cfg.API.Address != "" {
		return cfg.API.Address, nil
	}

	a, err := rpc.ApiAddr(repoRoot)
	switch {
	case err == nil:
		return a.String(), nil
	case os.IsNotExist(err):
		return config.DefaultAPIAddress, nil
	default:
		return "", err
	}
}

// context bounds a command by --timeout, or API.Timeout when the flag is
// not given.
func (env *cmdEnv) context(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := env.timeout
	if timeout == 0 {
		if cfg, err := env.config(); err == nil {
			timeout = cfg.API.Timeout.WithDefault(config.DefaultAPITimeout)
		}
	}
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// daemonCmd wraps a command body that talks to the daemon. When metrics are
// enabled the counters collected during the command are written to stderr.
func (env *cmdEnv) daemonCmd(run func(ctx context.Context, api *rpc.HttpApi, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		api, err := env.api()
		if err != nil {
			return err
		}
		ctx, cancel := env.context(cmd.Context())
		defer cancel()

		err = run(ctx, api, args)
		if env.cfg.Metrics.Enabled.WithDefault(false) {
			if merr := env.dumpMetrics(); merr != nil {
				log.Errorf("writing metrics: %s", merr)
			}
		}
		return err
	}
}

func (env *cmdEnv) dumpMetrics() error {
	mfs, err := env.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(env.stderr, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
