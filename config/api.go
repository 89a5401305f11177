package config

import "time"

const (
	// DefaultAPIAddress is used when neither the config, the environment
	// nor the repo's api file name a daemon.
	DefaultAPIAddress = "/ip4/127.0.0.1/tcp/5001"

	DefaultAPITimeout = 2 * time.Minute
)

// API describes how the client reaches the daemon.
type API struct {
	// Address is either a multiaddr (/ip4/127.0.0.1/tcp/5001) or a URL
	// (http://127.0.0.1:5001). Empty means "look at $IPFS_PATH/api".
	Address string `json:",omitempty"`

	// HTTPHeaders are sent with every RPC request.
	HTTPHeaders map[string][]string `json:",omitempty"`

	// Timeout bounds a whole CLI invocation.
	Timeout *OptionalDuration `json:",omitempty"`

	DisableKeepAlives Flag `json:",omitempty"`
}

// Metrics toggles the prometheus instrumentation of the RPC transport.
type Metrics struct {
	Enabled Flag `json:",omitempty"`
}
