package config

// Init returns the default client config. The API address is left empty so
// the daemon's own api file is consulted first.
func Init() *Config {
	return &Config{
		API: API{
			HTTPHeaders: map[string][]string{},
			Timeout:     NewOptionalDuration(DefaultAPITimeout),
		},
	}
}
