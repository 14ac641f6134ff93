// Package config is the only place the engine's tunables (SNAPF, the
// index page size, the data directory, logging) are parsed from the
// outside world, so every other package can take a *Config and ignore
// where its values came from.
package config
