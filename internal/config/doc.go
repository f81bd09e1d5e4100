// Package config loads spotter's TOML configuration.
//
// # Discovery
//
// Load resolves the path in this order:
//
//  1. An explicit path (the --config flag)
//  2. ~/.config/spotter/config.toml
//
// A missing file is not an error; every field has a default.
//
// # Fields
//
//	api_url            = "127.0.0.1:8080"       # host:port or full URL
//	token              = ""                     # bearer token, optional
//	workout_id         = 0                      # 0 means "pass --workout"
//	state_backend      = "file"                 # file | sqlite | memory
//	state_path         = "~/.local/share/spotter/state.toml"
//	log_path           = "~/.local/share/spotter/spotter.log"
//	log_level          = "info"                 # debug | info | warn | error
//	sample_interval_ms = 500                    # rest timer sampling
//	poll_seconds       = 5                      # workout overview refresh
//
// state_path defaults to state.db when the sqlite backend is selected. The
// memory backend keeps the rest countdown only for the lifetime of the
// process.
//
// # Path Expansion
//
// Tilde paths are expanded to the home directory and relative paths are
// made absolute. ExpandPath is exported for the CLI, which expands flag
// values the same way.
//
// # Errors
//
// Load fails on unreadable files, invalid TOML, an unknown state_backend or
// log_level, and a negative workout_id. Empty or non-positive values fall
// back to defaults.
package config
