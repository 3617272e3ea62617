// Package config loads and validates clipforge configuration.
//
// Configuration lives in a TOML file (default ~/.config/clipforge/config.toml)
// and is resolved in three steps: Default() supplies repository defaults, the
// file overlays them, and normalize/Validate make the result usable (path
// expansion, blank-to-default fills, range checks). The embedded sample config
// documents every key and is what `clipforge config init` writes.
package config
