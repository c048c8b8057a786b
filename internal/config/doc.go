// Package config loads and validates standin's TOML configuration.
//
// Load resolves the config path (explicit flag, ~/.config/standin/config.toml,
// or a project-local standin.toml), decodes it over the defaults, expands ~ in
// path fields, and validates enums and ranges. The embedded sample_config.toml
// backs "standin config init".
package config
