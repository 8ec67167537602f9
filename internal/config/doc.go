// Package config loads and validates the pricefeed YAML configuration.
//
// Config files may reference environment variables with ${VAR} syntax;
// they are expanded before parsing. Defaults cover everything except the
// primary source URL and, when history is enabled, the database credentials.
package config
