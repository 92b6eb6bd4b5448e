// Package config loads typed configuration from environment variables,
// .env files and an optional YAML file.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11.
//
// Load parses a struct once per type and caches it for the lifetime of the
// process. Parse does the same work without the cache and accepts options
// for an env key prefix, extra .env files and a YAML file:
//
//	var cfg tracking.Config
//	err := config.Parse(&cfg,
//		config.WithPrefix("TRACKS_"),
//		config.WithYAMLFile("trackctl.yaml"),
//	)
//
// Precedence, lowest first: envDefault tags, the YAML file, environment
// variables. Variables already present in the process environment are never
// overridden by .env files.
//
// # Testing
//
// ResetCache clears cached configurations. WithEnvironment replaces the
// process environment for a single Parse call.
package config
