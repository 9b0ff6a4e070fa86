// Package config loads, normalizes, and validates reelcut configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads an optional .env file, decodes TOML, and honours
// environment fallbacks such as OPENROUTER_API_KEY and HF_TOKEN. The Config
// type centralizes every knob the CLI and processing pipeline need.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
