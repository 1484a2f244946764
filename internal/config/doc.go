// Package config loads, normalizes, and validates srtgram configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, picks up a .env file, and honours
// environment fallbacks such as OPENROUTER_API_KEY. The Config type
// centralizes every knob the pipeline and CLI need so output, data, and log
// directories and LLM credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
