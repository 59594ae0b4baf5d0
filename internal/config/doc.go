// Package config loads, normalizes, and validates Kinetic configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PINATA_JWT and WORLDCOIN_APP_ID. The Config type centralizes every knob the
// daemon and CLI need, from the API bind address to the chain contract
// addresses, so external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, lowercased contract addresses, and clear validation errors.
package config
