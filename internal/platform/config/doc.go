// Package config provides environment-based configuration.
//
// Loads from .env file (godotenv), maps to Config struct via go-simpler/env struct tags.
// Only the store address, listen port, logging and optional event sink are configurable.
package config
