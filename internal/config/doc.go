// Package config loads the bot's JSON configuration file. Secrets are never
// written to the file itself; fields ending in _env name the environment
// variable that carries the value.
package config
