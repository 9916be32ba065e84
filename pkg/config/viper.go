// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/linkvet/linkvet/internal/logging"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. This function is designed to be called
// once at application startup so that configuration is loaded and available
// to all other packages.
func InitConfig() {
	// --- Set Search Paths ---
	viper.SetConfigName("config")
	viper.AddConfigPath(".")              // Current working directory
	viper.AddConfigPath("/etc/linkvet/")  // System-wide configuration
	viper.AddConfigPath("$HOME/.linkvet") // User-specific configuration

	// --- Set Defaults ---
	// These are used if the values are not provided in a config file or via
	// environment variables.
	viper.SetDefault("linkvet.input", "README.md")
	viper.SetDefault("linkvet.results", "results.yaml")
	viper.SetDefault("linkvet.concurrency", 20)
	viper.SetDefault("linkvet.max_attempts", 5)
	viper.SetDefault("linkvet.request_timeout", "20s")
	// Some sites (e.g. sciter.com) reject default Go clients.
	viper.SetDefault("linkvet.user_agent", "curl/7.54.0")
	// Out-of-date certificates are common on the long tail of linked sites.
	viper.SetDefault("linkvet.insecure_skip_verify", true)
	viper.SetDefault("linkvet.rate_limit_per_host", 0.0)
	viper.SetDefault("linkvet.metrics_addr", "")

	// --- Environment Variables ---
	viper.SetEnvPrefix("LINKVET") // e.g., LINKVET_LINKVET_CONCURRENCY=40
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// --- Read Config File ---
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Not fatal; defaults and environment variables still apply.
			logging.L.Debug("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
