// Package config loads tool settings from an optional JSON file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads glimmer.cfg.json from configDir and sets default values for
// anything the file leaves out. A missing file is fine, a malformed one is
// not. Environment variables prefixed GLIMMER_ override both, with dots in
// key paths written as underscores.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "console")

	viper.SetDefault("archive.path", "./glimmer.db")

	viper.SetDefault("decode.mode", "bounded")
	viper.SetDefault("decode.strict", false)

	if configDir == "" {
		configDir = "."
	}
	viper.SetConfigName("glimmer.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	viper.SetEnvPrefix("GLIMMER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// LogLevel returns the zerolog level name.
func LogLevel() string {
	return viper.GetString("logLevel")
}

// LogFormat returns "console" or "json".
func LogFormat() string {
	return viper.GetString("logFormat")
}

// ArchivePath returns the archive database directory.
func ArchivePath() string {
	return viper.GetString("archive.path")
}

// DecodeMode returns the record boundary mode name.
func DecodeMode() string {
	return viper.GetString("decode.mode")
}

// DecodeStrict reports whether invalid opcodes abort decoding.
func DecodeStrict() bool {
	return viper.GetBool("decode.strict")
}
