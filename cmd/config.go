package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config holds defaults read from officecrypt.yaml and OFFICECRYPT_*
// environment variables. Command line flags take precedence.
type Config struct {
	Format    string `mapstructure:"format"`
	Cipher    string `mapstructure:"cipher"`
	Hash      string `mapstructure:"hash"`
	SpinCount int    `mapstructure:"spin_count"`
	Password  string `mapstructure:"password"`
	Output    string `mapstructure:"output"`
}

// LoadConfig loads configuration using Viper. An explicit path must exist;
// otherwise a missing config file means defaults.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("officecrypt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.officecrypt")
		v.AddConfigPath("/etc/officecrypt")
	}

	// Set defaults
	v.SetDefault("format", "agile")
	v.SetDefault("cipher", "")
	v.SetDefault("hash", "")
	v.SetDefault("spin_count", 0)
	v.SetDefault("password", "")
	v.SetDefault("output", "table")

	// Allow environment variables
	v.SetEnvPrefix("OFFICECRYPT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}
