package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Path string
	}
	Reports struct {
		OutputDir          string
		Timezone           string
		RetentionDays      int
		SweepIntervalHours int
	}
	Auth struct {
		JWTSecret     string
		TokenTTLHours int
	}
	Email struct {
		SMTPHost string
		SMTPPort int
		From     string
		Password string
	}
	Sources []SourceConfig
}

// SourceConfig describes one named report data source. Driver is
// "sqlite" or "postgres". At most one source should be marked Default;
// when none is, the metadata database doubles as the default source.
type SourceConfig struct {
	Name    string
	Driver  string
	DSN     string
	Default bool
}

// LoadConfig loads the configuration from config.yaml
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("database.path", "data/foundryerp.db")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("reports.outputdir", "data/reports")
	viper.SetDefault("reports.timezone", "Asia/Kolkata")
	viper.SetDefault("reports.retentiondays", 30)
	viper.SetDefault("reports.sweepintervalhours", 12)
	viper.SetDefault("auth.jwtsecret", "change-me-in-production")
	viper.SetDefault("auth.tokenttlhours", 24)
	viper.SetDefault("email.smtpport", 587)

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, write one with the defaults
			if err := os.MkdirAll("data", 0755); err != nil {
				fmt.Printf("Warning: Failed to create data directory: %v\n", err)
			}
			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Printf("Warning: Failed to write default config: %v\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	return &config
}
