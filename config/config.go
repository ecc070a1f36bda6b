package config

import (
	"fmt"
	"strings"

	"github.com/geolit/geolit/internal"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

var defaults = map[string]interface{}{
	"lookup.endpoint":        "https://fr.dbpedia.org/lookup/api/search",
	"lookup.timeout":         10,
	"lookup.retry_max":       2,
	"sparql.endpoint":        "https://fr.dbpedia.org/sparql",
	"sparql.timeout":         20,
	"sparql.retry_max":       2,
	"nlp.server_url":         "http://localhost:5557",
	"nlp.language":           "fr",
	"gallica.timeout":        30,
	"pipeline.workers":       4,
	"pipeline.h3_resolution": 5,
	"cache.type":             "memory",
	"cache.path":             "geolit_cache.db",
	"server.port":            8000,
	"log.level":              "info",
}

// LoadConfig loads the config file and ENV variables into a Config struct
func LoadConfig(configFile string) (*Config, error) {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GEOLIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, the defaults cover a full run.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Environment variables take precedence over config file
	loadDotEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Debug(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level based on the config file. Defaults to INFO if not set or invalid
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	log.Info("Log level set to: ", level)
}
