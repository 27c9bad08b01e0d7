package main

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server settings. Precedence: flags > environment
// variables > config file > defaults.
type Config struct {
	Port     int    `yaml:"port"`
	DBPath   string `yaml:"db"`
	ShopName string `yaml:"shop_name"`
}

func defaultConfig() Config {
	return Config{
		Port:     9000,
		DBPath:   "motoshop.db",
		ShopName: "Motoshop",
	}
}

// loadConfig reads a YAML config file and overlays environment
// variables. A missing file is not an error; a malformed one is.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if v := os.Getenv("MOTOSHOP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}
	if v := os.Getenv("MOTOSHOP_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("MOTOSHOP_SHOP_NAME"); v != "" {
		cfg.ShopName = v
	}

	return cfg, nil
}
