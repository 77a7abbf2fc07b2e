// Package config содержит логику чтения конфигурации магазина ключей.
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress  = "localhost:8080"
	defaultStorePath   = "database.json"
	defaultMaxQuantity = 10
)

// Config содержит параметры конфигурации магазина.
type Config struct {
	RunAddress   string   `env:"RUN_ADDRESS"`
	DatabaseURI  string   `env:"DATABASE_URI"`
	StorePath    string   `env:"STORE_PATH"`
	CatalogPath  string   `env:"CATALOG_PATH"`
	AuthSecret   string   `env:"AUTH_SECRET"`
	AdminUserIDs []string `env:"ADMIN_USER_IDS" envSeparator:","`
	MaxQuantity  int      `env:"MAX_PURCHASE_QUANTITY"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := Config{}
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}
	var admins string

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI (postgres://... or sqlite://path)")
	flag.StringVar(&cfg.StorePath, "f", defaultStorePath, "path to JSON store file, used when database URI is empty")
	flag.StringVar(&cfg.CatalogPath, "c", "", "path to YAML product catalog, embedded catalog when empty")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing user tokens")
	flag.StringVar(&admins, "admins", "", "comma separated admin user ids")
	flag.IntVar(&cfg.MaxQuantity, "q", defaultMaxQuantity, "max keys per purchase")

	flag.Parse()

	cfg.AdminUserIDs = splitIDs(admins)

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.StorePath != "" {
		cfg.StorePath = envCfg.StorePath
	}
	if envCfg.CatalogPath != "" {
		cfg.CatalogPath = envCfg.CatalogPath
	}
	if envCfg.AuthSecret != "" {
		cfg.AuthSecret = envCfg.AuthSecret
	}
	if len(envCfg.AdminUserIDs) > 0 {
		cfg.AdminUserIDs = splitIDs(strings.Join(envCfg.AdminUserIDs, ","))
	}
	if envCfg.MaxQuantity != 0 {
		cfg.MaxQuantity = envCfg.MaxQuantity
	}

	cfg.applyDefaults()

	return cfg, nil
}

// ParseEnv считывает конфигурацию только из переменных окружения. Используется CLI,
// у которого свои флаги.
func ParseEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.AdminUserIDs = splitIDs(strings.Join(cfg.AdminUserIDs, ","))
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RunAddress == "" {
		c.RunAddress = defaultRunAddress
	}
	if c.StorePath == "" {
		c.StorePath = defaultStorePath
	}
	if c.MaxQuantity <= 0 {
		c.MaxQuantity = defaultMaxQuantity
	}
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
