package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	CatalogCacheTTLSeconds int
	CartIdleMinutes        int
	CartSessionLimit       int
	LinkSecret             string
	CookieSecure           bool
}

// knownKeys are the settings read from the environment. A YAML file named by
// CONFIG_FILE may set the same keys in lower case; the environment wins.
var knownKeys = map[string]struct{}{
	"port":                      {},
	"allowed_origin":            {},
	"database_url":              {},
	"redis_addr":                {},
	"redis_password":            {},
	"redis_db":                  {},
	"catalog_cache_ttl_seconds": {},
	"cart_idle_minutes":         {},
	"cart_session_limit":        {},
	"link_secret":               {},
	"cookie_secure":             {},
}

func Load() (Config, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(key)
			if _, ok := knownKeys[key]; !ok || value == "" {
				return "", nil
			}
			return key, value
		},
	}), nil); err != nil {
		return Config{}, errors.Wrap(err, "load env variables")
	}

	cacheTTL := k.Int("catalog_cache_ttl_seconds")
	if cacheTTL < 1 {
		cacheTTL = 300
	}
	idle := k.Int("cart_idle_minutes")
	if idle < 1 {
		idle = 120
	}
	sessionLimit := k.Int("cart_session_limit")
	if sessionLimit < 1 {
		sessionLimit = 10000
	}

	return Config{
		Port:                   stringOr(k, "port", "8080"),
		AllowedOrigin:          stringOr(k, "allowed_origin", "http://127.0.0.1:3000"),
		DatabaseURL:            k.String("database_url"),
		RedisAddr:              k.String("redis_addr"),
		RedisPassword:          k.String("redis_password"),
		RedisDB:                k.Int("redis_db"),
		CatalogCacheTTLSeconds: cacheTTL,
		CartIdleMinutes:        idle,
		CartSessionLimit:       sessionLimit,
		LinkSecret:             strings.TrimSpace(k.String("link_secret")),
		CookieSecure:           k.Bool("cookie_secure"),
	}, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func stringOr(k *koanf.Koanf, key string, fallback string) string {
	if val := strings.TrimSpace(k.String(key)); val != "" {
		return val
	}
	return fallback
}
