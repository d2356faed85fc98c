package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Component string `yaml:"component"`
	Source    bool   `yaml:"source"`
}

// DiscoveryConfig bounds what a single discovery request may ask for.
type DiscoveryConfig struct {
	DefaultLimit    int     `yaml:"default_limit"`
	MaxLimit        int     `yaml:"max_limit"`
	MinRadiusKm     float64 `yaml:"min_radius_km"`
	MaxRadiusKm     float64 `yaml:"max_radius_km"`
	DefaultRadiusKm float64 `yaml:"default_radius_km"`
	OverFetchFactor int     `yaml:"over_fetch_factor"`
}

type Config struct {
	App struct {
		ENV string `yaml:"env"`
	} `yaml:"app"`

	Log LogConfig `yaml:"log"`

	DB struct {
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"db"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	GRPC struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"grpc"`

	HTTP struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"http"`

	Discovery DiscoveryConfig `yaml:"discovery"`

	Likes struct {
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"likes"`

	Geo struct {
		Key string `yaml:"key"`
	} `yaml:"geo"`

	Notify struct {
		Channel string `yaml:"channel"`
	} `yaml:"notify"`
}

// New builds the configuration from CONFIG_FILE (optional YAML) and the
// environment. Environment variables win over file values.
func New() *Config {
	cfg := &Config{}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			// env defaults below still produce a usable config
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}

	cfg.App.ENV = getEnvDefault("APP_ENV", orDefault(cfg.App.ENV, "production"))

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", orDefault(cfg.Log.Level, "info"))
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", orDefault(cfg.Log.Format, "text"))
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", orDefault(cfg.Log.Component, "matching"))
	if v, ok := os.LookupEnv("LOG_SOURCE"); ok {
		cfg.Log.Source = isTruthy(v)
	}

	// Database
	cfg.DB.DSN = getEnvDefault("MYSQL_DSN", cfg.DB.DSN)
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", orDefault(cfg.DB.Host, "localhost"))
		cfg.DB.Port = getEnvDefault("DB_PORT", orDefault(cfg.DB.Port, "3306"))
		cfg.DB.User = getEnvDefault("DB_USER", orDefault(cfg.DB.User, "root"))
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", orDefault(cfg.DB.Password, "root"))
		cfg.DB.Name = getEnvDefault("DB_NAME", orDefault(cfg.DB.Name, "tripmate"))

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", orDefault(cfg.Redis.Addr, "localhost:6379"))
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", orDefault(cfg.GRPC.Host, "127.0.0.1"))
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", orDefault(cfg.GRPC.Port, "50051"))

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", orDefault(cfg.HTTP.Host, "127.0.0.1"))
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", orDefault(cfg.HTTP.Port, "8080"))

	// Discovery
	d := &cfg.Discovery
	d.DefaultLimit = getEnvInt("DISCOVERY_DEFAULT_LIMIT", orDefaultInt(d.DefaultLimit, 20))
	d.MaxLimit = getEnvInt("DISCOVERY_MAX_LIMIT", orDefaultInt(d.MaxLimit, 100))
	d.MinRadiusKm = getEnvFloat("DISCOVERY_MIN_RADIUS_KM", orDefaultFloat(d.MinRadiusKm, 5))
	d.MaxRadiusKm = getEnvFloat("DISCOVERY_MAX_RADIUS_KM", orDefaultFloat(d.MaxRadiusKm, 200))
	d.DefaultRadiusKm = getEnvFloat("DISCOVERY_DEFAULT_RADIUS_KM", orDefaultFloat(d.DefaultRadiusKm, 50))
	d.OverFetchFactor = getEnvInt("DISCOVERY_OVER_FETCH_FACTOR", orDefaultInt(d.OverFetchFactor, 4))

	// Likes
	if cfg.Likes.CacheTTL <= 0 {
		cfg.Likes.CacheTTL = time.Hour
	}
	if v := strings.TrimSpace(os.Getenv("LIKES_CACHE_TTL")); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil && ttl > 0 {
			cfg.Likes.CacheTTL = ttl
		}
	}

	cfg.Geo.Key = getEnvDefault("GEO_KEY", orDefault(cfg.Geo.Key, "geo:users"))
	cfg.Notify.Channel = getEnvDefault("NOTIFY_CHANNEL", orDefault(cfg.Notify.Channel, "notify:events"))

	return cfg
}

// LoadFile overlays values from a YAML file onto cfg.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
