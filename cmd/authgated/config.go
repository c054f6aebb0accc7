package main

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

// fileConfig is the daemon's on-disk configuration. Flags override
// file values, file values override defaults.
type fileConfig struct {
	Listen string `koanf:"listen"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	// Store selects the credential backend: "memory" or "postgres".
	Store    string `koanf:"store"`
	Postgres struct {
		DSN string `koanf:"dsn"`
	} `koanf:"postgres"`

	JWT struct {
		SigningMethod string        `koanf:"signing_method"`
		Secret        string        `koanf:"secret"`
		PrivateKey    string        `koanf:"private_key"`
		PublicKey     string        `koanf:"public_key"`
		Issuer        string        `koanf:"issuer"`
		AccessTTL     time.Duration `koanf:"access_ttl"`
	} `koanf:"jwt"`

	// Mailer selects code delivery: "smtp" or "log".
	Mailer string `koanf:"mailer"`
	SMTP   struct {
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		Username string `koanf:"username"`
		Password string `koanf:"password"`
		From     string `koanf:"from"`
		Subject  string `koanf:"subject"`
	} `koanf:"smtp"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	Audit struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"audit"`
	Metrics struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"metrics"`
}

func defaultFileConfig() fileConfig {
	var cfg fileConfig
	cfg.Listen = ":8080"
	cfg.Redis.Addr = "127.0.0.1:6379"
	cfg.Store = "memory"
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.Issuer = "authgated"
	cfg.JWT.AccessTTL = 2 * time.Hour
	cfg.Mailer = "log"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	return cfg
}

// loadConfig merges defaults, the optional YAML file, and flags.
func loadConfig(flags *flag.FlagSet) (fileConfig, error) {
	cfg := defaultFileConfig()

	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return cfg, fmt.Errorf("load flags: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	switch cfg.Store {
	case "memory", "postgres":
	default:
		return cfg, fmt.Errorf("unknown store %q", cfg.Store)
	}
	switch cfg.Mailer {
	case "smtp", "log":
	default:
		return cfg, fmt.Errorf("unknown mailer %q", cfg.Mailer)
	}
	if cfg.Store == "postgres" && cfg.Postgres.DSN == "" {
		return cfg, fmt.Errorf("postgres store requires postgres.dsn")
	}

	return cfg, nil
}

func newFlagSet() *flag.FlagSet {
	defaults := defaultFileConfig()

	flags := flag.NewFlagSet("authgated", flag.ContinueOnError)
	flags.String("config", "", "path to YAML config file")
	flags.String("listen", defaults.Listen, "HTTP listen address")
	flags.String("redis.addr", defaults.Redis.Addr, "Redis address")
	flags.String("store", defaults.Store, "credential store: memory or postgres")
	flags.String("postgres.dsn", "", "PostgreSQL DSN")
	flags.String("mailer", defaults.Mailer, "code delivery: smtp or log")
	flags.String("log.level", defaults.Log.Level, "log level: debug, info, warn, error")
	flags.String("log.format", defaults.Log.Format, "log format: text or json")
	return flags
}
