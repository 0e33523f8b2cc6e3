package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is looked up in the working directory when no --config is given.
const ConfigFileName = "cardbook.yaml"

const envPrefix = "CARDBOOK_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Data     DataConfig     `koanf:"data"`
	Table    TableConfig    `koanf:"table"`
	Geocoder GeocoderConfig `koanf:"geocoder"`
	Session  SessionConfig  `koanf:"session"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type DataConfig struct {
	Path string `koanf:"path"`
}

type TableConfig struct {
	PageSize int `koanf:"page_size"`
}

type GeocoderConfig struct {
	BaseURL   string        `koanf:"base_url"`
	UserAgent string        `koanf:"user_agent"`
	RPS       float64       `koanf:"rps"`
	Timeout   time.Duration `koanf:"timeout"`
	CacheSize int           `koanf:"cache_size"`
}

type SessionConfig struct {
	Secret string `koanf:"secret"`
	Secure bool   `koanf:"secure"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.addr":         ":8080",
		"data.path":           "contacts.csv",
		"table.page_size":     10,
		"geocoder.base_url":   "https://nominatim.openstreetmap.org",
		"geocoder.user_agent": "cardbook/1.0",
		"geocoder.rps":        1.0,
		"geocoder.timeout":    "5s",
		"geocoder.cache_size": 1024,
		"session.secret":      "cardbook-demo-secret-change-me!!",
		"session.secure":      false,
		"log.level":           "info",
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"addr":         "server.addr",
	"data":         "data.path",
	"page-size":    "table.page_size",
	"geocoder-url": "geocoder.base_url",
	"geocoder-rps": "geocoder.rps",
	"log-level":    "log.level",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default ./"+ConfigFileName+" if present)")
	fs.String("addr", ":8080", "listen address")
	fs.String("data", "contacts.csv", "contacts file (.csv or .json)")
	fs.Int("page-size", 10, "rows per table page")
	fs.String("geocoder-url", "https://nominatim.openstreetmap.org", "geocoding API base URL")
	fs.Float64("geocoder-rps", 1, "geocoding requests per second")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

// Load merges defaults < config file < CARDBOOK_* env < explicitly set flags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	path := ""
	if fs != nil {
		path, _ = fs.GetString("config")
	}
	explicit := path != ""
	if !explicit {
		path = ConfigFileName
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	// 3. Environment: CARDBOOK_GEOCODER_BASE_URL -> geocoder.base_url
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only when set
	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Table.PageSize < 1 {
		return fmt.Errorf("table.page_size must be positive, got %d", c.Table.PageSize)
	}
	if c.Geocoder.RPS <= 0 {
		return fmt.Errorf("geocoder.rps must be positive, got %v", c.Geocoder.RPS)
	}
	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("session.secret must be at least 16 bytes")
	}
	return nil
}
