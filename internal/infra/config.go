package infra

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds the process-level bootstrap configuration. Tunables the user
// changes at runtime live in the settings store instead, this file only covers
// what has to be known before the store is open.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		PricesURL    string  `yaml:"prices_url"`
		OrdersURL    string  `yaml:"orders_url"`
		Currency     string  `yaml:"currency"`
		RateLimitRPS float64 `yaml:"rate_limit_rps"`
	} `yaml:"feed"`

	Icons struct {
		BaseURL  string `yaml:"base_url"`
		CacheDir string `yaml:"cache_dir"`
	} `yaml:"icons"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Notify struct {
		Telegram struct {
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"notify"`

	Refresh struct {
		ForcedIntervalMin int `yaml:"forced_interval_min"`
	} `yaml:"refresh"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Secrets can be supplied through the environment instead of the file
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity. Failures come back as ConfigError
// so callers can tell a bad file from a transient fault.
func (c *Config) Validate() error {
	if !hasPrefix(c.Feed.PricesURL, "http://") && !hasPrefix(c.Feed.PricesURL, "https://") {
		return &domain.ConfigError{Field: "feed.prices_url", Err: fmt.Errorf("not an http(s) URL: %q", c.Feed.PricesURL)}
	}
	if !hasPrefix(c.Feed.OrdersURL, "http://") && !hasPrefix(c.Feed.OrdersURL, "https://") {
		return &domain.ConfigError{Field: "feed.orders_url", Err: fmt.Errorf("not an http(s) URL: %q", c.Feed.OrdersURL)}
	}
	if c.Feed.Currency == "" {
		return &domain.ConfigError{Field: "feed.currency", Err: errors.New("required")}
	}
	if c.Feed.RateLimitRPS <= 0 {
		return &domain.ConfigError{Field: "feed.rate_limit_rps", Err: errors.New("must be positive")}
	}
	if c.Server.ListenAddr == "" {
		return &domain.ConfigError{Field: "server.listen_addr", Err: errors.New("required")}
	}
	if c.Refresh.ForcedIntervalMin <= 0 {
		return &domain.ConfigError{Field: "refresh.forced_interval_min", Err: errors.New("must be positive")}
	}
	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv replaces config values with environment variables when set.
func overrideWithEnv(cfg *Config) {
	if token := os.Getenv("ARB_TELEGRAM_TOKEN"); token != "" {
		cfg.Notify.Telegram.BotToken = token
	}
	if chat := os.Getenv("ARB_TELEGRAM_CHAT"); chat != "" {
		cfg.Notify.Telegram.ChatID = chat
	}
}
