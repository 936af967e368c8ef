package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	WebsocketPath = "/ws/game"
	RoomsPath     = "/api/rooms"
)

// Config covers both binaries. Values come from defaults, then the optional
// YAML file named by PROMPTPARTY_CONFIG, then the environment.
type Config struct {
	ServerURL     string        `yaml:"game_server_url"`
	LogLevel      string        `yaml:"log_level"`
	LogFormat     string        `yaml:"log_format"`
	MetricsAddr   string        `yaml:"metrics_addr"`
	MaxFrameBytes int64         `yaml:"max_frame_bytes"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	OutboxSize    int           `yaml:"outbox_size"`

	// dev server
	ServerAddr     string        `yaml:"server_addr"`
	RoundDuration  time.Duration `yaml:"round_duration"`
	PostRoundDelay time.Duration `yaml:"post_round_delay"`
	TotalRounds    int           `yaml:"total_rounds"`
	MaxPlayers     int           `yaml:"max_players"`
	// Extra websocket Origin hosts to accept, e.g. "localhost:*".
	OriginPatterns []string `yaml:"origin_patterns"`
}

func Default() Config {
	return Config{
		ServerURL:      "http://localhost:8000",
		LogLevel:       "info",
		LogFormat:      "console",
		MaxFrameBytes:  8 << 20,
		WriteTimeout:   3 * time.Second,
		OutboxSize:     16,
		ServerAddr:     ":8000",
		RoundDuration:  30 * time.Second,
		PostRoundDelay: 10 * time.Second,
		TotalRounds:    10,
		MaxPlayers:     12,
	}
}

// Load reads .env if present, then the YAML file and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("PROMPTPARTY_CONFIG"); ok && path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	var errs error
	str := func(key string, into *string) {
		if v, ok := lookup(key); ok && v != "" {
			*into = v
		}
	}
	integer := func(key string, into *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*into = n
	}
	duration := func(key string, into *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*into = d
	}

	str("GAME_SERVER_URL", &cfg.ServerURL)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("METRICS_ADDR", &cfg.MetricsAddr)
	if v, ok := lookup("MAX_FRAME_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("MAX_FRAME_BYTES: %w", err))
		} else {
			cfg.MaxFrameBytes = n
		}
	}
	duration("WRITE_TIMEOUT", &cfg.WriteTimeout)
	integer("OUTBOX_SIZE", &cfg.OutboxSize)

	str("SERVER_ADDR", &cfg.ServerAddr)
	duration("ROUND_DURATION", &cfg.RoundDuration)
	duration("POST_ROUND_DELAY", &cfg.PostRoundDelay)
	integer("TOTAL_ROUNDS", &cfg.TotalRounds)
	integer("MAX_PLAYERS", &cfg.MaxPlayers)
	if v, ok := lookup("ORIGIN_PATTERNS"); ok && v != "" {
		cfg.OriginPatterns = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.OriginPatterns = append(cfg.OriginPatterns, p)
			}
		}
	}

	if errs != nil {
		return Config{}, errs
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs error
	if _, err := c.baseURL(); err != nil {
		errs = multierr.Append(errs, err)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log format %q: want json or console", c.LogFormat))
	}
	if c.MaxFrameBytes <= 0 {
		errs = multierr.Append(errs, errors.New("max frame bytes must be positive"))
	}
	if c.WriteTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("write timeout must be positive"))
	}
	if c.OutboxSize <= 0 {
		errs = multierr.Append(errs, errors.New("outbox size must be positive"))
	}
	if c.RoundDuration < time.Second {
		errs = multierr.Append(errs, errors.New("round duration must be at least 1s"))
	}
	if c.PostRoundDelay < 0 {
		errs = multierr.Append(errs, errors.New("post round delay must not be negative"))
	}
	if c.TotalRounds <= 0 {
		errs = multierr.Append(errs, errors.New("total rounds must be positive"))
	}
	if c.MaxPlayers <= 0 {
		errs = multierr.Append(errs, errors.New("max players must be positive"))
	}
	return errs
}

func (c Config) baseURL() (*url.URL, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("game server url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("game server url %q: unsupported scheme", c.ServerURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("game server url %q: missing host", c.ServerURL)
	}
	return u, nil
}

// WebsocketURL is the game endpoint: http becomes ws, https becomes wss.
func (c Config) WebsocketURL() string {
	u, err := c.baseURL()
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + WebsocketPath
	return u.String()
}

// RoomsURL is the room bootstrap endpoint.
func (c Config) RoomsURL() string {
	u, err := c.baseURL()
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + RoomsPath
	return u.String()
}
