package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"tictacchec/internal/bot"
)

type GameConfig struct {
	// Search settings for bot opponents.
	SearchPlies     int  `json:"search_plies"`
	SearchDeepening bool `json:"search_deepening"`
	SearchCacheSize int  `json:"search_cache_size"`

	ListenAddr     string   `json:"listen_addr"`
	AllowedOrigins []string `json:"allowed_origins"`

	// SessionSecret enables signed session tokens when set.
	SessionSecret     string `json:"session_secret"`
	SessionIssuer     string `json:"session_issuer"`
	SessionTTLSeconds int    `json:"session_ttl_seconds"`

	MessagesPerSecond   float64 `json:"messages_per_second"`
	MessageBurst        int     `json:"message_burst"`
	PingIntervalSeconds int     `json:"ping_interval_seconds"`

	BotsEnabled bool `json:"bots_enabled"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before adding a bot to a solo human match.
	BotAutoFillDelaySeconds int    `json:"bot_auto_fill_delay_seconds"`
	BotIdentitiesPath       string `json:"bot_identities_path"`
}

// Default returns the configuration used when no file or override is given.
func Default() GameConfig {
	return GameConfig{
		SearchPlies:             bot.DefaultPlies,
		SearchDeepening:         true,
		SearchCacheSize:         bot.DefaultCacheSize,
		ListenAddr:              ":8080",
		AllowedOrigins:          []string{"http://localhost:5173"},
		SessionIssuer:           "tictacchec",
		SessionTTLSeconds:       3600,
		MessagesPerSecond:       10,
		MessageBurst:            20,
		PingIntervalSeconds:     25,
		BotAutoFillDelaySeconds: 5,
		BotIdentitiesPath:       "data/bot_identities.json",
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the global game configuration from path once. An
// empty path keeps the defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := Load(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults if
// none was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}

// Load reads a JSON config file over the defaults and validates it.
func Load(path string) (GameConfig, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read game config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	return c, c.Validate()
}

// Environment variables read by ApplyEnv.
const (
	EnvListenAddr        = "TTC_LISTEN_ADDR"
	EnvAllowedOrigins    = "TTC_ALLOWED_ORIGINS"
	EnvSessionSecret     = "TTC_SESSION_SECRET"
	EnvSessionTTL        = "TTC_SESSION_TTL_SEC"
	EnvSearchPlies       = "TTC_SEARCH_PLIES"
	EnvSearchDeepening   = "TTC_SEARCH_DEEPENING"
	EnvMessagesPerSecond = "TTC_MESSAGES_PER_SEC"
	EnvPingInterval      = "TTC_PING_INTERVAL_SEC"
)

// ApplyEnv overrides fields from environment values found through lookup
// (os.LookupEnv in production) and revalidates.
func (c *GameConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.ListenAddr = v
	}
	if v, ok := lookup(EnvAllowedOrigins); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup(EnvSessionSecret); ok {
		c.SessionSecret = v
	}

	var errs []error
	intVar := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	intVar(EnvSessionTTL, &c.SessionTTLSeconds)
	intVar(EnvSearchPlies, &c.SearchPlies)
	intVar(EnvPingInterval, &c.PingIntervalSeconds)

	if v, ok := lookup(EnvSearchDeepening); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvSearchDeepening, err))
		} else {
			c.SearchDeepening = b
		}
	}
	if v, ok := lookup(EnvMessagesPerSecond); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMessagesPerSecond, err))
		} else {
			c.MessagesPerSecond = f
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks ranges of every setting.
func (c GameConfig) Validate() error {
	var errs []error
	if c.SearchPlies < 1 || c.SearchPlies > bot.MaxPlies {
		errs = append(errs, fmt.Errorf("search_plies must be in [1, %d], got %d", bot.MaxPlies, c.SearchPlies))
	}
	if c.SearchCacheSize < 0 {
		errs = append(errs, fmt.Errorf("search_cache_size must not be negative"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("listen_addr is required"))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, fmt.Errorf("allowed_origins must name at least one origin"))
	}
	if c.SessionTTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl_seconds must be positive"))
	}
	if c.MessagesPerSecond <= 0 || c.MessageBurst < 1 {
		errs = append(errs, fmt.Errorf("messages_per_second and message_burst must be positive"))
	}
	if c.PingIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("ping_interval_seconds must be positive"))
	}
	if c.BotAutoFillDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("bot_auto_fill_delay_seconds must not be negative"))
	}
	return errors.Join(errs...)
}

func (c GameConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c GameConfig) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalSeconds) * time.Second
}

func (c GameConfig) BotAutoFillDelay() time.Duration {
	return time.Duration(c.BotAutoFillDelaySeconds) * time.Second
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
