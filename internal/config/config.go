package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	Call   CallConfig   `mapstructure:"call"`
	Rate   RateConfig   `mapstructure:"rate"`
	Client ClientConfig `mapstructure:"client"`
}

// CallConfig holds the timing of the call coordinator.
type CallConfig struct {
	RingTimeout     time.Duration `mapstructure:"ring_timeout"`
	JoinGrace       time.Duration `mapstructure:"join_grace"`
	MaxParticipants int           `mapstructure:"max_participants"`
	CleanupTimeout  time.Duration `mapstructure:"cleanup_timeout"`
	InvitePolicy    string        `mapstructure:"invite_policy"`
}

// RateConfig limits invites per user on the relay.
type RateConfig struct {
	Invites  int           `mapstructure:"invites"`
	Interval time.Duration `mapstructure:"interval"`
}

type ClientConfig struct {
	RelayURL    string `mapstructure:"relay_url"`
	Token       string `mapstructure:"token"`
	UserID      string `mapstructure:"user_id"`
	DisplayName string `mapstructure:"display_name"`
	AvatarRef   string `mapstructure:"avatar_ref"`
}

var ErrInvalid = errors.New("invalid config")

// New returns a viper instance with defaults and DUET_* env overrides.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DUET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "dev-secret")
	v.SetDefault("log_level", "info")

	v.SetDefault("call.ring_timeout", "15s")
	v.SetDefault("call.join_grace", "15s")
	v.SetDefault("call.max_participants", 2)
	v.SetDefault("call.cleanup_timeout", "5s")
	v.SetDefault("call.invite_policy", "replace")

	v.SetDefault("rate.invites", 10)
	v.SetDefault("rate.interval", "1m")

	v.SetDefault("client.relay_url", "ws://localhost:8080/api/ws/signal")
	v.SetDefault("client.token", "")
	v.SetDefault("client.user_id", "")
	v.SetDefault("client.display_name", "")
	v.SetDefault("client.avatar_ref", "")
	return v
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(New(), fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName into v. A missing file is not an error.
func LoadFile(v *viper.Viper, fileName string) (*Config, error) {
	if fileName != "" {
		v.SetConfigFile(fileName)
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
		} else {
			log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Dur("ring_timeout", cfg.Call.RingTimeout).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Call.RingTimeout <= 0:
		return fmt.Errorf("%w: call.ring_timeout must be positive", ErrInvalid)
	case c.Call.JoinGrace < 0:
		return fmt.Errorf("%w: call.join_grace must not be negative", ErrInvalid)
	case c.Call.MaxParticipants < 1 || c.Call.MaxParticipants > 2:
		return fmt.Errorf("%w: call.max_participants must be 1 or 2", ErrInvalid)
	case c.Call.CleanupTimeout <= 0:
		return fmt.Errorf("%w: call.cleanup_timeout must be positive", ErrInvalid)
	}
	switch c.Call.InvitePolicy {
	case "replace", "reject":
	default:
		return fmt.Errorf("%w: call.invite_policy %q", ErrInvalid, c.Call.InvitePolicy)
	}
	return nil
}
