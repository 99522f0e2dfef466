package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type E6AIConfig struct {
	BaseURL   string `yaml:"base_url"`
	Username  string `yaml:"username"`
	APIKey    string `yaml:"api_key"`
	BotUserID int64  `yaml:"bot_user_id"`
	UserAgent string `yaml:"user_agent"`
}

// Configured reports whether the credential triple needed for dmail
// polling is present. Absence degrades the poller to a no-op.
func (c E6AIConfig) Configured() bool {
	return c.Username != "" && c.APIKey != "" && c.BotUserID != 0
}

type OwnerConfig struct {
	UserID int64 `yaml:"user_id"`
}

type ModerationConfig struct {
	ChannelID string `yaml:"channel_id"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type AdminConfig struct {
	PasswordHash string `yaml:"password_hash"`
	JWTSecret    string `yaml:"jwt_secret"`
}

// Duration decodes "15s"-style strings from yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	dur, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(dur)
	return nil
}

type PollConfig struct {
	Interval Duration `yaml:"interval"`
}

type Config struct {
	E6AI       E6AIConfig       `yaml:"e6ai"`
	Owner      OwnerConfig      `yaml:"owner"`
	Moderation ModerationConfig `yaml:"moderation"`
	MQ         MQConfig         `yaml:"mq"`
	Redis      RedisConfig      `yaml:"redis"`
	Server     ServerConfig     `yaml:"server"`
	Admin      AdminConfig      `yaml:"admin"`
	Poll       PollConfig       `yaml:"poll"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	applyDefaults(&cfg)
	OverrideFromEnv(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.E6AI.BaseURL == "" {
		cfg.E6AI.BaseURL = "https://e6ai.net"
	}
	if cfg.E6AI.UserAgent == "" {
		cfg.E6AI.UserAgent = "E6aiBot/1.0 (by Slop on e6AI)"
	}
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = Duration(15 * time.Second)
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
}

// OverrideFromEnv applies environment-variable overrides on top of the
// yaml file. Used directly in tests.
func OverrideFromEnv(cfg *Config) {
	if v := os.Getenv("E6AI_BASE_URL"); v != "" {
		cfg.E6AI.BaseURL = v
	}
	if v := os.Getenv("E6AI_USERNAME"); v != "" {
		cfg.E6AI.Username = v
	}
	if v := os.Getenv("E6AI_API_KEY"); v != "" {
		cfg.E6AI.APIKey = v
	}
	if v := os.Getenv("E6AI_BOT_USER_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.E6AI.BotUserID = id
		}
	}
	if v := os.Getenv("OWNER_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Owner.UserID = id
		}
	}
	if v := os.Getenv("MODERATION_CHANNEL_ID"); v != "" {
		cfg.Moderation.ChannelID = v
	}
	if v := os.Getenv("MQ_URL"); v != "" {
		cfg.MQ.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Admin.PasswordHash = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}
}
