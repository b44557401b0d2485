package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultGuestUserID is the account used when no session is present.
const DefaultGuestUserID = "rhf9LyQ4r1UGZWtepzFENAjJQfo2"

// Config holds all configuration for the application.
type Config struct {
	Port                             string        `mapstructure:"PORT"`
	GinMode                          string        `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string        `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string        `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string        `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	FirebaseStorageBucket            string        `mapstructure:"FIREBASE_STORAGE_BUCKET"`
	FirebaseWebAPIKey                string        `mapstructure:"FIREBASE_WEB_API_KEY"`
	ClientURL                        string        `mapstructure:"CLIENT_URL"`
	GuestUserID                      string        `mapstructure:"GUEST_USER_ID"`
	FriendSuggestionCount            int           `mapstructure:"FRIEND_SUGGESTION_COUNT"`
	EncryptionKey                    string        `mapstructure:"ENCRYPTION_KEY"` // Base64 encoded, 32 bytes
	RedisAddr                        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword                    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB                          int           `mapstructure:"REDIS_DB"`
	UserCacheTTL                     time.Duration `mapstructure:"USER_CACHE_TTL"`
	AMQPURL                          string        `mapstructure:"AMQP_URL"`
	NotificationQueue                string        `mapstructure:"NOTIFICATION_QUEUE"`
	SMTPHost                         string        `mapstructure:"SMTP_HOST"`
	SMTPPort                         int           `mapstructure:"SMTP_PORT"`
	SMTPUser                         string        `mapstructure:"SMTP_USER"`
	SMTPPass                         string        `mapstructure:"SMTP_PASS"`
	MailFrom                         string        `mapstructure:"MAIL_FROM"`
	RateLimitRPS                     int           `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst                   int           `mapstructure:"RATE_LIMIT_BURST"`
	ChallengeWatchSchedule           string        `mapstructure:"CHALLENGE_WATCH_SCHEDULE"`
}

var keys = []string{
	"PORT",
	"GIN_MODE",
	"FIREBASE_PROJECT_ID",
	"GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"FIREBASE_STORAGE_BUCKET",
	"FIREBASE_WEB_API_KEY",
	"CLIENT_URL",
	"GUEST_USER_ID",
	"FRIEND_SUGGESTION_COUNT",
	"ENCRYPTION_KEY",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"USER_CACHE_TTL",
	"AMQP_URL",
	"NOTIFICATION_QUEUE",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_USER",
	"SMTP_PASS",
	"MAIL_FROM",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"CHALLENGE_WATCH_SCHEDULE",
}

// LoadConfig loads configuration from environment variables using Viper.
// When CONFIG_FILE is set, that file (any format Viper reads, typically YAML)
// is read first and environment variables override it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("GUEST_USER_ID", DefaultGuestUserID)
	v.SetDefault("FRIEND_SUGGESTION_COUNT", 10)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("USER_CACHE_TTL", "10m")
	v.SetDefault("NOTIFICATION_QUEUE", "strive.notifications")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("CHALLENGE_WATCH_SCHEDULE", "@every 1m")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.FriendSuggestionCount <= 0 {
		return errors.New("FRIEND_SUGGESTION_COUNT must be positive")
	}
	if c.EncryptionKey != "" {
		if _, err := c.EncryptionKeyBytes(); err != nil {
			return err
		}
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST cannot be negative")
	}
	return nil
}

// EncryptionKeyBytes decodes ENCRYPTION_KEY. It returns nil when no key is configured.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}
