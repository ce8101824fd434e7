package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	AppPublicURL   string
	CORSOrigins    string
	DatabaseURL    string
	AutoMigrate    bool
	RedisURL       string
	NATSURL        string
	JWTSecret      string
	ConfigCacheTTL time.Duration
	LockTTL        time.Duration
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	MailFrom       string
	RateLimitMax   int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// SMTPEnabled reports whether outbound mail should go through an SMTP relay.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("THESIS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Thesis API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.public_url", "http://localhost:3000")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("config.cache_ttl", "10m")
	v.SetDefault("lock.ttl", "10s")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("mail.from", "no-reply@thesis.local")
	v.SetDefault("rate_limit.max", 120)

	ttl, err := parseDuration(v.GetString("config.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config cache ttl: %w", err)
	}

	lockTTL, err := parseDuration(v.GetString("lock.ttl"), 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid lock ttl: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		AppPublicURL:   strings.TrimRight(v.GetString("app.public_url"), "/"),
		CORSOrigins:    v.GetString("cors.origins"),
		DatabaseURL:    v.GetString("database.url"),
		AutoMigrate:    v.GetBool("database.auto_migrate"),
		RedisURL:       v.GetString("redis.url"),
		NATSURL:        v.GetString("nats.url"),
		JWTSecret:      v.GetString("jwt.secret"),
		ConfigCacheTTL: ttl,
		LockTTL:        lockTTL,
		SMTPHost:       v.GetString("smtp.host"),
		SMTPPort:       v.GetInt("smtp.port"),
		SMTPUsername:   v.GetString("smtp.username"),
		SMTPPassword:   v.GetString("smtp.password"),
		MailFrom:       v.GetString("mail.from"),
		RateLimitMax:   v.GetInt("rate_limit.max"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 120
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
