package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           int           `mapstructure:"port"`
	DatabaseURL    string        `mapstructure:"database_url"`
	GatewayToken   string        `mapstructure:"gateway_token"`
	AllowedOrigins []string      `mapstructure:"-"`
	ReportInterval time.Duration `mapstructure:"pool_report_interval"`
	R2             R2Config      `mapstructure:",squash"`
}

type R2Config struct {
	AccountID       string `mapstructure:"cloudflare_account_id"`
	AccessKeyID     string `mapstructure:"r2_access_key_id"`
	AccessKeySecret string `mapstructure:"r2_access_key_secret"`
	Bucket          string `mapstructure:"r2_bucket_name"`
	CDNBaseURL      string `mapstructure:"cdn_base_url"`
}

// Enabled reports whether result archiving to R2 is configured.
func (c R2Config) Enabled() bool {
	return c.Bucket != "" && c.AccountID != ""
}

var keys = []string{
	"port", "database_url", "gateway_token", "allowed_origins", "pool_report_interval",
	"cloudflare_account_id", "r2_access_key_id", "r2_access_key_secret", "r2_bucket_name", "cdn_base_url",
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromViper(viper.New())
}

// FromViper builds a Config from v, binding every known environment variable.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("port", 5300)
	v.SetDefault("allowed_origins", "http://localhost:3000")
	v.SetDefault("pool_report_interval", "5m")
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(v.GetString("allowed_origins"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}
	if cfg.GatewayToken == "" {
		return nil, errors.New("GATEWAY_TOKEN environment variable not set")
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = 5 * time.Minute
	}
	return &cfg, nil
}
