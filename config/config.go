package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		// Migrations is a golang-migrate source URL, e.g. file://db/migrations.
		Migrations string `mapstructure:"migrations"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey  string        `mapstructure:"secret_key"`
		AccessTTL  time.Duration `mapstructure:"access_ttl"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	} `mapstructure:"jwt"`
	Client ClientConfig `mapstructure:"client"`
	Log    struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// ClientConfig drives the authenticated API client.
type ClientConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	AccessTokenSlot  string        `mapstructure:"access_token_slot"`
	RefreshTokenSlot string        `mapstructure:"refresh_token_slot"`
	CredentialMaxAge time.Duration `mapstructure:"credential_max_age"`
	CredentialPath   string        `mapstructure:"credential_path"`
	MaxPending       int           `mapstructure:"max_pending"`
	RefreshTimeout   time.Duration `mapstructure:"refresh_timeout"`
	SignOutChannel   string        `mapstructure:"signout_channel"`
	Email            string        `mapstructure:"email"`
	Password         string        `mapstructure:"password"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3333")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.migrations", "file://db/migrations")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 30*24*time.Hour)
	v.SetDefault("client.base_url", "http://localhost:3333")
	v.SetDefault("client.access_token_slot", "auth.token")
	v.SetDefault("client.refresh_token_slot", "auth.refreshToken")
	v.SetDefault("client.credential_max_age", 30*24*time.Hour)
	v.SetDefault("client.credential_path", "/")
	v.SetDefault("client.max_pending", 256)
	v.SetDefault("client.refresh_timeout", 30*time.Second)
	v.SetDefault("client.signout_channel", "auth")
	v.SetDefault("log.level", "info")
}

// Load reads config.yml from path. A missing file is not an error: defaults
// and environment variables (JWT_SECRET_KEY for jwt.secret_key, and so on)
// still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{"jwt.secret_key", "database.user", "database.password", "database.name", "redis.password", "client.email", "client.password"} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error loading config, %s", err)
	}
	AppConfig = cfg
}
