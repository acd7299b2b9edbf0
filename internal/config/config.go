// Package config loads process configuration from the environment with a
// .env file overlay for local development.
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	OTP      OTPConfig
	Sweep    SweepConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	OTPPrefix      string
	CooldownPrefix string
}

type JWTConfig struct {
	PrivateKeyPath string
	PublicKeyPath  string
	KeyID          string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

type OTPConfig struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

type SweepConfig struct {
	Interval time.Duration
}

// Load reads the .env file (when present) and the environment, applying the
// documented defaults.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "switchboard-auth")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_OTP_PREFIX", "otp:")
	viper.SetDefault("REDIS_COOLDOWN_PREFIX", "cooldown:")
	viper.SetDefault("JWT_KEY_ID", "auth-key-1")
	viper.SetDefault("JWT_EXPIRY_SECONDS", 900)
	viper.SetDefault("JWT_REFRESH_EXPIRY_SECONDS", 604800)
	viper.SetDefault("OTP_TTL_MINUTES", 5)
	viper.SetDefault("OTP_COOLDOWN_SECONDS", 60)
	viper.SetDefault("OTP_MAX_ATTEMPTS", 3)
	viper.SetDefault("SWEEP_INTERVAL_MINUTES", 60)

	// The .env file is a local convenience; production supplies everything
	// through the environment.
	if _, err := os.Stat(".env"); err == nil {
		if err := viper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:           viper.GetString("REDIS_ADDR"),
			Password:       viper.GetString("REDIS_PASS"),
			DB:             viper.GetInt("REDIS_DB"),
			OTPPrefix:      viper.GetString("REDIS_OTP_PREFIX"),
			CooldownPrefix: viper.GetString("REDIS_COOLDOWN_PREFIX"),
		},
		JWT: JWTConfig{
			PrivateKeyPath: viper.GetString("JWT_PRIVATE_KEY"),
			PublicKeyPath:  viper.GetString("JWT_PUBLIC_KEY"),
			KeyID:          viper.GetString("JWT_KEY_ID"),
			AccessTTL:      time.Duration(viper.GetInt("JWT_EXPIRY_SECONDS")) * time.Second,
			RefreshTTL:     time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_SECONDS")) * time.Second,
		},
		OTP: OTPConfig{
			TTL:         time.Duration(viper.GetInt("OTP_TTL_MINUTES")) * time.Minute,
			Cooldown:    time.Duration(viper.GetInt("OTP_COOLDOWN_SECONDS")) * time.Second,
			MaxAttempts: viper.GetInt("OTP_MAX_ATTEMPTS"),
		},
		Sweep: SweepConfig{
			Interval: time.Duration(viper.GetInt("SWEEP_INTERVAL_MINUTES")) * time.Minute,
		},
	}

	return config, nil
}
