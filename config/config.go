package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Identity IdentityConfig
	Jobs     JobsConfig
	LogLevel string
}

type AppConfig struct {
	Port       string
	Env        string
	CORSOrigin string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// RedisConfig is optional; an empty Host disables Redis.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// IdentityConfig tunes identifier generation.
type IdentityConfig struct {
	MaxKeyAttempts int
	LockTTL        time.Duration
	LockWait       time.Duration
}

type JobsConfig struct {
	MajorityScanCron string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_CORS_ORIGIN", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "hospital_records")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	v.SetDefault("IDENTITY_MAX_KEY_ATTEMPTS", 3)
	v.SetDefault("IDENTITY_LOCK_TTL", "5s")
	v.SetDefault("IDENTITY_LOCK_WAIT", "2s")
	v.SetDefault("JOBS_MAJORITY_SCAN_CRON", "0 2 * * *")
	v.SetDefault("LOG_LEVEL", "info")
}

// LoadConfig reads path (a .env file, optional) and the environment, which
// takes precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	lockTTL, err := time.ParseDuration(v.GetString("IDENTITY_LOCK_TTL"))
	if err != nil {
		lockTTL = 5 * time.Second
	}

	lockWait, err := time.ParseDuration(v.GetString("IDENTITY_LOCK_WAIT"))
	if err != nil {
		lockWait = 2 * time.Second
	}

	maxAttempts := v.GetInt("IDENTITY_MAX_KEY_ATTEMPTS")
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	config := &Config{
		App: AppConfig{
			Port:       v.GetString("APP_PORT"),
			Env:        v.GetString("APP_ENV"),
			CORSOrigin: v.GetString("APP_CORS_ORIGIN"),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			TimeZone: v.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: accessExpiry,
		},
		Identity: IdentityConfig{
			MaxKeyAttempts: maxAttempts,
			LockTTL:        lockTTL,
			LockWait:       lockWait,
		},
		Jobs: JobsConfig{
			MajorityScanCron: v.GetString("JOBS_MAJORITY_SCAN_CRON"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	return config, nil
}
