package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// devJWTSecret is only used outside release mode when JWT_SECRET is unset.
const devJWTSecret = "default_super_secret_key"

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Port          string `mapstructure:"port"`
	GinMode       string `mapstructure:"gin_mode"`
	StorageDriver string `mapstructure:"storage_driver"`
	JWTSecret     string `mapstructure:"jwt_secret"`

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`

	Redis struct {
		Address string
	} `mapstructure:"redis"`

	Lock struct {
		TTL time.Duration
	} `mapstructure:"lock"`

	Log struct {
		Level string
	} `mapstructure:"log"`

	CORS struct {
		Origins []string
	} `mapstructure:"cors"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// DSN builds the postgres connection URL.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// Load reads envFile into the process environment when it exists, then
// resolves every setting from the environment. Nested keys map to
// underscore-joined variables, so lock.ttl is read from LOCK_TTL.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("storage_driver", StorageDriverPostgres)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "postgres")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("redis.address", "")
	v.SetDefault("lock.ttl", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("metrics.enabled", true)

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}

	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return c, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		if c.GinMode == "release" {
			return c, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.Lock.TTL <= 0 {
		return c, fmt.Errorf("LOCK_TTL must be positive, got %s", c.Lock.TTL)
	}
	return c, nil
}
