package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "STAFFMONITR"

type AppConfig struct {
	API     API
	Session Session
	Log     Log
	Console Console
	DevAPI  DevAPI
}

type API struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Session selects where the access token is persisted
type Session struct {
	Store         string `mapstructure:"store"`
	Key           string `mapstructure:"key"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	DatabaseURL   string `mapstructure:"database_url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
}

type Log struct {
	Environment string `mapstructure:"environment"`
}

type Console struct {
	DefaultStaffID string `mapstructure:"default_staff_id"`
}

type DevAPI struct {
	Addr           string        `mapstructure:"addr"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTExpiry      time.Duration `mapstructure:"jwt_expiry"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	DatabaseURL    string        `mapstructure:"database_url"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	Seed           bool          `mapstructure:"seed"`
	GinMode        string        `mapstructure:"gin_mode"`
}

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:5000/api")
	v.SetDefault("api.timeout", 12*time.Second)

	v.SetDefault("session.store", StoreSQLite)
	v.SetDefault("session.key", "staffmonitr_access_token")
	v.SetDefault("session.sqlite_path", defaultSessionPath())
	v.SetDefault("session.database_url", "")
	v.SetDefault("session.redis_addr", "127.0.0.1:6379")
	v.SetDefault("session.redis_password", "")

	v.SetDefault("log.environment", "production")

	v.SetDefault("console.default_staff_id", "")

	v.SetDefault("devapi.addr", ":5000")
	v.SetDefault("devapi.jwt_secret", "")
	v.SetDefault("devapi.jwt_expiry", 12*time.Hour)
	v.SetDefault("devapi.sqlite_path", "staffmonitr-dev.db")
	v.SetDefault("devapi.database_url", "")
	v.SetDefault("devapi.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("devapi.seed", true)
	v.SetDefault("devapi.gin_mode", "release")
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "staffmonitr-session.db"
	}
	return dir + string(os.PathSeparator) + "staffmonitr" + string(os.PathSeparator) + "session.db"
}

// LoadEnv loads the first .env found in the working directory or its parents
func LoadEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
}

// Load reads defaults, then the optional YAML file at path, then
// STAFFMONITR_* environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s -> %w", path, err)
			}
		}
	}

	var conf AppConfig
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("failed to decode config -> %w", err)
	}

	switch conf.Session.Store {
	case StoreSQLite, StorePostgres, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported session.store %q", conf.Session.Store)
	}

	return &conf, nil
}
