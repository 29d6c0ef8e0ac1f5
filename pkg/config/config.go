package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string          `mapstructure:"PORT"`
	Env       string          `mapstructure:"ENV"`
	LogLevel  string          `mapstructure:"LOG_LEVEL"`
	LogFile   string          `mapstructure:"LOG_FILE"`
	Postgres  PostgresConfig  `mapstructure:"POSTGRES"`
	Mongo     MongoConfig     `mapstructure:"MONGO"`
	Redis     RedisConfig     `mapstructure:"REDIS"`
	Auth      AuthConfig      `mapstructure:"AUTH"`
	Reactions ReactionsConfig `mapstructure:"REACTIONS"`
	Friends   FriendsConfig   `mapstructure:"FRIENDS"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"DSN"`
}

type MongoConfig struct {
	URI      string `mapstructure:"URI"`
	Database string `mapstructure:"DATABASE"`
}

// RedisConfig enables the shared cell lock and the friend-ID cache
type RedisConfig struct {
	Enabled  bool   `mapstructure:"ENABLED"`
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// AuthConfig selects how bearer tokens are verified: "firebase" or "jwt"
type AuthConfig struct {
	Mode                    string `mapstructure:"MODE"`
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
}

type ReactionsConfig struct {
	CounterRetries uint64        `mapstructure:"COUNTER_RETRIES"`
	LockTTL        time.Duration `mapstructure:"LOCK_TTL"`
	UpdateLease    time.Duration `mapstructure:"UPDATE_LEASE"`
}

type FriendsConfig struct {
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
}

// IsDevelopment reports whether the server runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from .env, an optional config file and the environment, in that order
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "logs/app.log")

	v.SetDefault("POSTGRES.DSN", "host=localhost user=postgres password=postgres dbname=walltribe port=5432 sslmode=disable")
	v.SetDefault("MONGO.URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO.DATABASE", "walltribe")

	v.SetDefault("REDIS.ENABLED", false)
	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("AUTH.MODE", "firebase")
	v.SetDefault("AUTH.FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("AUTH.JWT_SECRET", "")

	v.SetDefault("REACTIONS.COUNTER_RETRIES", 3)
	v.SetDefault("REACTIONS.LOCK_TTL", 5*time.Second)
	v.SetDefault("REACTIONS.UPDATE_LEASE", time.Minute)
	v.SetDefault("FRIENDS.CACHE_TTL", 5*time.Minute)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// POSTGRES_DSN overrides POSTGRES.DSN
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
