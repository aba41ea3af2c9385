// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the binaries read. Values come from the environment (a .env file
// is loaded by the binaries through godotenv) and, optionally, from the file named by CAH_CONFIG.
type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PGHost           string `mapstructure:"pg_host"`
	PGPort           string `mapstructure:"pg_port"`
	PGDatabase       string `mapstructure:"pg_database"`

	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`

	HistorianQueueName     string        `mapstructure:"historian_queue_name"`
	HistorianBatchSize     int           `mapstructure:"historian_batch_size"`
	HistorianFlushInterval time.Duration `mapstructure:"historian_flush_interval"`
	GameInactivityTimeout  time.Duration `mapstructure:"game_inactivity_timeout"`

	// TokenExpireTime is a duration, or "never".
	TokenExpireTime    string `mapstructure:"token_expire_time"`
	AuthPrivateKeyPath string `mapstructure:"auth_private_key_path"`
	AuthPublicKeyPath  string `mapstructure:"auth_public_key_path"`

	PlayPhase       time.Duration `mapstructure:"play_phase"`
	PickPhase       time.Duration `mapstructure:"pick_phase"`
	FinishDelay     time.Duration `mapstructure:"finish_delay"`
	FinishedGameTTL time.Duration `mapstructure:"finished_game_ttl"`
}

var defaults = map[string]interface{}{
	"port":      "8080",
	"log_level": "info",

	"postgres_user":     "postgres",
	"postgres_password": "",
	"pg_host":           "localhost",
	"pg_port":           "5432",
	"pg_database":       "cah",

	"redis_addr": "localhost:6379",
	"redis_db":   0,

	"historian_queue_name":     "cah_actions",
	"historian_batch_size":     100,
	"historian_flush_interval": 5 * time.Second,
	"game_inactivity_timeout":  time.Hour,

	"token_expire_time":     "never",
	"auth_private_key_path": "",
	"auth_public_key_path":  "",

	"play_phase":        300 * time.Second,
	"pick_phase":        300 * time.Second,
	"finish_delay":      time.Second,
	"finished_game_ttl": time.Hour,
}

// Load reads the configuration.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CAH_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.HistorianBatchSize < 1 {
		return nil, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.HistorianBatchSize)
	}
	return &cfg, nil
}

// ConnString is the Postgres connection URL.
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PGHost,
		c.PGPort,
		c.PGDatabase,
	)
}
