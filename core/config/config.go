package config

import (
	"fmt"
	"sync"

	"club-scheduler/core/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type SchedulerConfig struct {
	// SweepCron is the cron expression for the periodic generation sweep
	// over all active series.
	SweepCron string `mapstructure:"sweep_cron"`
	// WorkerConcurrency is the asynq worker pool size.
	WorkerConcurrency int `mapstructure:"worker_concurrency"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

var (
	instance    *Config
	initialized bool
	mu          sync.RWMutex
)

// Load reads configuration from config.yaml plus CLUB_* environment
// variables (a .env file is honored when present).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("Config:Load", "dotenv", "no .env file, using environment")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CLUB")
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "club_scheduler")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("scheduler.sweep_cron", "0 3 * * *")
	v.SetDefault("scheduler.worker_concurrency", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Warn("Config:Load", "reason", "config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	mu.Lock()
	instance = &cfg
	initialized = true
	mu.Unlock()

	return &cfg, nil
}

// Get returns the loaded configuration. Panics if Load was never called.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if !initialized {
		panic("config: Get called before Load")
	}
	return instance
}

// GetSafe returns the loaded configuration and whether it is initialized.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, initialized
}
