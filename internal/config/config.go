package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendPostgres StoreBackend = "postgres"
	BackendRedis    StoreBackend = "redis"
)

type Config struct {
	App      App
	Chat     Chat
	Store    Store
	Database Database
	Redis    Redis
}

type App struct {
	Port string `env:"APP_PORT" env-default:":8080"`
}

type Chat struct {
	HistoryLimit     int `env:"HISTORY_LIMIT" env-default:"50"`
	TypingExpiryMS   int `env:"TYPING_EXPIRY_MS" env-default:"3000"`
	TypingSweepMS    int `env:"TYPING_SWEEP_MS" env-default:"1000"`
	SendBufferFrames int `env:"SEND_BUFFER" env-default:"256"`
}

func (c Chat) TypingExpiry() time.Duration {
	return time.Duration(c.TypingExpiryMS) * time.Millisecond
}

func (c Chat) TypingSweepInterval() time.Duration {
	return time.Duration(c.TypingSweepMS) * time.Millisecond
}

type Store struct {
	Backend StoreBackend `env:"STORE_BACKEND" env-default:"memory"`
}

type Database struct {
	Host     string `env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `env:"POSTGRES_PORT" env-default:"5432"`
	User     string `env:"POSTGRES_USER" env-default:"postgres"`
	DBName   string `env:"POSTGRES_DB" env-default:"anonchat"`
	Password string `env:"POSTGRES_PASSWORD" env-default:""`
	SSLMode  string `env:"POSTGRES_SSLMODE" env-default:"disable"`
}

func (d Database) DSN() string {
	return fmt.Sprintf(
		`host=%s port=%s user=%s password=%s dbname=%s sslmode=%s`,
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type Redis struct {
	Addr string `env:"REDIS_ADDR" env-default:"localhost:6379"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment variables: %w", err)
	}
	return cfg, nil
}
