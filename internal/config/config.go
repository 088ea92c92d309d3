package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the kiosk system
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Auth     AuthConfig     `yaml:"auth"`
	Reaper   ReaperConfig   `yaml:"reaper"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

type ReaperConfig struct {
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	GraceWindowSeconds   int `yaml:"grace_window_seconds"`
}

// Load reads configuration from a YAML file. A .env file (if present)
// and the process environment override the secrets, so config.yaml can
// be committed without credentials.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(config)

	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Auth.TokenTTLMinutes <= 0 {
		config.Auth.TokenTTLMinutes = 720
	}
	if config.Reaper.SweepIntervalSeconds <= 0 {
		config.Reaper.SweepIntervalSeconds = 60
	}
	if config.Reaper.GraceWindowSeconds <= 0 {
		config.Reaper.GraceWindowSeconds = 1800
	}

	return config, nil
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}

// SweepInterval is the period between reaper sweeps.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Reaper.SweepIntervalSeconds) * time.Second
}

// GraceWindow is how long a ready, unpaid order is tolerated before
// automatic cancellation.
func (c *Config) GraceWindow() time.Duration {
	return time.Duration(c.Reaper.GraceWindowSeconds) * time.Second
}

// TokenTTL is the lifetime of issued auth tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}
