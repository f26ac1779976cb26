package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Sitework"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"sitework"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	Kafka struct {
		Brokers []string `envconfig:"KAFKA_BROKERS"`
		Topic   string   `envconfig:"KAFKA_TOPIC" default:"sitework.events"`
	}

	// TUI identifies the local operator. Service calls made from the
	// terminal UI run as this principal.
	TUI struct {
		UserID string `envconfig:"TUI_USER_ID"`
		Role   string `envconfig:"TUI_ROLE" default:"homeowner"`
	}

	Evidence struct {
		Endpoint  string `envconfig:"EVIDENCE_ENDPOINT"`
		AccessKey string `envconfig:"EVIDENCE_ACCESS_KEY"`
		SecretKey string `envconfig:"EVIDENCE_SECRET_KEY"`
		Bucket    string `envconfig:"EVIDENCE_BUCKET" default:"site-evidence"`
		UseSSL    bool   `envconfig:"EVIDENCE_USE_SSL" default:"false"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
