package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// insecureJWTSecret is the built-in default; it is only accepted in development.
const insecureJWTSecret = "supersecretkey"

type Config struct {
	Addr           string        `yaml:"addr"`
	JWTSecret      string        `yaml:"jwt_secret"`
	APITimeout     time.Duration `yaml:"timeout"`
	DatabasePath   string        `yaml:"database_path"`
	TokenDuration  time.Duration `yaml:"token_duration"`
	MigrateOnStart bool          `yaml:"migrate_on_start"`
	BcryptCost     int           `yaml:"bcrypt_cost"`
	Env            string        `yaml:"env"`
	SSE            SSEConfig     `yaml:"sse"`
}

type SSEConfig struct {
	// Heartbeat is the interval between keep-alive comments on idle streams.
	Heartbeat time.Duration `yaml:"heartbeat"`
	// Buffer is the number of events queued per connection before drops.
	Buffer int `yaml:"buffer"`
}

func LoadConfig(path string) (*Config, error) {
	apiTimeout := 15 * time.Second
	tokenDuration := 1 * time.Hour

	cfg := &Config{
		Addr:           getEnv("MENTORHUB_ADDR", ":8080"),
		JWTSecret:      getEnv("MENTORHUB_JWT_SECRET", insecureJWTSecret),
		APITimeout:     apiTimeout,
		DatabasePath:   getEnv("MENTORHUB_DATABASE_PATH", "mentorhub.db"),
		TokenDuration:  tokenDuration,
		MigrateOnStart: true,
		BcryptCost:     10,
		Env:            getEnv("MENTORHUB_ENV", "development"),
		SSE: SSEConfig{
			Heartbeat: 25 * time.Second,
			Buffer:    16,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the configuration and fills defaults for optional fields.
// MENTORHUB_ENV, when set, overrides the env field.
func (c *Config) Validate() error {
	env := c.Env
	if v := os.Getenv("MENTORHUB_ENV"); v != "" {
		env = v
	}

	if c.Addr == "" {
		return errors.New("config: addr must be set")
	}
	if c.DatabasePath == "" {
		return errors.New("config: database_path must be set")
	}
	if c.JWTSecret == "" {
		return errors.New("config: jwt_secret must be set")
	}
	if c.JWTSecret == insecureJWTSecret && env != "development" {
		return fmt.Errorf("config: default jwt_secret is not allowed when env=%q", env)
	}

	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.TokenDuration <= 0 {
		c.TokenDuration = time.Hour
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 10
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: bcrypt_cost must be between 4 and 31")
	}
	if c.SSE.Heartbeat <= 0 {
		c.SSE.Heartbeat = 25 * time.Second
	}
	if c.SSE.Buffer <= 0 {
		c.SSE.Buffer = 16
	}

	c.Env = env
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
