package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigService exposes the settings the server and the seeder need.
// Kept as an interface so route tests can mock it.
type ConfigService interface {
	GetJWTSecret() string
	GetServerPort() string
	GetAllowedOrigins() []string
	GetDBDriver() string
	GetDBURL() string
	GetTMDBKey() string
	GetSeedDelay() time.Duration
}

// Config implements ConfigService from environment variables, optionally
// overridden by a YAML file.
type Config struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	ServerPort     string        `yaml:"server_port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	DBDriver       string        `yaml:"db_driver"`
	DBURL          string        `yaml:"db_url"`
	TMDBKey        string        `yaml:"tmdb_api_key"`
	SeedDelay      time.Duration `yaml:"seed_delay"`
}

func (c *Config) GetJWTSecret() string        { return c.JWTSecret }
func (c *Config) GetServerPort() string       { return c.ServerPort }
func (c *Config) GetAllowedOrigins() []string { return c.AllowedOrigins }
func (c *Config) GetDBDriver() string         { return c.DBDriver }
func (c *Config) GetDBURL() string            { return c.DBURL }
func (c *Config) GetTMDBKey() string          { return c.TMDBKey }
func (c *Config) GetSeedDelay() time.Duration { return c.SeedDelay }

// Load builds config from the environment. A missing .env file is not an
// error: deployments may set real environment variables instead.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	c := &Config{
		JWTSecret:  os.Getenv("JWT_SECRET"),
		ServerPort: os.Getenv("SERVER_PORT"),
		DBDriver:   os.Getenv("DB_DRIVER"),
		DBURL:      os.Getenv("DB_URL"),
		TMDBKey:    os.Getenv("TMDB_API_KEY"),
		SeedDelay:  300 * time.Millisecond,
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitOrigins(origins)
	} else {
		c.AllowedOrigins = []string{"http://localhost:8080"}
	}
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite3"
	}
	if c.DBURL == "" {
		c.DBURL = "netflix.db"
	}
	if s := os.Getenv("SEED_DELAY"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.SeedDelay = d
		}
	}
	return c
}

// LoadFromFile reads a YAML config file on top of the environment config,
// so the file only needs the keys it wants to override.
func LoadFromFile(path string) (*Config, error) {
	c := Load()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return c, nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
