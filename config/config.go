package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
		LiveFeed       bool          `yaml:"live_feed"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
	Model struct {
		Path      string `yaml:"path"`
		CacheSize int    `yaml:"cache_size"`
		Watch     bool   `yaml:"watch"`
	} `yaml:"model"`
	History struct {
		// Path of the sqlite prediction history; empty disables it.
		Path string `yaml:"path"`
	} `yaml:"history"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Http.MaxBodyBytes = 64 << 10
	c.Http.LiveFeed = true
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.MaxSizeMB = 100
	c.Log.MaxBackups = 5
	c.Log.MaxAgeDays = 28
	c.Model.Path = "models/hotel_booking_prediction_model.json"
	c.Model.CacheSize = 4
	c.Model.Watch = true
	return &c
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// Load .env file if it exists
	_ = godotenv.Load()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PREDICTOR_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PREDICTOR_HTTP_PORT: %w", err)
		}
		c.Http.Port = port
	}
	if v := os.Getenv("PREDICTOR_MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("PREDICTOR_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PREDICTOR_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("PREDICTOR_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("PREDICTOR_ALLOWED_ORIGINS"); v != "" {
		c.Http.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Http.MaxBodyBytes <= 0 {
		return errors.New("http.max_body_bytes must be positive")
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Model.CacheSize <= 0 {
		return errors.New("model.cache_size must be positive")
	}
	return nil
}
