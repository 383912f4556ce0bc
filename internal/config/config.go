package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Last image backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMinio    = "minio"
	BackendRedis    = "redis"
)

// MinioConfig holds object storage configuration
type MinioConfig struct {
	Endpoint  string `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	Bucket    string `envconfig:"BUCKET" default:"imgworkshop"`
	UseSSL    bool   `envconfig:"USE_SSL" default:"false"`
}

// EventsConfig holds notification sinks; empty values disable a sink
type EventsConfig struct {
	SinkURL   string `envconfig:"SINK_URL"`
	AMQPURL   string `envconfig:"AMQP_URL"`
	AMQPQueue string `envconfig:"AMQP_QUEUE" default:"imgworkshop_events"`
	Source    string `envconfig:"SOURCE" default:"imgworkshop/web"`
}

// Config holds all configuration for the application
type Config struct {
	// AppPassword and OpenAIAPIKey are checked per request, not at startup.
	AppPassword  string `envconfig:"APP_PASSWORD"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	AppSecret    string `envconfig:"APP_SECRET" default:"change_me_please"`

	Host string `envconfig:"HOST" default:"127.0.0.1"`
	Port string `envconfig:"PORT" default:"5051"`

	OpenAIBaseURL     string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com"`
	ImageModel        string        `envconfig:"IMAGE_MODEL" default:"gpt-image-1"`
	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"120s"`
	FetchTimeout      time.Duration `envconfig:"FETCH_TIMEOUT" default:"60s"`

	SessionMaxAge    time.Duration `envconfig:"SESSION_MAX_AGE" default:"1h"`
	LargeUploadBytes int64         `envconfig:"LARGE_UPLOAD_BYTES" default:"10485760"`

	LastImageBackend string        `envconfig:"LAST_IMAGE_BACKEND" default:"file"`
	OutputDir        string        `envconfig:"OUTPUT_DIR" default:"outputs"`
	DatabaseURL      string        `envconfig:"DATABASE_URL"`
	RedisAddr        string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Minio            MinioConfig   `envconfig:"MINIO"`
	Retention        time.Duration `envconfig:"LAST_IMAGE_RETENTION" default:"0s"`
	PurgeSchedule    string        `envconfig:"LAST_IMAGE_PURGE_SCHEDULE" default:"@every 10m"`

	Events EventsConfig `envconfig:"EVENTS"`
}

// Load loads the configuration from an optional .env file and the environment
func Load() (*Config, error) {
	// A missing .env is fine; the environment may carry everything
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that must be usable before the server starts
func (c *Config) Validate() error {
	switch c.LastImageBackend {
	case BackendFile:
		if c.OutputDir == "" {
			return fmt.Errorf("OUTPUT_DIR is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown LAST_IMAGE_BACKEND %q", c.LastImageBackend)
	}

	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	if c.GenerationTimeout <= 0 || c.FetchTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT and FETCH_TIMEOUT must be positive")
	}
	if c.Retention < 0 {
		return fmt.Errorf("LAST_IMAGE_RETENTION must not be negative")
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
