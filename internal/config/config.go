package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration. One file serves
// all three binaries; each validates only the sections it uses.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Client    ClientConfig    `yaml:"client"`
	Worker    WorkerConfig    `yaml:"worker"`
	Logging   LoggingConfig   `yaml:"logging"`
	App       AppConfig       `yaml:"app"`
}

// ServerConfig holds the job API HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	PublicBaseURL   string        `yaml:"public_base_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RabbitMQConfig holds queue connection and topology configuration.
type RabbitMQConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	User              string        `yaml:"user"`
	Password          string        `yaml:"password"`
	VHost             string        `yaml:"vhost"`
	Exchange          string        `yaml:"exchange"`
	ExchangeType      string        `yaml:"exchange_type"`
	Queue             string        `yaml:"queue"`
	RoutingKey        string        `yaml:"routing_key"`
	Durable           bool          `yaml:"durable"`
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	PublishRetries    int           `yaml:"publish_retries"`
	PublishRetryDelay time.Duration `yaml:"publish_retry_delay"`
}

// ArtifactsConfig holds the blob store configuration. Uploaded documents
// and result payloads live here.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// ClientConfig holds the lifecycle controller configuration used by the
// analyzer CLI.
type ClientConfig struct {
	APIBaseURL        string        `yaml:"api_base_url"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	GraceDelay        time.Duration `yaml:"grace_delay"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	PollFailureBudget int           `yaml:"poll_failure_budget"`
}

// WorkerConfig holds worker service configuration.
type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	PrefetchCount   int           `yaml:"prefetch_count"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ValidateAPIConfig checks the sections the API service depends on.
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("server public_base_url is required")
	}

	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts dir is required")
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	return c.validateRabbitMQ()
}

// ValidateWorkerConfig checks the sections the worker service depends on.
func (c *Config) ValidateWorkerConfig() error {
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.PrefetchCount <= 0 {
		return fmt.Errorf("worker prefetch_count must be greater than 0")
	}

	if c.Worker.JobTimeout <= 0 {
		return fmt.Errorf("worker job_timeout must be greater than 0")
	}

	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("server public_base_url is required")
	}

	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts dir is required")
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	return c.validateRabbitMQ()
}

// ValidateClientConfig checks the sections the analyzer CLI depends on.
func (c *Config) ValidateClientConfig() error {
	if c.Client.APIBaseURL == "" {
		return fmt.Errorf("client api_base_url is required")
	}

	if c.Client.PollInterval < 0 || c.Client.GraceDelay < 0 {
		return fmt.Errorf("client intervals must not be negative")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}
