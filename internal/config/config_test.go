package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "http://localhost:8080", cfg.Server.PublicBaseURL)
				assert.Equal(t, "lawlens_jobs", cfg.Database.Database)
				assert.Equal(t, "lawlens_jobs", cfg.RabbitMQ.Exchange)
				assert.Equal(t, "lawlens_start", cfg.RabbitMQ.Queue)
				assert.Equal(t, "/var/lib/lawlens/artifacts", cfg.Artifacts.Dir)
				assert.Equal(t, 800*time.Millisecond, cfg.Client.GraceDelay)
				assert.Equal(t, 2500*time.Millisecond, cfg.Client.PollInterval)
				assert.Equal(t, 5, cfg.Client.PollFailureBudget)
				assert.Equal(t, "lawlens", cfg.App.Name)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          8080,
			PublicBaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "lawlens_jobs",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: "lawlens_jobs",
			Queue:    "lawlens_start",
		},
		Artifacts: ArtifactsConfig{Dir: "/tmp/artifacts"},
		Client: ClientConfig{
			APIBaseURL:   "http://localhost:8080",
			PollInterval: 2500 * time.Millisecond,
			GraceDelay:   800 * time.Millisecond,
		},
		Worker: WorkerConfig{
			Concurrency:   4,
			PrefetchCount: 4,
			JobTimeout:    time.Minute,
		},
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:      "server port too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "server port too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "missing public base url",
			mutate:    func(c *Config) { c.Server.PublicBaseURL = "" },
			wantErr:   true,
			errString: "public_base_url is required",
		},
		{
			name:      "missing artifacts dir",
			mutate:    func(c *Config) { c.Artifacts.Dir = "" },
			wantErr:   true,
			errString: "artifacts dir is required",
		},
		{
			name:      "missing database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "missing rabbitmq exchange",
			mutate:    func(c *Config) { c.RabbitMQ.Exchange = "" },
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.ValidateWorkerConfig())

	cfg.Worker.Concurrency = 0
	err := cfg.ValidateWorkerConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be greater than 0")

	cfg = validConfig()
	cfg.Worker.JobTimeout = 0
	err = cfg.ValidateWorkerConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job_timeout must be greater than 0")
}

func TestConfig_ValidateClientConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.ValidateClientConfig())

	cfg.Client.APIBaseURL = ""
	err := cfg.ValidateClientConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_base_url is required")
}
