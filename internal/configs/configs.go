/*
Package configs loads and validates the application's configuration settings.

Configuration comes from environment variables (optionally seeded from a .env
file) and covers the listening port, CORS origins, profile and voice retention
windows, and the voice blob storage backend.
*/
package configs

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backend selectors for voice recordings.
const (
	StorageBackendFS = "fs"
	StorageBackendS3 = "s3"
)

// AppConfig contains all configuration parameters required to run the server.
type AppConfig struct {
	// General Server Settings
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Host        string `envconfig:"HOST" default:""`
	Port        int    `envconfig:"PORT" default:"8080"`

	// Security Settings
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	// Relay limits
	MaxContentBytes int `envconfig:"MAX_CONTENT_BYTES" default:"5000"`
	MaxVoiceBytes   int `envconfig:"MAX_VOICE_BYTES" default:"5242880"`

	// Retention windows. Disconnected profiles and stored voice recordings
	// older than these are evicted by the hub's prune cycle.
	ProfileRetention time.Duration `envconfig:"PROFILE_RETENTION" default:"1h"`
	VoiceRetention   time.Duration `envconfig:"VOICE_RETENTION" default:"24h"`

	// Voice Storage Settings
	VoiceStorageBackend string `envconfig:"VOICE_STORAGE_BACKEND" default:"fs"`
	VoiceDir            string `envconfig:"VOICE_DIR" default:"./data/voices"`

	// S3 Storage Settings (required only for the s3 backend)
	S3BucketName      string `envconfig:"S3_BUCKET_NAME"`
	S3Endpoint        string `envconfig:"S3_ENDPOINT"`
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
}

// LoadConfig reads the application configuration from environment variables,
// after loading a .env file when one is present, and validates the result.
func LoadConfig() (*AppConfig, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("MAX_CONTENT_BYTES must be positive, got %d", c.MaxContentBytes)
	}

	if c.MaxVoiceBytes <= 0 {
		return fmt.Errorf("MAX_VOICE_BYTES must be positive, got %d", c.MaxVoiceBytes)
	}

	if c.ProfileRetention <= 0 || c.VoiceRetention <= 0 {
		return fmt.Errorf("retention windows must be positive")
	}

	switch c.VoiceStorageBackend {
	case StorageBackendFS:
		if c.VoiceDir == "" {
			return fmt.Errorf("VOICE_DIR is required for the fs storage backend")
		}

	case StorageBackendS3:
		if c.S3BucketName == "" || c.S3Endpoint == "" {
			return fmt.Errorf("S3_BUCKET_NAME and S3_ENDPOINT are required for the s3 storage backend")
		}
		if c.S3AccessKeyID == "" || c.S3SecretAccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the s3 storage backend")
		}

	default:
		return fmt.Errorf("unknown voice storage backend %q (expected %q or %q)", c.VoiceStorageBackend, StorageBackendFS, StorageBackendS3)
	}

	return nil
}
