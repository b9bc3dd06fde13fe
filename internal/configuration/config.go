package configuration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverLocal    = "local"
)

type Config struct {
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Server     ServerConfig
	Validation ValidationConfig
	Metadata   MetadataConfig
	Log        LogConfig
	NATS       NATSConfig
	ClamAV     ClamAVConfig
	Tracing    TracingConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

type ServerConfig struct {
	Port          string
	MaxUploadSize int64
	PresignTTL    time.Duration
}

// ValidationConfig sizes the background validation pool.
type ValidationConfig struct {
	Workers       int
	QueueSize     int
	EnqueueWait   time.Duration
	Timeout       time.Duration
	RecoveryBatch int
}

// MetadataConfig selects where file records live.
type MetadataConfig struct {
	Driver    string
	LocalPath string
	CacheSize int
	CacheTTL  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type NATSConfig struct {
	URL     string
	Enabled bool
}

type ClamAVConfig struct {
	URL     string
	Enabled bool
}

type TracingConfig struct {
	Enabled bool
	Service string
}

// Load reads configuration from the environment, falling back to an optional
// config.yaml in the working directory and then to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),
		},
		MinIO: MinIOConfig{
			Endpoint:   v.GetString("MINIO_ENDPOINT"),
			AccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:  v.GetString("MINIO_SECRET_KEY"),
			BucketName: v.GetString("MINIO_BUCKET"),
			UseSSL:     v.GetBool("MINIO_USE_SSL"),
		},
		Server: ServerConfig{
			Port:          v.GetString("SERVER_PORT"),
			MaxUploadSize: v.GetInt64("UPLOAD_MAX_FILE_SIZE"),
			PresignTTL:    time.Duration(v.GetInt("PRESIGNED_URL_EXPIRATION_MINUTES")) * time.Minute,
		},
		Validation: ValidationConfig{
			Workers:       v.GetInt("VALIDATION_WORKERS"),
			QueueSize:     v.GetInt("VALIDATION_QUEUE_SIZE"),
			EnqueueWait:   v.GetDuration("VALIDATION_ENQUEUE_WAIT"),
			Timeout:       v.GetDuration("VALIDATION_TIMEOUT"),
			RecoveryBatch: v.GetInt("VALIDATION_RECOVERY_BATCH"),
		},
		Metadata: MetadataConfig{
			Driver:    strings.ToLower(v.GetString("METADATA_DRIVER")),
			LocalPath: v.GetString("METADATA_LOCAL_PATH"),
			CacheSize: v.GetInt("RECORD_CACHE_SIZE"),
			CacheTTL:  v.GetDuration("RECORD_CACHE_TTL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		NATS: NATSConfig{
			URL:     v.GetString("NATS_URL"),
			Enabled: v.GetBool("NATS_ENABLED"),
		},
		ClamAV: ClamAVConfig{
			URL:     v.GetString("CLAMAV_URL"),
			Enabled: v.GetBool("CLAMAV_ENABLED"),
		},
		Tracing: TracingConfig{
			Enabled: v.GetBool("DD_TRACE_ENABLED"),
			Service: v.GetString("DD_SERVICE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "fileuser")
	v.SetDefault("DB_PASSWORD", "filepassword")
	v.SetDefault("DB_NAME", "coupons")
	v.SetDefault("DB_SSL_MODE", "disable")

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "coupon-files")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 50<<20)
	v.SetDefault("PRESIGNED_URL_EXPIRATION_MINUTES", 10)

	v.SetDefault("VALIDATION_WORKERS", 4)
	v.SetDefault("VALIDATION_QUEUE_SIZE", 256)
	v.SetDefault("VALIDATION_ENQUEUE_WAIT", "5s")
	v.SetDefault("VALIDATION_TIMEOUT", "2m")
	v.SetDefault("VALIDATION_RECOVERY_BATCH", 500)

	v.SetDefault("METADATA_DRIVER", DriverPostgres)
	v.SetDefault("METADATA_LOCAL_PATH", "file_records.json")
	v.SetDefault("RECORD_CACHE_SIZE", 1024)
	v.SetDefault("RECORD_CACHE_TTL", "10m")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NATS_ENABLED", false)
	v.SetDefault("CLAMAV_URL", "tcp://localhost:3310")
	v.SetDefault("CLAMAV_ENABLED", false)

	v.SetDefault("DD_TRACE_ENABLED", false)
	v.SetDefault("DD_SERVICE", "coupon-file-service")
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.PresignTTL <= 0 {
		errs = append(errs, errors.New("PRESIGNED_URL_EXPIRATION_MINUTES must be positive"))
	}
	if c.Server.MaxUploadSize <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_FILE_SIZE must be positive"))
	}
	if c.Validation.Workers <= 0 {
		errs = append(errs, errors.New("VALIDATION_WORKERS must be positive"))
	}
	if c.Validation.QueueSize <= 0 {
		errs = append(errs, errors.New("VALIDATION_QUEUE_SIZE must be positive"))
	}
	if c.Validation.EnqueueWait <= 0 {
		errs = append(errs, errors.New("VALIDATION_ENQUEUE_WAIT must be positive"))
	}
	if c.Validation.Timeout <= 0 {
		errs = append(errs, errors.New("VALIDATION_TIMEOUT must be positive"))
	}
	if c.Metadata.Driver != DriverPostgres && c.Metadata.Driver != DriverLocal {
		errs = append(errs, fmt.Errorf("METADATA_DRIVER must be %q or %q, got %q", DriverPostgres, DriverLocal, c.Metadata.Driver))
	}
	if c.MinIO.BucketName == "" {
		errs = append(errs, errors.New("MINIO_BUCKET is required"))
	}

	return errors.Join(errs...)
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
