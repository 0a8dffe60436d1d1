package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Download DownloadConfig `mapstructure:"download"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type DownloadConfig struct {
	Source          string        `mapstructure:"source"` // http or s3
	BaseURL         string        `mapstructure:"base_url"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	TransferTimeout time.Duration `mapstructure:"transfer_timeout"`
	RetryCount      int           `mapstructure:"retry_count"`
	RetryWait       time.Duration `mapstructure:"retry_wait"`
	RetryMaxWait    time.Duration `mapstructure:"retry_max_wait"`
	S3              S3Config      `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type IngestConfig struct {
	DateWorkers  int    `mapstructure:"date_workers"`
	ShardWorkers int    `mapstructure:"shard_workers"`
	BatchSize    int    `mapstructure:"batch_size"`
	Platform     string `mapstructure:"platform"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dsaingest")
	v.SetDefault("database.name", "digital_services_act")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "./data/dsaingest.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("download.source", "http")
	v.SetDefault("download.base_url", "https://d3vax7phxnku8l.cloudfront.net/raw/pqt/data/tdb_data/global___full/daily_dumps_chunked")
	v.SetDefault("download.connect_timeout", 30*time.Second)
	v.SetDefault("download.transfer_timeout", 30*time.Minute)
	v.SetDefault("download.retry_count", 5)
	v.SetDefault("download.retry_wait", 2*time.Second)
	v.SetDefault("download.retry_max_wait", time.Minute)
	v.SetDefault("download.s3.region", "eu-central-1")
	v.SetDefault("download.s3.use_ssl", true)
	v.SetDefault("ingest.date_workers", 5)
	v.SetDefault("ingest.shard_workers", 5)
	v.SetDefault("ingest.batch_size", 10000)
	v.SetDefault("ingest.platform", "Google Maps")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("download.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("download.s3.bucket", "S3_BUCKET")
	v.BindEnv("download.s3.access_key", "S3_ACCESS_KEY")
	v.BindEnv("download.s3.secret_key", "S3_SECRET_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
