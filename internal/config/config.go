package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the connection and tuning settings for a sync run. The jobs
// themselves live in the INI jobs file, not here.
type Config struct {
	Jobs          JobsConfig          `mapstructure:"jobs"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Sync          SyncConfig          `mapstructure:"sync"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Storage       StorageConfig       `mapstructure:"storage"`
}

type JobsConfig struct {
	// MaxEntries bounds the job store; 0 means unbounded.
	MaxEntries int `mapstructure:"max_entries"`
}

type MongoConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	URI     string        `mapstructure:"uri"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ConnectionURI returns URI when set, otherwise a mongodb:// URI built from host and port.
func (c *MongoConfig) ConnectionURI() string {
	if c.URI != "" {
		return c.URI
	}
	return fmt.Sprintf("mongodb://%s:%d", c.Host, c.Port)
}

type ElasticsearchConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// BaseURL returns the scheme://host:port of the Elasticsearch node.
func (c *ElasticsearchConfig) BaseURL() string {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

type SyncConfig struct {
	// BatchSize is the number of documents read and bulk-indexed per page.
	BatchSize int `mapstructure:"batch_size"`
	// FindQuery is a JSON filter applied to every source collection.
	FindQuery string `mapstructure:"find_query"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	Path            string        `mapstructure:"path"`
	DSNValue        string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.DSNValue
	}
	return c.Path
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
	Prefix    string `mapstructure:"prefix"`
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Jobs.MaxEntries < 0 {
		return fmt.Errorf("jobs.max_entries must not be negative, got %d", c.Jobs.MaxEntries)
	}
	if c.Database.Enabled && c.Database.Driver == "postgres" && c.Database.DSNValue == "" {
		return errors.New("database.dsn is required for the postgres driver")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required when storage is enabled")
	}
	return nil
}

// Load reads settings from configPath (or mdb2el.yaml in ./configs or .), .env and
// the environment. A missing settings file is not an error.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("mdb2el")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Defaults target a local MongoDB and Elasticsearch
	v.SetDefault("jobs.max_entries", 0)
	v.SetDefault("mongo.host", "localhost")
	v.SetDefault("mongo.port", 27017)
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("elasticsearch.host", "localhost")
	v.SetDefault("elasticsearch.port", 9200)
	v.SetDefault("elasticsearch.use_tls", false)
	v.SetDefault("elasticsearch.timeout", 30*time.Second)
	v.SetDefault("sync.batch_size", 100)
	v.SetDefault("sync.find_query", "{}")
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/mdb2el.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.prefix", "reports")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("mongo.host", "MONGO_HOST")
	v.BindEnv("mongo.port", "MONGO_PORT")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("elasticsearch.host", "ELASTIC_HOST")
	v.BindEnv("elasticsearch.port", "ELASTIC_PORT")
	v.BindEnv("elasticsearch.username", "ELASTIC_USERNAME")
	v.BindEnv("elasticsearch.password", "ELASTIC_PASSWORD")
	v.BindEnv("database.dsn", "DATABASE_DSN")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
