// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	AWS           AWSConfig          `mapstructure:"aws"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Engine        EngineConfig       `mapstructure:"engine"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	AuditIndex string   `mapstructure:"audit_index"`
}

type AWSConfig struct {
	Region         string `mapstructure:"region"`
	SenderEmail    string `mapstructure:"sender_email"`
	SMSSenderID    string `mapstructure:"sms_sender_id"`
	NotifyDisabled bool   `mapstructure:"notify_disabled"`
}

type NotificationConfig struct {
	TemplatePath   string `mapstructure:"template_path"`
	DefaultChannel string `mapstructure:"default_channel"`
}

// EngineConfig tunes the lifecycle engine itself.
type EngineConfig struct {
	RefreshIntervalSeconds int    `mapstructure:"refresh_interval_seconds"`
	InvalidationChannel    string `mapstructure:"invalidation_channel"`
	LedgerNamespace        string `mapstructure:"ledger_namespace"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Address        string `mapstructure:"address"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
