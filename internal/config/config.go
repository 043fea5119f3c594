package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the lobby server.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Per-connection I/O
	ReadTimeout   time.Duration `yaml:"read_timeout"`    // idle client disconnect
	WriteTimeout  time.Duration `yaml:"write_timeout"`   // per-write deadline
	SendQueueSize int           `yaml:"send_queue_size"` // per-client outbox capacity

	// Flood protection: token bucket on accepted connections per source IP.
	FloodProtection bool    `yaml:"flood_protection"`
	ConnectionRate  float64 `yaml:"connection_rate"`  // connections per second per IP
	ConnectionBurst int     `yaml:"connection_burst"` // burst allowance per IP

	// Game lifecycle
	GameIdleTimeout   time.Duration `yaml:"game_idle_timeout"`
	ReaperInterval    time.Duration `yaml:"reaper_interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// Sessions
	SessionTTL time.Duration `yaml:"session_ttl"`

	// Accounts
	AutoCreateAccounts bool `yaml:"auto_create_accounts"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultServer returns Server config with legacy-compatible defaults.
func DefaultServer() Server {
	return Server{
		BindAddress:        "0.0.0.0",
		Port:               28000,
		ReadTimeout:        120 * time.Second,
		WriteTimeout:       5 * time.Second,
		SendQueueSize:      256,
		FloodProtection:    true,
		ConnectionRate:     2,
		ConnectionBurst:    5,
		GameIdleTimeout:    60 * time.Second,
		ReaperInterval:     15 * time.Second,
		HeartbeatInterval:  60 * time.Second,
		SessionTTL:         24 * time.Hour,
		AutoCreateAccounts: false,
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "openlobby",
			DBName:  "openlobby",
			SSLMode: "disable",
		},
		LogLevel: "info",
	}
}

// LoadServer reads the server config from a YAML file, applying defaults
// for any omitted field.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
