package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cloud backends understood by the CLI.
const (
	BackendDrive = "drive"
	BackendS3    = "s3"
)

// Config holds runtime settings for the bodykeeper CLI.
//
// Units: RetentionPeriod and AvailabilityCheckInterval are time.Duration
// values (e.g., 720*time.Hour, 30*time.Second).
type Config struct {
	// DataDir keeps the SQLite database, local photos and logs.
	DataDir string

	CloudBackend string
	// CloudRoot is the synced folder for the drive backend and the key
	// prefix for the s3 backend. See DriveRoot for the drive default.
	CloudRoot string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	RetentionPeriod           time.Duration
	AvailabilityCheckInterval time.Duration

	// MaterializeCommand asks the OS to download a cloud placeholder, for
	// example "brctl download {path}". Empty disables materialization.
	MaterializeCommand string
	WatchRemote        bool

	LogFile   string
	LogLevel  string
	TraceFile string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	base := ".bodykeeper"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".bodykeeper")
	}

	c.DataDir = base
	c.CloudBackend = BackendDrive
	c.RetentionPeriod = 30 * 24 * time.Hour
	c.AvailabilityCheckInterval = 30 * time.Second
	c.WatchRemote = true
	c.LogLevel = "info"
}

// Validate reports settings that make the client unusable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.CloudBackend {
	case BackendDrive:
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3_bucket is required for the %s backend", BackendS3)
		}
	default:
		return fmt.Errorf("unknown cloud_backend %q", c.CloudBackend)
	}
	if c.RetentionPeriod <= 0 {
		return fmt.Errorf("retention_period must be positive")
	}
	if c.AvailabilityCheckInterval <= 0 {
		return fmt.Errorf("availability_check_interval must be positive")
	}
	return nil
}

// DatabasePath is the SQLite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "bodykeeper.db")
}

// DriveRoot is the folder used by the drive backend. Without an explicit
// cloud_root it is a "drive" folder inside DataDir, which is only useful
// when that folder is itself shared by a sync client.
func (c *Config) DriveRoot() string {
	if c.CloudRoot != "" {
		return c.CloudRoot
	}
	return filepath.Join(c.DataDir, "drive")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
