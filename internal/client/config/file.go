package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/bodykeeper/internal/flagx"
	"github.com/dmitrijs2005/bodykeeper/internal/timex"
)

// FileConfig is a DTO used exclusively for config file unmarshalling.
// Pointer fields distinguish "absent" from a zero value so a file can
// override only some settings. Durations use timex.Duration and accept
// "30s" or integer nanoseconds in both JSON and YAML.
type FileConfig struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`

	CloudBackend string `json:"cloud_backend" yaml:"cloud_backend"`
	CloudRoot    string `json:"cloud_root" yaml:"cloud_root"`

	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key" yaml:"s3_secret_key"`

	RetentionPeriod           *timex.Duration `json:"retention_period" yaml:"retention_period"`
	AvailabilityCheckInterval *timex.Duration `json:"availability_check_interval" yaml:"availability_check_interval"`

	MaterializeCommand string `json:"materialize_command" yaml:"materialize_command"`
	WatchRemote        *bool  `json:"watch_remote" yaml:"watch_remote"`

	LogFile   string `json:"log_file" yaml:"log_file"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
	TraceFile string `json:"trace_file" yaml:"trace_file"`
}

// parseFile overlays Config with values loaded from a config file.
//
// The path comes from -c or --config; without it nothing is loaded. Files
// ending in .yaml or .yml are decoded as YAML, anything else as JSON.
// Panics on read or decode errors. Empty strings in the file leave the
// current value untouched.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.CloudBackend, fc.CloudBackend)
	setString(&cfg.CloudRoot, fc.CloudRoot)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)
	setString(&cfg.MaterializeCommand, fc.MaterializeCommand)
	setString(&cfg.LogFile, fc.LogFile)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.TraceFile, fc.TraceFile)

	if fc.RetentionPeriod != nil {
		cfg.RetentionPeriod = fc.RetentionPeriod.Duration
	}
	if fc.AvailabilityCheckInterval != nil {
		cfg.AvailabilityCheckInterval = fc.AvailabilityCheckInterval.Duration
	}
	if fc.WatchRemote != nil {
		cfg.WatchRemote = *fc.WatchRemote
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
