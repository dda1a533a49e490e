// Package config loads runtime configuration for the bodykeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file (see parseFile) selected via -c or --config.
//     Files ending in .yaml or .yml are YAML, everything else is JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory
//	-b string   cloud backend: drive or s3
//	-r string   cloud root (drive folder or s3 key prefix)
//	-i int      cloud availability check interval (seconds)
//
// # File schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "data_dir": "/home/me/.bodykeeper",
//	  "cloud_backend": "drive",
//	  "cloud_root": "/home/me/iCloudDrive/bodykeeper",
//	  "retention_period": "720h",
//	  "availability_check_interval": "30s",
//	  "materialize_command": "brctl download {path}",
//	  "watch_remote": true,
//	  "log_file": "/home/me/.bodykeeper/bodykeeper.log",
//	  "log_level": "info"
//	}
//
// The s3 backend additionally reads s3_bucket, s3_region, s3_base_endpoint,
// s3_access_key and s3_secret_key. Setting trace_file turns on span export.
//
// This package does not read environment variables directly; the AWS SDK
// still picks up its own environment when no static keys are configured.
package config
