package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/bodykeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory
//	-b string   cloud backend, drive or s3
//	-r string   cloud root (drive folder or s3 key prefix)
//	-i int      availability check interval in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so cobra subcommands and -c do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-b", "-r", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.CloudBackend, "b", cfg.CloudBackend, "cloud backend (drive or s3)")
	fs.StringVar(&cfg.CloudRoot, "r", cfg.CloudRoot, "cloud root folder or key prefix")
	checkInterval := fs.Int("i", int(cfg.AvailabilityCheckInterval.Seconds()), "cloud availability check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AvailabilityCheckInterval = time.Duration(*checkInterval) * time.Second
}
