package config

import (
	"flag"
	"os"

	"github.com/mkaminskis/passvault/internal/flagx"
)

// parseFlags overlays command-line flags onto cfg.
//
// Supported flags:
//
//	-b string   storage backend: memory | sqlite | postgres | s3
//	-f string   sqlite database file path
//	-d string   PostgreSQL DSN
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-g string   S3 region
//	-t string   S3 bucket
//	-o string   S3 object key of the vault document
//	-u string   S3 access key
//	-p string   S3 secret key
//	-l string   log level: debug | info | warn | error
//
// Arguments are filtered to the flags handled here, so -c/-config (the
// JSON loader's flags) pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-f", "-d", "-e", "-g", "-t", "-o", "-u", "-p", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "storage backend (memory|sqlite|postgres|s3)")
	fs.StringVar(&cfg.SQLitePath, "f", cfg.SQLitePath, "sqlite database file")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3Bucket, "t", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3ObjectKey, "o", cfg.S3ObjectKey, "S3 object key")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
