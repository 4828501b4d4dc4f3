package config

import (
	"encoding/json"
	"os"

	"github.com/mkaminskis/passvault/internal/flagx"
)

// jsonConfig is the DTO for the optional JSON configuration file.
// Absent keys leave the corresponding Config fields untouched.
type jsonConfig struct {
	Backend     *string `json:"backend"`
	SQLitePath  *string `json:"sqlite_path"`
	DatabaseDSN *string `json:"database_dsn"`
	S3Endpoint  *string `json:"s3_base_endpoint"`
	S3Region    *string `json:"s3_region"`
	S3Bucket    *string `json:"s3_bucket"`
	S3ObjectKey *string `json:"s3_object_key"`
	S3AccessKey *string `json:"s3_access_key"`
	S3SecretKey *string `json:"s3_secret_key"`
	LogLevel    *string `json:"log_level"`
}

// parseJSON overlays values from the JSON file named by -c/-config, if
// any. A missing flag means no file is loaded; an unreadable or invalid
// file is a startup error and panics.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&cfg.Backend, c.Backend)
	apply(&cfg.SQLitePath, c.SQLitePath)
	apply(&cfg.DatabaseDSN, c.DatabaseDSN)
	apply(&cfg.S3Endpoint, c.S3Endpoint)
	apply(&cfg.S3Region, c.S3Region)
	apply(&cfg.S3Bucket, c.S3Bucket)
	apply(&cfg.S3ObjectKey, c.S3ObjectKey)
	apply(&cfg.S3AccessKey, c.S3AccessKey)
	apply(&cfg.S3SecretKey, c.S3SecretKey)
	apply(&cfg.LogLevel, c.LogLevel)
}
