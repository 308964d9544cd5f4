package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/kabyedict/internal/flagx"
	"github.com/dmitrijs2005/kabyedict/internal/server/reviewers"
	"github.com/dmitrijs2005/kabyedict/internal/timex"
)

// JsonConfig is the JSON file layout. Durations use timex.Duration so both
// "10s" and integer nanoseconds are accepted. Absent keys keep the current
// value.
type JsonConfig struct {
	EndpointAddrHTTP    string               `json:"endpoint_addr_http"`
	DatabaseDSN         string               `json:"database_dsn"`
	AutoMigrate         *bool                `json:"auto_migrate"`
	LogLevel            string               `json:"log_level"`
	S3RootUser          string               `json:"s3_root_user"`
	S3RootPassword      string               `json:"s3_root_password"`
	S3Bucket            string               `json:"s3_bucket"`
	S3Region            string               `json:"s3_region"`
	S3BaseEndpoint      string               `json:"s3_base_endpoint"`
	S3PublicURL         string               `json:"s3_public_url"`
	S3Prefix            string               `json:"s3_prefix"`
	ImageTimeout        timex.Duration       `json:"image_timeout"`
	ImageRetries        *int                 `json:"image_retries"`
	MaxImageSize        int64                `json:"max_image_size"`
	CORSOrigins         []string             `json:"cors_origins"`
	Reviewers           []reviewers.Reviewer `json:"reviewers"`
	TracingEnabled      *bool                `json:"tracing_enabled"`
	TracingEndpoint     string               `json:"tracing_endpoint"`
	MaintenanceMode     *bool                `json:"maintenance_mode"`
	MaintenanceStart    *time.Time           `json:"maintenance_start"`
	MaintenanceDuration timex.Duration       `json:"maintenance_duration"`
}

// parseJson loads configuration values from the file named by the -c or
// -config flag. Without the flag nothing is loaded. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.S3Prefix, c.S3Prefix)
	setString(&config.TracingEndpoint, c.TracingEndpoint)

	if c.AutoMigrate != nil {
		config.AutoMigrate = *c.AutoMigrate
	}
	if c.ImageTimeout.Duration > 0 {
		config.ImageTimeout = c.ImageTimeout.Duration
	}
	if c.ImageRetries != nil {
		config.ImageRetries = *c.ImageRetries
	}
	if c.MaxImageSize > 0 {
		config.MaxImageSize = c.MaxImageSize
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.Reviewers != nil {
		config.Reviewers = c.Reviewers
	}
	if c.TracingEnabled != nil {
		config.TracingEnabled = *c.TracingEnabled
	}
	if c.MaintenanceMode != nil {
		config.MaintenanceMode = *c.MaintenanceMode
	}
	if c.MaintenanceStart != nil {
		config.MaintenanceStart = *c.MaintenanceStart
	}
	if c.MaintenanceDuration.Duration > 0 {
		config.MaintenanceDuration = c.MaintenanceDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
