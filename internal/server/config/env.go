package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = func() error { return godotenv.Load() }

// parseEnv overlays settings from the environment. A .env file in the
// working directory is loaded first; variables already set in the process
// environment win over the file.
//
// Recognised variables:
//
//	PORT                     HTTP port, binds ":<PORT>"
//	DATABASE_URL             PostgreSQL DSN
//	S3_ACCESS_KEY            S3 access key
//	S3_SECRET_KEY            S3 secret key
//	S3_BUCKET                S3 bucket name
//	S3_REGION                S3 region
//	S3_ENDPOINT              S3 base endpoint
//	S3_PUBLIC_URL            public URL prefix of stored images
//	CORS_ORIGIN              comma-separated allowed origins
//	MAINTENANCE_MODE         "true" to show the maintenance notice
//	OTEL_EXPORTER_OTLP_ENDPOINT enables tracing to this endpoint
func parseEnv(config *Config) {
	_ = loadDotEnv()

	if port, ok := lookup("PORT"); ok {
		config.EndpointAddrHTTP = ":" + strings.TrimPrefix(port, ":")
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		config.DatabaseDSN = v
	}
	lookupInto(&config.S3RootUser, "S3_ACCESS_KEY")
	lookupInto(&config.S3RootPassword, "S3_SECRET_KEY")
	lookupInto(&config.S3Bucket, "S3_BUCKET")
	lookupInto(&config.S3Region, "S3_REGION")
	lookupInto(&config.S3BaseEndpoint, "S3_ENDPOINT")
	lookupInto(&config.S3PublicURL, "S3_PUBLIC_URL")

	if v, ok := lookup("CORS_ORIGIN"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		config.CORSOrigins = origins
	}
	if v, ok := lookup("MAINTENANCE_MODE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.MaintenanceMode = b
		}
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		config.TracingEnabled = true
		config.TracingEndpoint = v
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func lookupInto(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}
