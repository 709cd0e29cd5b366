package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/flagx"
	"github.com/dmitrijs2005/yelpcamp/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its non-zero fields are copied into the runtime
// Config, so a partial file keeps the defaults for everything it omits.
type JsonConfig struct {
	HTTPAddr                   string         `json:"http_addr"`
	BaseURL                    string         `json:"base_url"`
	DatabaseDSN                string         `json:"database_dsn"`
	SecretKey                  string         `json:"secret_key"`
	SessionValidityDuration    timex.Duration `json:"session_validity_duration"`
	ResetTokenValidityDuration timex.Duration `json:"reset_token_validity_duration"`
	AdminCode                  string         `json:"admin_code"`
	GeocoderAPIKey             string         `json:"geocoder_api_key"`
	S3AccessKey                string         `json:"s3_access_key"`
	S3SecretKey                string         `json:"s3_secret_key"`
	S3Bucket                   string         `json:"s3_bucket"`
	S3Region                   string         `json:"s3_region"`
	S3BaseEndpoint             string         `json:"s3_base_endpoint"`
	S3PublicBaseURL            string         `json:"s3_public_base_url"`
	ImageMaxWidth              int            `json:"image_max_width"`
	MailFrom                   string         `json:"mail_from"`
	MailRegion                 string         `json:"mail_region"`
	TrustProxyHeaders          bool           `json:"trust_proxy_headers"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
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

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionValidityDuration, c.SessionValidityDuration)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	setString(&config.AdminCode, c.AdminCode)
	setString(&config.GeocoderAPIKey, c.GeocoderAPIKey)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	if c.ImageMaxWidth > 0 {
		config.ImageMaxWidth = c.ImageMaxWidth
	}
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.MailRegion, c.MailRegion)
	if c.TrustProxyHeaders {
		config.TrustProxyHeaders = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
