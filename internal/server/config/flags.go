package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/flagx"
)

// ServerFlags lists the short flags parseFlags understands. Commands that add
// positional arguments use it to tell flag values apart.
var ServerFlags = []string{"-a", "-u", "-d", "-s", "-t", "-b", "-g", "-e", "-w"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-u string   public base URL used in e-mail links
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session validity, minutes
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-w int      maximum stored image width, pixels
//
// Secrets other than the signing key (admin code, API keys) are deliberately
// not accepted on the command line; use the JSON file or the environment.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], ServerFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.BaseURL, "u", config.BaseURL, "public base URL")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session_validity_duration (in minutes)")

	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.IntVar(&config.ImageMaxWidth, "w", config.ImageMaxWidth, "maximum image width")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
}
