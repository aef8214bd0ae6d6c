package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	DatabaseURL string
	// PhoneRegion is the default region for parsing national phone numbers
	// that arrive without a country prefix.
	PhoneRegion    string
	RequestTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CONTACTLINK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	region := os.Getenv("CONTACTLINK_PHONE_REGION")
	if region == "" {
		region = "US"
	}

	timeout := 15 * time.Second
	if raw := os.Getenv("CONTACTLINK_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}

	return Server{
		Addr:           addr,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PhoneRegion:    region,
		RequestTimeout: timeout,
	}
}
