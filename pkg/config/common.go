package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Env helpers for values read outside the cleanenv structs: the -env flag
// default in cmd/idm and the mongotest toggles.

// GetEnvOrDefault returns the value of key, or fallback when it is unset or empty
func GetEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvBool parses key as a boolean. yes/no and on/off are accepted
// alongside the strconv.ParseBool forms.
func GetEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return fallback
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// GetEnvDuration parses key with time.ParseDuration ("10m", "1h30m")
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
