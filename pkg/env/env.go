// Package env has small helpers for reading environment variables outside
// the envconfig-managed config struct (ad hoc flags like LOG_FORMAT).
package env

import "os"

// Get returns the value of key, or fallback when the variable is unset or
// empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
