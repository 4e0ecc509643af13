// utils/env.go - environment lookup helpers
package utils

import (
	"os"
	"strconv"
	"strings"
)

// GetEnv returns the trimmed value of key, or defaultVal when unset or blank.
func GetEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// GetEnvInt parses key as an int, falling back to def on absence or parse error.
func GetEnvInt(key string, def int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

// GetEnvBool understands true/false, 1/0 and yes/no.
func GetEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return def
	}
}
