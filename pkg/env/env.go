package env

import "os"

// Get returns the named environment variable, or fallback when it is unset
// or empty. Used for the handful of platform variables (PORT, DYNO) that
// live outside the CHOPWELL_ config prefix.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
