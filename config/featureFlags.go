package config

import (
	"os"
	"strings"
)

func boolFromEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ServiceOrderLockEnabled serializes hierarchy writes per service order with a Redis lock.
// Only effective when Redis is connected.
//
// Set via env:
// - SERVICE_ORDER_LOCK_ENABLED=false to disable (default true)
func ServiceOrderLockEnabled() bool {
	return boolFromEnv("SERVICE_ORDER_LOCK_ENABLED", true)
}

// OutboxDispatcherEnabled starts the service order event publisher in the API process.
//
// Set via env:
// - OUTBOX_DISPATCHER_ENABLED=true
func OutboxDispatcherEnabled() bool {
	return boolFromEnv("OUTBOX_DISPATCHER_ENABLED", false)
}

// MigrationsEnabled runs AutoMigrate on startup unless SKIP_MIGRATIONS is set.
func MigrationsEnabled() bool {
	return !boolFromEnv("SKIP_MIGRATIONS", false)
}
