package config

import "time"

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultSessionTTL     = 7 * 24 * time.Hour
	DefaultSessionStore   = StoreFile

	DefaultMongoDatabaseName = "afribook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultKafkaTopic = "afribook.agent-events"

	DefaultPort            = "8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultHandlerTimeout  = 30 * time.Second
	DefaultMaxRequestSize  = 10 * 1024 * 1024 // 10MB, invoices included
	DefaultSignInLimit     = 10
	DefaultSignInWindow    = time.Minute
)

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)
