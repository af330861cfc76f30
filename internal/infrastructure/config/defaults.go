package config

import "time"

const (
	DefaultHTTPPort          = "8080"
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultBackoffInitial    = 1 * time.Second
	DefaultBackoffMax        = 10 * time.Second
	DefaultMaxBodyBytes      = 8 << 20
	DefaultMaxRedirects      = 10
	DefaultHistoryLimit      = 50
	MaxHistoryLimit          = 1000
	DefaultLogMaxSizeMB      = 5
	DefaultLogMaxBackups     = 3
)
