package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendS3       = "s3"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per request, event streams excluded (ex: 5s)
	SSEHeartbeat    time.Duration // keep-alive comment on event streams (ex: 15s)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Locale           string        // BCP 47 tag used for name ordering and search (default: en)
	StoreBackend     string        // memory | sqlite | postgres | redis | s3
	AutosaveInterval time.Duration // interval commit (default: 30s)
	SeedFile         string        // optional YAML seed; empty = built-in preview data
	SeedOnEmpty      bool          // seed an empty store on startup

	// SQL
	SQLitePath  string // ex: "/data/itour.db"
	PostgresDSN string // required when StoreBackend=postgres

	// S3
	S3Bucket    string // required when StoreBackend=s3
	S3Region    string
	S3Endpoint  string // optional (MinIO)
	S3PathStyle bool
	S3Key       string // object key of the snapshot

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	RateLimitPerMin int      // requests per minute per client IP on /api (0 = disabled)
	AllowedHosts    []string // optional, restrict access to specific Host headers
	AllowedCIDRS    []string // optional, restrict /api/persist, /metrics and /infra to these IPs
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ITOUR_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("ITOUR_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("ITOUR_REQUEST_TIMEOUT", 5*time.Second),
		SSEHeartbeat:    mustDuration("ITOUR_SSE_HEARTBEAT", 15*time.Second),

		// Logging
		LogLevel:  getenv("ITOUR_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ITOUR_PRETTY_LOG", true),

		// Store
		Locale:           getenv("ITOUR_LOCALE", "en"),
		StoreBackend:     strings.ToLower(getenv("ITOUR_STORE_BACKEND", BackendSQLite)),
		AutosaveInterval: mustDuration("ITOUR_AUTOSAVE_INTERVAL", 30*time.Second),
		SeedFile:         getenv("ITOUR_SEED_FILE", ""),
		SeedOnEmpty:      mustBool("ITOUR_SEED_ON_EMPTY", false),

		SQLitePath:  getenv("ITOUR_SQLITE_PATH", "/data/itour.db"),
		PostgresDSN: getenv("ITOUR_POSTGRES_DSN", ""),

		S3Bucket:    getenv("ITOUR_S3_BUCKET", ""),
		S3Region:    getenv("ITOUR_S3_REGION", "us-east-1"),
		S3Endpoint:  getenv("ITOUR_S3_ENDPOINT", ""),
		S3PathStyle: mustBool("ITOUR_S3_PATH_STYLE", false),
		S3Key:       getenv("ITOUR_S3_KEY", "itour/snapshot.json"),

		// Redis settings
		RedisUser:             getenv("ITOUR_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("ITOUR_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("ITOUR_REDIS_PASSWORD", ""),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		RateLimitPerMin: getenvInt("ITOUR_RATE_LIMIT_PER_MIN", 120),
		AllowedHosts:    splitAndTrim(getenv("ITOUR_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    parseAllowedIPs(getenv("ITOUR_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("ITOUR_TRUST_PROXY", false),
	}

	// Backend specific requirements
	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		cfg.PostgresDSN = requireEnv("ITOUR_POSTGRES_DSN")
	case BackendS3:
		cfg.S3Bucket = requireEnv("ITOUR_S3_BUCKET")
	case BackendRedis:
		cfg.RedisAddr = requireEnv("ITOUR_REDIS_ADDR")
		cfg.RedisDB = requireEnvInt("ITOUR_REDIS_DB")
		// Validate Redis password configuration
		if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
			panic("❌ FATAL: ITOUR_REDIS_PASSWORD is required when ITOUR_REDIS_PASSWORD_REQUIRED=true")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown ITOUR_STORE_BACKEND %q (want memory, sqlite, postgres, redis or s3)", cfg.StoreBackend))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		if cfg.PostgresDSN != "" {
			cfgCopy.PostgresDSN = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
