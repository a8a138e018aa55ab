package config

import (
	"afribook/pkg/logger"
	"afribook/pkg/sealer"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Settings is everything read from the environment.
type Settings struct {
	APIBaseURL     string        `env:"API_BASE_URL"`
	AppHostname    string        `env:"APP_HOSTNAME"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=30s"`
	PhoneRegion    string        `env:"PHONE_REGION, default=NG"`

	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFormat string `env:"LOG_FORMAT, default=text"`

	Session SessionConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	Kafka   KafkaConfig
	Sandbox SandboxConfig
}

type SessionConfig struct {
	Store string        `env:"SESSION_STORE, default=file"`
	File  string        `env:"SESSION_FILE"`
	TTL   time.Duration `env:"SESSION_TTL, default=168h"`
	// SealKey, when set, is a base64 AES-256 key used to encrypt stored
	// session values.
	SealKey string `env:"SESSION_SEAL_KEY"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
	Prefix   string `env:"REDIS_PREFIX, default=afribook:session:"`
}

type MongoConfig struct {
	URI          string        `env:"MONGO_URI, default=mongodb://localhost:27017"`
	DatabaseName string        `env:"MONGO_DATABASE_NAME, default=afribook"`
	Collection   string        `env:"MONGO_COLLECTION, default=agent_sessions"`
	ConnTimeout  time.Duration `env:"MONGO_CONN_TIMEOUT, default=10s"`
}

type KafkaConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS"`
	Topic        string        `env:"KAFKA_TOPIC, default=afribook.agent-events"`
	Compression  string        `env:"KAFKA_COMPRESSION, default=snappy"`
	RequireAcks  int           `env:"KAFKA_REQUIRE_ACKS, default=-1"`
	MaxAttempts  int           `env:"KAFKA_MAX_ATTEMPTS, default=3"`
	BatchTimeout time.Duration `env:"KAFKA_BATCH_TIMEOUT, default=10ms"`
	Async        bool          `env:"KAFKA_ASYNC, default=false"`
}

// SandboxConfig drives the local stand-in for the bookings API.
type SandboxConfig struct {
	Port            string        `env:"PORT, default=8080"`
	JWTSecret       string        `env:"JWT_SECRET, default=sandbox-secret-change-me"`
	TokenTTL        time.Duration `env:"TOKEN_TTL, default=168h"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT, default=15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT, default=15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT, default=60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=30s"`
	HandlerTimeout  time.Duration `env:"HANDLER_TIMEOUT, default=30s"`
	MaxRequestSize  int64         `env:"MAX_REQUEST_SIZE, default=10485760"`
	SignInLimit     int           `env:"SIGNIN_RATE_LIMIT, default=10"`
	SignInWindow    time.Duration `env:"SIGNIN_RATE_WINDOW, default=1m"`
}

type Config struct {
	Settings

	Log *logger.Logger
}

// Load reads the process environment, validates it and logs the result.
func Load(serviceName string) *Config {
	cfg, err := LoadWith(context.Background(), serviceName, envconfig.OsLookuper())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.LogConfiguration()
	return cfg
}

func LoadWith(ctx context.Context, serviceName string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg.Settings,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	cfg.Log = logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var errors []string

	if cfg.APIBaseURL != "" && !regexp.MustCompile(`^https?://`).MatchString(cfg.APIBaseURL) {
		errors = append(errors, fmt.Sprintf("APIBaseURL must start with 'http://' or 'https://', got: %s", cfg.APIBaseURL))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.Session.TTL <= 0 {
		errors = append(errors, fmt.Sprintf("SessionTTL must be positive, got: %s", cfg.Session.TTL))
	}
	if cfg.Session.SealKey != "" {
		if _, err := sealer.New(cfg.Session.SealKey); err != nil {
			errors = append(errors, fmt.Sprintf("SessionSealKey is invalid: %v", err))
		}
	}
	if len(cfg.PhoneRegion) != 2 {
		errors = append(errors, fmt.Sprintf("PhoneRegion must be a two-letter region code, got: %s", cfg.PhoneRegion))
	}

	switch cfg.Session.Store {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			errors = append(errors, "RedisAddr cannot be empty when SessionStore is redis")
		}
	case StoreMongo:
		if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.Mongo.URI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.Mongo.URI)))
		}
		if cfg.Mongo.DatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.Mongo.ConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.Mongo.ConnTimeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("SessionStore must be one of memory, file, redis, mongo, got: %s", cfg.Session.Store))
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic == "" {
		errors = append(errors, "KafkaTopic cannot be empty when KafkaBrokers is set")
	}

	if cfg.Sandbox.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.Sandbox.MaxRequestSize))
	}
	if cfg.Sandbox.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.Sandbox.ShutdownTimeout))
	}
	if cfg.Sandbox.HandlerTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("HandlerTimeout must be positive, got: %s", cfg.Sandbox.HandlerTimeout))
	}
	if cfg.Sandbox.SignInLimit <= 0 || cfg.Sandbox.SignInWindow <= 0 {
		errors = append(errors, fmt.Sprintf("SignInRateLimit and SignInRateWindow must be positive, got: %d per %s", cfg.Sandbox.SignInLimit, cfg.Sandbox.SignInWindow))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Debug("Configuration loaded successfully",
		"api_base_url", cfg.APIBaseURL,
		"app_hostname", cfg.AppHostname,
		"request_timeout", cfg.RequestTimeout,
		"phone_region", cfg.PhoneRegion,
		"session_store", cfg.Session.Store,
		"session_ttl", cfg.Session.TTL,
		"session_sealed", cfg.Session.SealKey != "",
		"redis_addr", cfg.Redis.Addr,
		"mongo_uri", redactMongoURI(cfg.Mongo.URI),
		"mongo_database", cfg.Mongo.DatabaseName,
		"kafka_brokers", strings.Join(cfg.Kafka.Brokers, ","),
		"kafka_topic", cfg.Kafka.Topic,
	)
}

// Hostname is the host the client believes it runs on, used to pick the
// API root when no explicit base URL is configured.
func (cfg *Config) Hostname() string {
	if cfg.AppHostname != "" {
		return cfg.AppHostname
	}
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}
