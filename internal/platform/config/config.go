package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	AdminAPIToken string
	// VerifyBaseURL prefixes every document verification code.
	VerifyBaseURL  string
	LogLevel       string
	// OfficeLocation is stamped on applications that do not name one.
	OfficeLocation       string
	PrintBulkConcurrency int
	Database             DatabaseConfig
	Redis                RedisConfig
	Kafka                KafkaConfig
	Eligibility          EligibilityConfig
	ShutdownPeriod       time.Duration
}

// DatabaseConfig selects PostgreSQL stores. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL            string
	MigrationsPath string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnectTimeout time.Duration
}

// RedisConfig enables cross-instance change fan-out.
type RedisConfig struct {
	URL            string
	Channel        string
	PoolSize       int
	MinIdleConns   int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ConnectTimeout time.Duration
}

// KafkaConfig enables the change event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// EligibilityConfig points at the remote eligibility function used as the
// secondary existing-document lookup. RetryAfter is how long a failing lookup
// strategy is skipped before a trial call.
type EligibilityConfig struct {
	URL        string
	Timeout    time.Duration
	RetryAfter time.Duration
}

// FromEnv builds a Server config from environment variables, loading a .env
// file first when one is present.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:                 getEnv("PORTAL_ADDR", ":8080"),
		AdminAPIToken:        os.Getenv("ADMIN_API_TOKEN"),
		VerifyBaseURL:        getEnv("VERIFY_BASE_URL", "https://portal.example.gov/verify"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		OfficeLocation:       getEnv("DEFAULT_OFFICE_LOCATION", "Central Civil Registry Office"),
		PrintBulkConcurrency: getInt("PRINT_BULK_CONCURRENCY", 8),
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
			MaxOpenConns:   getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:   getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnectTimeout: getDuration("DATABASE_CONNECT_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			URL:            os.Getenv("REDIS_URL"),
			Channel:        getEnv("REDIS_CHANGE_CHANNEL", "govportal:changes"),
			PoolSize:       getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:   getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:    getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			ConnectTimeout: getDuration("REDIS_CONNECT_TIMEOUT", 15*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_CHANGE_TOPIC", "govportal.changes"),
		},
		Eligibility: EligibilityConfig{
			URL:        os.Getenv("ELIGIBILITY_URL"),
			Timeout:    getDuration("ELIGIBILITY_TIMEOUT", 3*time.Second),
			RetryAfter: getDuration("LOOKUP_RETRY_AFTER", 30*time.Second),
		},
		ShutdownPeriod: getDuration("SHUTDOWN_PERIOD", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
