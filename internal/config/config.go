package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds database connection settings.
// Driver selects the backend: postgres, sqlite, mysql or sqlserver.
type DatabaseConfig struct {
	Driver             string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	Path               string // sqlite file path, ":memory:" allowed
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// ListConfig bounds list queries.
type ListConfig struct {
	LimitDefault int64
	LimitMax     int64
}

// AuthConfig controls how the caller identity is established.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	// TrustUserHeader accepts X-User-ID as the caller id. Only for deployments behind
	// a gateway that sets it.
	TrustUserHeader bool
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string
	TZLocation string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	List     ListConfig
	Auth     AuthConfig
	Log      LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", "postgres"),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			Path:               getEnv("DB_PATH", "itemapi.db"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		List: ListConfig{
			LimitDefault: int64(getEnvInt("LIST_LIMIT_DEFAULT", 1000)),
			LimitMax:     int64(getEnvInt("LIST_LIMIT_MAX", 5000)),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			JWTIssuer:       getEnv("JWT_ISSUER", ""),
			TrustUserHeader: getEnvBool("AUTH_TRUST_USER_HEADER", false),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			TZLocation: getEnv("TZ_LOCATION", "UTC"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
