package configs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env     string
	AppPort int
	LogDir  string

	StoreDriver string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   string
	RateLimitMax  int
	UsersCacheTTL time.Duration
}

func LoadConfig() Config {
	// A missing .env is fine; the environment alone may configure us.
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using environment only")
		}
	}

	return Config{
		Env:     getString("GO_ENV", "development"),
		AppPort: getInt("APP_PORT", 3004),
		LogDir:  getString("LOG_DIR", "logs"),

		StoreDriver: getString("STORE_DRIVER", DriverPostgres),
		DBHost:      getString("DB_HOST", "localhost"),
		DBPort:      getInt("DB_PORT", 5432),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getString("DB_NAME", "taskflow"),
		DBSSLMode:   getString("DB_SSLMODE", "disable"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getInt("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),
		CORSOrigins:   getString("CORS_ORIGINS", "*"),
		RateLimitMax:  getInt("RATE_LIMIT_MAX", 100),
		UsersCacheTTL: getDuration("USERS_CACHE_TTL", 5*time.Minute),
	}
}

// Validate rejects configurations that cannot serve traffic safely.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" && c.Env != "development" && c.Env != "test" {
		return errors.New("JWT_SECRET must be set outside development")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

// Secret returns the signing key, falling back to a fixed development key.
func (c Config) Secret() []byte {
	if c.JWTSecret == "" {
		return []byte("taskflow-development-secret")
	}
	return []byte(c.JWTSecret)
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func (c Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
