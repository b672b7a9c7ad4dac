package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig holds configuration for the SDK side: where the backend
// lives and where the guest cart database file is kept.
type ClientConfig struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	GuestCartPath  string
	Env            string
}

// ServerConfig holds configuration for the dev fixture backend.
type ServerConfig struct {
	Port        string
	Env         string
	JWTSecret   string
	RedisURL    string
	DatabaseURL string
	CartTTL     time.Duration
	CORSOrigins string
}

// LoadClient loads client configuration from the .env file / environment
func LoadClient() ClientConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return ClientConfig{
		APIBaseURL:     getEnv("AILAV_API_URL", "http://localhost:8080/api/v3"),
		RequestTimeout: getDuration("AILAV_REQUEST_TIMEOUT", 10*time.Second),
		GuestCartPath:  getEnv("AILAV_GUEST_CART_PATH", defaultGuestCartPath()),
		Env:            getEnv("AILAV_ENV", "development"),
	}
}

// LoadServer loads devserver configuration from the .env file / environment
func LoadServer() ServerConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return ServerConfig{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("AILAV_ENV", "development"),
		JWTSecret:   getEnv("JWT_SECRET", "dev-only-secret"),
		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CartTTL:     getDuration("CART_TTL", time.Hour*24*7),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),
	}
}

func defaultGuestCartPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "guestcart.db"
	}
	return filepath.Join(home, ".ailav", "guestcart.db")
}

// Helper to get an environment variable or return a default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using default", key)
	}
	return fallback
}
