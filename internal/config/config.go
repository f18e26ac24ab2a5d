package config

import "os"

type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", "habits.db"),
		JWTSecret:   getEnv("JWT_SECRET", "jwt-secret-key-change-in-production"),
		Port:        getEnv("PORT", "5000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5000"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
