package config

import (
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port          string
	DBDriver      string // postgres | sqlite
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
	// Token settings
	AccessTokenTTLMinutes string // minutes
	RefreshTokenTTLDays   string // days
	RefreshJWTSecret      string
	// HTTP
	CORSAllowedOrigins []string
	BarcodeCacheTTL    time.Duration
	SeedDemoData       bool
}

func Load() *Config {
	return &Config{
		Port:                  getenv("PORT", "8080"),
		DBDriver:              strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DBHost:                getenv("DB_HOST", "localhost"),
		DBPort:                getenv("DB_PORT", "5432"),
		DBUser:                getenv("DB_USER", "postgres"),
		DBPassword:            getenv("DB_PASSWORD", "postgres"),
		DBName:                getenv("DB_NAME", "toolcrib"),
		DBSSLMode:             getenv("DB_SSLMODE", "disable"),
		SQLitePath:            getenv("SQLITE_PATH", "toolcrib.db"),
		JWTSecret:             getenv("JWT_SECRET", "supersecret_change_me"),
		AdminEmail:            getenv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:         getenv("ADMIN_PASSWORD", "admin123"),
		AdminFullName:         getenv("ADMIN_FULL_NAME", "Administrator"),
		AccessTokenTTLMinutes: getenv("ACCESS_TOKEN_TTL_MINUTES", "15"),
		RefreshTokenTTLDays:   getenv("REFRESH_TOKEN_TTL_DAYS", "30"),
		RefreshJWTSecret:      getenv("REFRESH_JWT_SECRET", getenv("JWT_SECRET", "supersecret_change_me")),
		CORSAllowedOrigins:    splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		BarcodeCacheTTL:       durationEnv("BARCODE_CACHE_TTL", 10*time.Minute),
		SeedDemoData:          boolEnv("SEED_DEMO_DATA", false),
	}
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
		log.Printf("invalid bool for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
