package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	JWTSecret               string
	PostsPerPage            int
	IndexCacheTTL           time.Duration
	PageCacheMaxEntries     int
	MediaRoot               string
	MediaURL                string
	FirebaseCredentialsPath string
	FirebaseBucket          string
	SessionLifetime         time.Duration
	CSRFEnabled             bool
	LoginURL                string
}

// Load reads configuration from the environment, after loading a .env file if present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "yatube"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		PostsPerPage:            getEnvInt("POSTS_PER_PAGE", 10),
		IndexCacheTTL:           time.Duration(getEnvInt("INDEX_CACHE_SECONDS", 20)) * time.Second,
		PageCacheMaxEntries:     getEnvInt("PAGE_CACHE_MAX_ENTRIES", 1000),
		MediaRoot:               getEnv("MEDIA_ROOT", "media"),
		MediaURL:                getEnv("MEDIA_URL", "/media/"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseBucket:          getEnv("FIREBASE_BUCKET", ""),
		SessionLifetime:         getEnvDuration("SESSION_LIFETIME", 14*24*time.Hour),
		CSRFEnabled:             getEnvBool("CSRF_ENABLED", true),
		LoginURL:                getEnv("LOGIN_URL", "/auth/login/"),
	}
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
