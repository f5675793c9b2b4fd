package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageFirestore = "firestore"
	StoragePostgres  = "postgres"
	StorageMemory    = "memory"
)

type Config struct {
	Port           string
	StorageDriver  string
	AllowedOrigins []string

	FirebaseProjectID   string
	FirebaseCredentials string
	AppCheckEnforced    bool

	DatabaseURL string

	GoogleProjectID   string
	GooglePubSubTopic string
	GoogleCredentials string

	MaxImportRows        int
	ExistenceChunkSize   int
	ExistenceConcurrency int
	WriteBatchSize       int
	DefaultOrgID         string

	ImportRatePerMinute int
	ImportRateBurst     int

	DefaultRedirectURL string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", StorageFirestore)),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		AppCheckEnforced:    getEnvBool("APPCHECK_ENFORCED", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		GoogleProjectID:   getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic: getEnv("GOOGLE_PUBSUB_TOPIC", ""),
		GoogleCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		MaxImportRows:        getEnvInt("MAX_IMPORT_ROWS", 5000),
		ExistenceChunkSize:   getEnvInt("EXISTENCE_CHUNK_SIZE", 500),
		ExistenceConcurrency: getEnvInt("EXISTENCE_CONCURRENCY", 4),
		WriteBatchSize:       getEnvInt("WRITE_BATCH_SIZE", 500),
		DefaultOrgID:         getEnv("DEFAULT_ORG_ID", "default"),

		ImportRatePerMinute: getEnvInt("IMPORT_RATE_PER_MINUTE", 30),
		ImportRateBurst:     getEnvInt("IMPORT_RATE_BURST", 5),

		DefaultRedirectURL: getEnv("DEFAULT_REDIRECT_URL", "https://adsell.ai"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
