package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreDriverMySQL = "mysql"
	StoreDriverMongo = "mongo"
)

// Settings is everything the sync pass reads from the environment.
type Settings struct {
	StoreDriver       string `validate:"required,oneof=mysql mongo"`
	DBUser            string `validate:"required_if=StoreDriver mysql"`
	DBPassword        string
	DBHost            string `validate:"required_if=StoreDriver mysql"`
	DBPort            string
	DBName            string `validate:"required_if=StoreDriver mysql"`
	DBConnectAttempts int    `validate:"gte=1"`
	MongoURL          string `validate:"required_if=StoreDriver mongo"`

	FirebaseDatabaseURL string
	FirebaseKeyFile     string
	FirebaseProjectID   string

	SourceCollection    string        `validate:"required"`
	SourceSubcollection string        `validate:"required"`
	ChunkSize           int           `validate:"gte=1"`
	Workers             int           `validate:"gte=1,lte=256"`
	RunTimeout          time.Duration `validate:"gte=0s"`
	PartitionTimeout    time.Duration `validate:"gte=0s"`
	PriceGroup          string
	SkipMigrations      bool

	RedisAddress string
	LockKey      string `validate:"required"`

	PubSubProjectID       string `validate:"required_with=PubSubTopic"`
	PubSubTopic           string
	PubSubCredentialsJSON string
	ReportBucket          string

	LogLevel string `validate:"oneof=panic fatal error warn warning info debug trace"`
	LogFile  string
}

var validate = validator.New()

func init() {
	// Load env from .env
	godotenv.Load()
}

// LoadSettings reads the environment and validates the result.
func LoadSettings() (Settings, error) {
	s := Settings{
		StoreDriver:       strings.ToLower(stringFromEnv("STORE_DRIVER", StoreDriverMySQL)),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            stringFromEnv("DB_PORT", "3306"),
		DBName:            os.Getenv("DB_NAME"),
		DBConnectAttempts: intFromEnv("DB_CONNECT_ATTEMPTS", 5),
		MongoURL:          os.Getenv("MONGO_DBURL"),

		FirebaseDatabaseURL: strings.TrimSpace(os.Getenv("FIREBASE_DBURL")),
		FirebaseKeyFile:     strings.TrimSpace(os.Getenv("FIREBASE_AUTH_KEYFILE")),
		FirebaseProjectID:   strings.TrimSpace(os.Getenv("FIREBASE_PROJECT_ID")),

		SourceCollection:    stringFromEnv("SYNC_SOURCE_COLLECTION", "areabaskets"),
		SourceSubcollection: stringFromEnv("SYNC_SOURCE_SUBCOLLECTION", "variants"),
		ChunkSize:           intFromEnv("SYNC_CHUNK_SIZE", 50),
		Workers:             intFromEnv("SYNC_WORKERS", 8),
		RunTimeout:          durationFromEnv("SYNC_RUN_TIMEOUT", 30*time.Minute),
		PartitionTimeout:    durationFromEnv("SYNC_PARTITION_TIMEOUT", 2*time.Minute),
		PriceGroup:          stringFromEnv("SYNC_PRICE_GROUP", "ROT"),
		SkipMigrations:      envBoolDefault("SKIP_MIGRATIONS", false),

		RedisAddress: strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		LockKey:      stringFromEnv("SYNC_LOCK_KEY", "areabasket-sync:run"),

		PubSubProjectID:       pubSubProjectID(),
		PubSubTopic:           strings.TrimSpace(os.Getenv("SYNC_PUBSUB_TOPIC")),
		PubSubCredentialsJSON: os.Getenv("PUBSUB_CREDENTIALS_JSON"),
		ReportBucket:          strings.TrimSpace(os.Getenv("SYNC_REPORT_BUCKET")),

		LogLevel: strings.ToLower(stringFromEnv("LOG_LEVEL", "info")),
		LogFile:  strings.TrimSpace(os.Getenv("LOG_FILE")),
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := ProcessValidationErrors(verrs)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(parts, ", "))
}

// FirebaseConfigured reports whether the source store integration can start.
// Both the database url and the service account key are needed.
func (s Settings) FirebaseConfigured() bool {
	return s.FirebaseDatabaseURL != "" && s.FirebaseKeyFile != ""
}

func ProcessValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	errorResponse := make(map[string]string)
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func pubSubProjectID() string {
	// Prefer explicit override.
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run/Cloud Functions often set this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

func stringFromEnv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// durationFromEnv accepts Go durations ("90s") or a bare number of seconds.
func durationFromEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
