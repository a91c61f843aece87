package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string
	LogLevel    string

	// Database configuration
	DatabasePath string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Kafka configuration
	KafkaBrokers   []string
	KafkaGroupID   string
	OrderTopics    []string
	QueueTopic     string
	NotifyTopic    string
	PublishTimeout time.Duration

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string

	// Queue defaults (seeded into queue_configuration on first boot)
	MaxConcurrentOrders       int
	AvgPreparationTimePerItem int
	BufferTime                int
	ExpressQueueMaxItems      int
	TokenExpiryTime           int

	// Notification defaults
	AutoNotificationEnabled          bool
	NotificationPositionThreshold    int
	NotificationAlmostReadyThreshold int

	// Background tasks
	ExpirySweepInterval time.Duration
	StatsInterval       time.Duration

	// Cache
	EntryCacheTTL    time.Duration
	SnapshotCacheTTL time.Duration
}

func LoadConfig() *Config {
	// Best effort in development; production supplies real env vars.
	_ = godotenv.Load()

	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabasePath: getEnv("DATABASE_PATH", "data/queue.db"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Kafka
		KafkaBrokers:   getEnvAsSlice("KAFKA_BROKERS", "localhost:9092"),
		KafkaGroupID:   getEnv("KAFKA_GROUP_ID", "queue-service-group"),
		OrderTopics:    getEnvAsSlice("ORDER_TOPICS", "order.created,order.status.changed"),
		QueueTopic:     getEnv("QUEUE_EVENTS_TOPIC", "queue.events"),
		NotifyTopic:    getEnv("NOTIFICATION_EVENTS_TOPIC", "notification.events"),
		PublishTimeout: getEnvAsDuration("PUBLISH_TIMEOUT", "5s"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "queue-service"),

		// Queue defaults
		MaxConcurrentOrders:       getEnvAsInt("MAX_CONCURRENT_ORDERS", 10),
		AvgPreparationTimePerItem: getEnvAsInt("AVG_PREP_TIME_PER_ITEM", 5),
		BufferTime:                getEnvAsInt("BUFFER_TIME", 2),
		ExpressQueueMaxItems:      getEnvAsInt("EXPRESS_QUEUE_MAX_ITEMS", 3),
		TokenExpiryTime:           getEnvAsInt("TOKEN_EXPIRY_TIME", 60),

		// Notifications
		AutoNotificationEnabled:          getEnvAsBool("AUTO_NOTIFICATION_ENABLED", true),
		NotificationPositionThreshold:    getEnvAsInt("NOTIFICATION_POSITION_THRESHOLD", 5),
		NotificationAlmostReadyThreshold: getEnvAsInt("NOTIFICATION_ALMOST_READY_THRESHOLD", 3),

		// Background tasks
		ExpirySweepInterval: getEnvAsDuration("EXPIRY_SWEEP_INTERVAL", "1m"),
		StatsInterval:       getEnvAsDuration("STATS_INTERVAL", "5m"),

		// Cache
		EntryCacheTTL:    getEnvAsDuration("ENTRY_CACHE_TTL", "1h"),
		SnapshotCacheTTL: getEnvAsDuration("SNAPSHOT_CACHE_TTL", "5s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue string) []string {
	valueStr := getEnv(key, defaultValue)
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
