package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// MetadataValueLimit is the per-value length limit (in characters) the
// external archive enforces for tilleggsopplysninger values. The codec chunks
// longer values across numbered keys. Confirmed against the archive contract;
// override via DOKFLYT_METADATA_VALUE_LIMIT only for test rigs.
const MetadataValueLimit = 100

// Config captures process configuration. Built from environment variables so
// main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string
	PostgresURL   string

	Redis RedisConfig
	Kafka KafkaConfig

	// Base URLs of the external collaborators.
	ArchiveURL  string
	TaskURL     string
	PersonURL   string
	DispatchURL string

	// MetadataValueLimit is the archive's per-value character limit.
	MetadataValueLimit int

	// BackOfficeUnit receives follow-up tasks for rescan/split/original
	// orders on scanned documents.
	BackOfficeUnit string

	// OwnThemes is the agency's own case-theme set. Theme changes outside it
	// create a duplicate record instead of relinking.
	OwnThemes []string

	// ConsumerMaxRedeliveries caps consumer-level redelivery of a failed
	// record. Zero means unbounded, which is the production setting; test and
	// dev configurations cap it to keep poison records from looping forever.
	ConsumerMaxRedeliveries int
}

// RedisConfig mirrors the platform redis client knobs.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker addresses, topic names, and consumer group tuning.
type KafkaConfig struct {
	Brokers []string
	GroupID string

	TopicJournalpostUpdated string
	TopicTaskCreated        string
	TopicJournalRegistered  string

	// Workers bounds concurrent partition handlers in the consumer.
	Workers int
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	return Config{
		Addr:          envOr("DOKFLYT_ADDR", ":8080"),
		JWTSigningKey: envOr("DOKFLYT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresURL:   os.Getenv("DOKFLYT_POSTGRES_URL"),
		ArchiveURL:    envOr("DOKFLYT_ARCHIVE_URL", "http://localhost:8081/rest/journalpostapi/v1"),
		TaskURL:       envOr("DOKFLYT_TASK_URL", "http://localhost:8082/api/v1"),
		PersonURL:     envOr("DOKFLYT_PERSON_URL", "http://localhost:8083/api/v1"),
		DispatchURL:   envOr("DOKFLYT_DISPATCH_URL", "http://localhost:8084/rest/v1"),
		Redis: RedisConfig{
			URL:          os.Getenv("DOKFLYT_REDIS_URL"),
			PoolSize:     envInt("DOKFLYT_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("DOKFLYT_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:                 splitList(envOr("DOKFLYT_KAFKA_BROKERS", "localhost:9092")),
			GroupID:                 envOr("DOKFLYT_KAFKA_GROUP", "dokflyt"),
			TopicJournalpostUpdated: envOr("DOKFLYT_TOPIC_JOURNALPOST_UPDATED", "dokflyt.journalpost-updated"),
			TopicTaskCreated:        envOr("DOKFLYT_TOPIC_TASK_CREATED", "oppgave.opprettet"),
			TopicJournalRegistered:  envOr("DOKFLYT_TOPIC_JOURNAL_REGISTERED", "dokarkiv.journalfoert"),
			Workers:                 envInt("DOKFLYT_KAFKA_WORKERS", 4),
		},
		MetadataValueLimit:      envInt("DOKFLYT_METADATA_VALUE_LIMIT", MetadataValueLimit),
		BackOfficeUnit:          envOr("DOKFLYT_BACK_OFFICE_UNIT", "2950"),
		OwnThemes:               splitList(envOr("DOKFLYT_OWN_THEMES", "BID,FAR")),
		ConsumerMaxRedeliveries: envInt("DOKFLYT_CONSUMER_MAX_REDELIVERIES", 0),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
