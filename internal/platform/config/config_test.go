package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, MetadataValueLimit, cfg.MetadataValueLimit)
	assert.Equal(t, []string{"BID", "FAR"}, cfg.OwnThemes)
	assert.Equal(t, 0, cfg.ConsumerMaxRedeliveries, "production redelivery is unbounded")
	assert.NotEmpty(t, cfg.Kafka.TopicJournalpostUpdated)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DOKFLYT_ADDR", ":9999")
	t.Setenv("DOKFLYT_OWN_THEMES", "BID, FAR ,PEN")
	t.Setenv("DOKFLYT_CONSUMER_MAX_REDELIVERIES", "3")
	t.Setenv("DOKFLYT_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, []string{"BID", "FAR", "PEN"}, cfg.OwnThemes)
	assert.Equal(t, 3, cfg.ConsumerMaxRedeliveries)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnv_BadIntFallsBack(t *testing.T) {
	t.Setenv("DOKFLYT_METADATA_VALUE_LIMIT", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, MetadataValueLimit, cfg.MetadataValueLimit)
}
