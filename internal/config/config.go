package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hive-corporation/alert-enricher/internal/core/domain"
)

// Config holds the settings shared by the enrichment binaries. GeoTimeout is
// the only reader of GEO_TIMEOUT_SECONDS; the remaining geo client tuning
// (rate limit, breaker, retries) is read by the geoip adapter itself.
type Config struct {
	GeoTimeout time.Duration

	DatabaseURL        string
	AuditBatchSize     int
	AuditFlushInterval time.Duration

	SlackBotToken    string
	SlackChannel     string
	SlackMentionTeam string
	SlackMinSeverity domain.SeverityLevel

	RestPort      string
	RestAuthToken string

	GRPCListenAddr string

	KafkaBrokers     []string
	KafkaInputTopic  string
	KafkaOutputTopic string
	KafkaGroupID     string
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		GeoTimeout: time.Duration(getEnvInt("GEO_TIMEOUT_SECONDS", 5)) * time.Second,

		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AuditBatchSize:     getEnvInt("AUDIT_BATCH_SIZE", 100),
		AuditFlushInterval: time.Duration(getEnvInt("AUDIT_FLUSH_INTERVAL_SECONDS", 5)) * time.Second,

		SlackBotToken:    os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:     getEnv("SLACK_CHANNEL_SECURITY", "#security-alerts"),
		SlackMentionTeam: getEnv("SLACK_MENTION_TEAM", "@security-team"),
		SlackMinSeverity: domain.SeverityLevel(strings.ToUpper(getEnv("SLACK_MIN_SEVERITY", string(domain.SeverityHigh)))),

		RestPort:      getEnv("REST_API_PORT", "8080"),
		RestAuthToken: os.Getenv("REST_API_AUTH_TOKEN"),

		// Secure default - localhost only
		GRPCListenAddr: getEnv("GRPC_LISTEN_ADDR", "localhost:50051"),

		KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaInputTopic:  os.Getenv("KAFKA_INPUT_TOPIC"),
		KafkaOutputTopic: os.Getenv("KAFKA_OUTPUT_TOPIC"),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "alert-enricher"),
	}
}

// Validate checks the settings every binary depends on.
func (c *Config) Validate() error {
	var errors []string

	if c.GeoTimeout <= 0 {
		errors = append(errors, "GEO_TIMEOUT_SECONDS must be positive")
	}
	if _, ok := domain.ParseSeverity(string(c.SlackMinSeverity)); !ok {
		errors = append(errors, fmt.Sprintf("SLACK_MIN_SEVERITY must be one of CRITICAL, HIGH, MEDIUM, LOW (got %q)", c.SlackMinSeverity))
	}
	if c.AuditBatchSize <= 0 {
		errors = append(errors, "AUDIT_BATCH_SIZE must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// ValidateKafka checks the settings the stream consumer needs on top of Validate.
func (c *Config) ValidateKafka() error {
	var errors []string

	if len(c.KafkaBrokers) == 0 {
		errors = append(errors, "KAFKA_BROKERS is required")
	}
	if c.KafkaInputTopic == "" {
		errors = append(errors, "KAFKA_INPUT_TOPIC is required")
	}
	if c.KafkaOutputTopic == "" {
		errors = append(errors, "KAFKA_OUTPUT_TOPIC is required")
	}
	if c.KafkaInputTopic != "" && c.KafkaInputTopic == c.KafkaOutputTopic {
		errors = append(errors, "KAFKA_INPUT_TOPIC and KAFKA_OUTPUT_TOPIC must differ")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
