package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Built from environment
// variables so main stays lean.
type Config struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	// LinkSigningKey signs party secure-link tokens.
	LinkSigningKey string
	// LinkTTL bounds how long a party secure link stays resolvable.
	LinkTTL time.Duration

	// FilingWindow is the regulatory window between closing and the filing
	// deadline.
	FilingWindow time.Duration

	// FilingDropDir is where composed filings are handed to the external
	// channel; AckDropDir is where the channel drops acknowledgment records.
	FilingDropDir string
	AckDropDir    string

	// StaffToken authorizes the staff-only endpoints (override, filing,
	// sweep triggers).
	StaffToken string

	// ComplianceInbox receives deadline reminders and filing outcome
	// notifications.
	ComplianceInbox string

	Sweeps SweepConfig
}

// RedisConfig configures the optional Redis-backed secure-link store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit outbox publisher.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// SweepConfig holds the intervals for the three periodic tasks. The
// reconciliation interval doubles as the retry policy for transient external
// channel failures.
type SweepConfig struct {
	ReminderInterval  time.Duration
	NudgeInterval     time.Duration
	ReconcileInterval time.Duration
	// FetchTimeout bounds a single acknowledgment fetch within a tick.
	FetchTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envOr("DEEDFLOW_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "deedflow.audit"),
		},
		// Use a default for development - must be overridden in production.
		LinkSigningKey:  envOr("LINK_SIGNING_KEY", "dev-secret-key-change-in-production"),
		LinkTTL:         envDurationOr("LINK_TTL", 14*24*time.Hour),
		FilingWindow:    envDurationOr("FILING_WINDOW", 30*24*time.Hour),
		FilingDropDir:   envOr("FILING_DROP_DIR", "/var/spool/deedflow/filings"),
		AckDropDir:      envOr("ACK_DROP_DIR", "/var/spool/deedflow/acks"),
		StaffToken:      os.Getenv("STAFF_TOKEN"),
		ComplianceInbox: envOr("COMPLIANCE_INBOX", "compliance@deedflow.example"),
		Sweeps: SweepConfig{
			ReminderInterval:  envDurationOr("REMINDER_SWEEP_INTERVAL", time.Hour),
			NudgeInterval:     envDurationOr("NUDGE_SWEEP_INTERVAL", time.Hour),
			ReconcileInterval: envDurationOr("RECONCILE_SWEEP_INTERVAL", 15*time.Minute),
			FetchTimeout:      envDurationOr("RECONCILE_FETCH_TIMEOUT", 30*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
