package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"ledgerguard/pkg/domain"
	strutil "ledgerguard/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	LogFormat     string
	LogLevel      string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	// DevTokenTTL enables POST /dev/token when positive.
	DevTokenTTL time.Duration

	Token    TokenConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Audit    AuditConfig
}

// TokenConfig seeds the ledger at startup.
type TokenConfig struct {
	Owner                 domain.Address
	InitialSupply         *big.Int
	WhitelistEnabled      bool
	BlacklistEnabled      bool
	Logic                 string
	AllowOwnerSelfRemoval bool
	ExemptOwners          bool
}

// PostgresConfig enables the postgres audit store when URL is set.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig enables the redis audit channel when URL is set.
type RedisConfig struct {
	URL          string
	Channel      string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig routes audit events through a topic when Brokers is non-empty.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	ConsumerGroup     string
	Partitions        int32
	ReplicationFactor int16
}

type AuditConfig struct {
	QueueSize    int
	DrainTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	owner, err := domain.ParseAddress(getEnv("LEDGER_OWNER", "0x00000000000000000000000000000000000000a0"))
	if err != nil {
		return Server{}, fmt.Errorf("LEDGER_OWNER: %w", err)
	}
	if domain.IsZero(owner) {
		return Server{}, fmt.Errorf("LEDGER_OWNER cannot be the zero address")
	}
	supply, err := domain.ParseAmount(getEnv("LEDGER_INITIAL_SUPPLY", "1000000"))
	if err != nil {
		return Server{}, fmt.Errorf("LEDGER_INITIAL_SUPPLY: %w", err)
	}

	return Server{
		Addr:      getEnv("LEDGER_ADDR", ":8080"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		// Use a default for development - should be overridden in production
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "ledgerguard"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "ledgerguard-api"),
		DevTokenTTL:   getDuration("DEV_TOKEN_TTL", 0),

		Token: TokenConfig{
			Owner:                 owner,
			InitialSupply:         supply,
			WhitelistEnabled:      getBool("LEDGER_WHITELIST_ENABLED", true),
			BlacklistEnabled:      getBool("LEDGER_BLACKLIST_ENABLED", true),
			Logic:                 getEnv("LEDGER_LOGIC", "direct"),
			AllowOwnerSelfRemoval: getBool("LEDGER_ALLOW_OWNER_SELF_REMOVAL", true),
			ExemptOwners:          getBool("LEDGER_EXEMPT_OWNERS", false),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Channel:      getEnv("REDIS_AUDIT_CHANNEL", "ledgerguard.audit"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           strutil.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:             getEnv("KAFKA_AUDIT_TOPIC", "ledgerguard.audit"),
			ConsumerGroup:     getEnv("KAFKA_AUDIT_GROUP", "ledgerguard-audit-store"),
			Partitions:        int32(getInt("KAFKA_AUDIT_PARTITIONS", 1)),
			ReplicationFactor: int16(getInt("KAFKA_AUDIT_REPLICATION", 1)),
		},
		Audit: AuditConfig{
			QueueSize:    getInt("AUDIT_QUEUE_SIZE", 1024),
			DrainTimeout: getDuration("AUDIT_DRAIN_TIMEOUT", 5*time.Second),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

