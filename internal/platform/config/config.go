package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "fedbridge/pkg/platform/strings"
)

// Config captures all service configuration. Values come from the
// environment so main stays lean and deployments stay twelve-factor.
type Config struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	PostgresURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	Policy PolicyConfig
	Swap   SwapConfig

	Mints MintConfig
}

// RedisConfig controls the optional Redis connection used for dependent-role
// spend accounting. An empty URL disables Redis and falls back to in-memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig controls the optional audit event sink. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// PolicyConfig carries the dependent-role spending ceilings in the smallest
// currency unit. Sovereign roles are never subject to these.
type PolicyConfig struct {
	DailySpendLimit      int64
	PerTransactionLimit  int64
	ApprovalThreshold    int64
	SpendTotalsRetention time.Duration
}

// SwapConfig carries orchestrator tuning knobs.
type SwapConfig struct {
	// IdempotencyWindow is the timestamp bucket folded into swap id
	// derivation; identical requests inside one window resolve to the
	// same swap.
	IdempotencyWindow time.Duration
	// ExternalCallTimeout bounds each wallet-side call (reserve, prepare,
	// commit, release).
	ExternalCallTimeout time.Duration
}

// MintConfig carries per-protocol endpoint configuration for the registry.
type MintConfig struct {
	FederationURL string
	GuardianURLs  []string
	CashuMints    []string
	DefaultCashu  string
	NativeURL     string
}

// FromEnv builds the full config from environment variables with development
// defaults. Production deployments must override the signing key.
func FromEnv() Config {
	return Config{
		Addr:          getEnv("FEDBRIDGE_ADDR", ":8080"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "fedbridge"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "fedbridge-api"),
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: getList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_AUDIT_TOPIC", "fedbridge.swap.audit"),
		},
		Policy: PolicyConfig{
			DailySpendLimit:      getInt64("POLICY_DAILY_SPEND_LIMIT", 50_000),
			PerTransactionLimit:  getInt64("POLICY_PER_TX_LIMIT", 25_000),
			ApprovalThreshold:    getInt64("POLICY_APPROVAL_THRESHOLD", 10_000),
			SpendTotalsRetention: getDuration("POLICY_TOTALS_RETENTION", 48*time.Hour),
		},
		Swap: SwapConfig{
			IdempotencyWindow:   getDuration("SWAP_IDEMPOTENCY_WINDOW", time.Minute),
			ExternalCallTimeout: getDuration("SWAP_EXTERNAL_CALL_TIMEOUT", 2*time.Minute),
		},
		Mints: MintConfig{
			FederationURL: getEnv("FEDIMINT_FEDERATION_URL", "wss://federation.satnam.pub"),
			GuardianURLs:  getList("FEDIMINT_GUARDIAN_URLS"),
			CashuMints:    getList("CASHU_MINT_URLS"),
			DefaultCashu:  getEnv("CASHU_DEFAULT_MINT", "https://mint.minibits.cash"),
			NativeURL:     getEnv("NATIVE_MINT_URL", "https://mint.satnam.pub"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(v, ","))
}
