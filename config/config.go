package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	awspkg "github.com/Nappiz/tcmudah-storefront/pkg/aws"
)

const (
	ProofStorageAPI = "api"
	ProofStorageS3  = "s3"

	secretName = "storefront/CONFIG"
)

// Config holds the storefront service configuration.
type Config struct {
	Port string
	Env  string

	APIBaseURL      string
	UpstreamTimeout time.Duration

	RedisURL       string
	CartTTL        time.Duration
	SessionIdleTTL time.Duration
	CookieName     string
	CookieSecure   bool

	ProofStorage    string
	ProofMaxBytes   int64
	S3ProofBucket   string
	S3PublicBaseURL string
	S3PublicACL     bool

	OrderTopicARN string

	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	AWSUseSecrets bool
}

// SecretSource resolves a JSON secret into a flat map.
type SecretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// Load reads .env (when present) and the environment. With AWS_USE_SECRETS=true
// the JWT secret and Redis URL are overridden from Secrets Manager.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var secrets SecretSource
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		secrets = awspkg.NewSecretsClient(awsCfg)
	}
	return FromEnv(ctx, secrets)
}

// FromEnv builds the config from the process environment and an optional secret source.
func FromEnv(ctx context.Context, secrets SecretSource) (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		APIBaseURL:      strings.TrimRight(os.Getenv("API_BASE_URL"), "/"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CookieName:      getEnv("SESSION_COOKIE_NAME", "storefront_sid"),
		CookieSecure:    getEnv("COOKIE_SECURE", "false") == "true",
		ProofStorage:    strings.ToLower(getEnv("PROOF_STORAGE", ProofStorageAPI)),
		S3ProofBucket:   os.Getenv("S3_PROOF_BUCKET"),
		S3PublicBaseURL: strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
		S3PublicACL:     getEnv("S3_PUBLIC_ACL", "false") == "true",
		OrderTopicARN:   os.Getenv("ORDER_SNS_TOPIC_ARN"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		AWSUseSecrets:   secrets != nil,
	}

	var err error
	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.CartTTL, err = getDuration("CART_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ProofMaxBytes, err = strconv.ParseInt(getEnv("PROOF_MAX_BYTES", "5242880"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid PROOF_MAX_BYTES: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	if secrets != nil {
		m, err := secrets.GetSecretMap(ctx, secretName)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", secretName, err)
		}
		if v := m["JWT_SECRET"]; v != "" {
			cfg.JWTSecret = v
		}
		if v := m["REDIS_URL"]; v != "" {
			cfg.RedisURL = v
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	switch c.ProofStorage {
	case ProofStorageAPI:
	case ProofStorageS3:
		if c.S3ProofBucket == "" {
			return fmt.Errorf("S3_PROOF_BUCKET is required when PROOF_STORAGE=s3")
		}
	default:
		return fmt.Errorf("unknown PROOF_STORAGE %q", c.ProofStorage)
	}
	if c.ProofMaxBytes <= 0 {
		return fmt.Errorf("PROOF_MAX_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
