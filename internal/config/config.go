package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	ServerPort   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Database configuration
	DBHost              string
	DBPort              int
	DBUser              string
	DBPassword          string
	DBName              string
	DBSSLMode           string
	DBMaxConns          int32
	DBMinConns          int32
	DBMaxConnLifetime   time.Duration
	DBMaxConnIdleTime   time.Duration
	DBHealthCheckPeriod time.Duration
	MigrationsPath      string

	// Source provider configuration
	ResearchAPIKey  string
	ResearchBaseURL string
	SerpAPIKey      string
	SerpBaseURL     string
	EdgarBaseURL    string
	FredAPIKey      string
	FredBaseURL     string
	ProviderTimeout time.Duration
	ProviderRetries int
	RetrievalWindow time.Duration

	// Text-generation service configuration
	LLMEndpoint string
	LLMModel    string
	LLMAPIKey   string
	LLMTimeout  time.Duration

	// Verification configuration
	DedupSimilarityThreshold float64
	RelevanceFloor           float64
	LinkProbeConcurrency     int

	// Drafting and compliance configuration
	DraftConcurrency  int
	Pass2Concurrency  int
	RulesPath         string
	TierListPath      string
	RegulatoryRefPath string

	// Approval policy: when true, approval requires every flag resolved,
	// not only BLOCK-severity ones.
	ApprovalBlockOnAnyUnresolved bool

	// Logging configuration
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		ReadTimeout:         getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        getEnvDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
		IdleTimeout:         getEnvDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnvInt("DB_PORT", 5432),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", "postgres"),
		DBName:              getEnv("DB_NAME", "newsbrief"),
		DBSSLMode:           getEnv("DB_SSL_MODE", "disable"),
		DBMaxConns:          int32(getEnvInt("DB_MAX_CONNS", 25)),
		DBMinConns:          int32(getEnvInt("DB_MIN_CONNS", 5)),
		DBMaxConnLifetime:   getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		DBMaxConnIdleTime:   getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		DBHealthCheckPeriod: getEnvDuration("DB_HEALTH_CHECK_PERIOD", time.Minute),
		MigrationsPath:      getEnv("MIGRATIONS_PATH", "migrations"),

		ResearchAPIKey:  getEnv("RESEARCH_API_KEY", ""),
		ResearchBaseURL: getEnv("RESEARCH_BASE_URL", "https://api.perplexity.ai"),
		SerpAPIKey:      getEnv("SERPAPI_API_KEY", ""),
		SerpBaseURL:     getEnv("SERPAPI_BASE_URL", "https://serpapi.com"),
		EdgarBaseURL:    getEnv("EDGAR_BASE_URL", "https://efts.sec.gov"),
		FredAPIKey:      getEnv("FRED_API_KEY", ""),
		FredBaseURL:     getEnv("FRED_BASE_URL", "https://api.stlouisfed.org"),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		ProviderRetries: getEnvInt("PROVIDER_RETRIES", 1),
		RetrievalWindow: getEnvDuration("RETRIEVAL_WINDOW", 14*24*time.Hour),

		LLMEndpoint: getEnv("LLM_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		LLMModel:    getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMTimeout:  getEnvDuration("LLM_TIMEOUT", 90*time.Second),

		DedupSimilarityThreshold: getEnvFloat("DEDUP_SIMILARITY_THRESHOLD", 0.75),
		RelevanceFloor:           getEnvFloat("RELEVANCE_FLOOR", 0.05),
		LinkProbeConcurrency:     getEnvInt("LINK_PROBE_CONCURRENCY", 10),

		DraftConcurrency:  getEnvInt("DRAFT_CONCURRENCY", 2),
		Pass2Concurrency:  getEnvInt("PASS2_CONCURRENCY", 2),
		RulesPath:         getEnv("COMPLIANCE_RULES_PATH", ""),
		TierListPath:      getEnv("TIER_LIST_PATH", ""),
		RegulatoryRefPath: getEnv("REGULATORY_REFERENCE_PATH", "compliance/regulatory_reference.md"),

		ApprovalBlockOnAnyUnresolved: getEnvBool("APPROVAL_BLOCK_ON_ANY_UNRESOLVED", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate validates the configuration.
func (c *Config) validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required),
		validation.Field(&c.DBHost, validation.Required),
		validation.Field(&c.DBUser, validation.Required),
		validation.Field(&c.DBName, validation.Required),
		validation.Field(&c.ProviderRetries, validation.Min(0), validation.Max(3)),
		validation.Field(&c.DedupSimilarityThreshold,
			validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.RelevanceFloor, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.LinkProbeConcurrency, validation.Min(1)),
		validation.Field(&c.DraftConcurrency, validation.Min(1)),
		validation.Field(&c.Pass2Concurrency, validation.Min(1)),
	)
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as int with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as float64 with a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as bool with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// String implements fmt.Stringer without leaking credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{ServerPort: %s, DBHost: %s, DBName: %s, LLMModel: %s}",
		c.ServerPort, c.DBHost, c.DBName, c.LLMModel)
}
