package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"supportboard/internal/retrieval"
)

// Config holds all application configuration
type Config struct {
	Port string

	// KV backend selection: REST KV wins when both URL and token are
	// set, otherwise Redis, otherwise memory fallback.
	KVRestURL   string
	KVRestToken string
	RedisURL    string

	// Delay between a snapshot write and its verification read.
	StoreVerifyDelay time.Duration

	// Forum post tracking (local SQLite, outside the KV snapshot).
	ForumDBPath        string
	ForumRetentionDays int

	// Summarizer (solve-and-summarize flow).
	OpenAIAPIKey  string
	OpenAIBaseURL string
	SummaryModel  string

	// Auth: admin dashboard sessions and the bot's static key.
	JWTSecret         string
	AdminPasswordHash string // argon2id encoded hash
	BotAPIKey         string

	// Optional YAML file overriding the retrieval weights.
	RetrievalConfigPath string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "3001"),

		KVRestURL:   getEnv("KV_REST_API_URL", ""),
		KVRestToken: getEnv("KV_REST_API_TOKEN", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		StoreVerifyDelay: getDurationEnv("STORE_VERIFY_DELAY", 150*time.Millisecond),

		ForumDBPath:        getEnv("FORUM_DB_PATH", "data/forum.db"),
		ForumRetentionDays: getIntEnv("FORUM_RETENTION_DAYS", 90),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		SummaryModel:  getEnv("SUMMARY_MODEL", "gpt-4o-mini"),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		BotAPIKey:         getEnv("BOT_API_KEY", ""),

		RetrievalConfigPath: getEnv("RETRIEVAL_CONFIG_PATH", ""),
	}
}

// LoadWeights returns the retrieval weights, applying the optional YAML
// override file on top of the defaults. Zero-valued fields in the file
// keep their defaults.
func (c *Config) LoadWeights() (retrieval.Weights, error) {
	weights := retrieval.DefaultWeights
	if c.RetrievalConfigPath == "" {
		return weights, nil
	}

	data, err := os.ReadFile(c.RetrievalConfigPath)
	if err != nil {
		return weights, fmt.Errorf("failed to read retrieval config: %w", err)
	}

	var override retrieval.Weights
	if err := yaml.Unmarshal(data, &override); err != nil {
		return weights, fmt.Errorf("failed to parse retrieval config: %w", err)
	}

	if override.Title > 0 {
		weights.Title = override.Title
	}
	if override.Keyword > 0 {
		weights.Keyword = override.Keyword
	}
	if override.Content > 0 {
		weights.Content = override.Content
	}
	if override.MaxResults > 0 {
		weights.MaxResults = override.MaxResults
	}
	if override.MinTokenLength > 0 {
		weights.MinTokenLength = override.MinTokenLength
	}
	return weights, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
