package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // Empty = in-memory state store
	TablePrefix string
	CORSOrigins string
	SupabaseURL string
	// SupabaseJWKSURL is constructed from SupabaseURL; empty disables token verification
	SupabaseJWKSURL string
	LogDir          string
	// AI Configuration
	AnthropicAPIKey   string
	OpenRouterAPIKey  string
	DefaultProvider   string
	DefaultModel      string
	FallbackModels    []string
	VisionModel       string
	AIMinInterval     time.Duration
	AITimeout         time.Duration
	AIMaxRetries      int
	VisionMinInterval time.Duration
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := getEnv("SUPABASE_URL", "")

	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = strings.TrimSuffix(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TablePrefix:     getTablePrefix(env),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		SupabaseURL:     supabaseURL,
		SupabaseJWKSURL: jwksURL,
		LogDir:          getEnv("LOG_DIR", ""),
		// AI Configuration
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		DefaultProvider:   getEnv("DEFAULT_PROVIDER", "anthropic"),
		DefaultModel:      getEnv("DEFAULT_MODEL", "claude-haiku-4-5-20251001"),
		FallbackModels:    splitList(getEnv("AI_FALLBACK_MODELS", "")),
		VisionModel:       getEnv("VISION_MODEL", "claude-haiku-4-5-20251001"),
		AIMinInterval:     getDuration("AI_MIN_INTERVAL", 2*time.Second),
		AITimeout:         getDuration("AI_TIMEOUT", 60*time.Second),
		AIMaxRetries:      getInt("AI_MAX_RETRIES", 1),
		VisionMinInterval: getDuration("VISION_MIN_INTERVAL", 3*time.Second),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

// getDuration accepts Go duration strings ("1500ms", "2s")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
