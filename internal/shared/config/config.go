package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultGuideURL = "https://raw.githubusercontent.com/M00N69/Action-planGroq/main/Guide%20Checklist_IFS%20Food%20V%208%20-%20CHECKLIST.csv"

// Config holds application configuration.
type Config struct {
	Port                  string
	CORSAllowOrigin       []string
	ObjectStoreType       string
	LocalStoreDir         string
	AWSRegion             string
	S3Bucket              string
	S3Prefix              string
	SSEKMSKeyID           string
	DatabaseURL           string
	Env                   string
	GuideURL              string
	GuidePath             string
	FindingsHeaderRow     int
	PromptLocale          string
	LLMProvider           string
	LLMModel              string
	LLMBaseURL            string
	LLMAPIKey             string
	LLMMaxTokens          int
	LLMTimeout            time.Duration
	GenerateRatePerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is empty in production; plans are kept in memory")
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "groq"))
	return Config{
		Port:                  getEnv("PORT", "8080"),
		CORSAllowOrigin:       splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:       normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:         getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:             getEnv("AWS_REGION", ""),
		S3Bucket:              getEnv("S3_BUCKET", ""),
		S3Prefix:              getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:           getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:           dbURL,
		Env:                   env,
		GuideURL:              getEnv("GUIDE_URL", defaultGuideURL),
		GuidePath:             getEnv("GUIDE_PATH", ""),
		FindingsHeaderRow:     getEnvInt("FINDINGS_HEADER_ROW", 11),
		PromptLocale:          getEnv("PROMPT_LOCALE", "fr"),
		LLMProvider:           provider,
		LLMModel:              getEnv("LLM_MODEL", defaultModel(provider)),
		LLMBaseURL:            getEnv("LLM_BASE_URL", defaultBaseURL(provider)),
		LLMAPIKey:             firstNonEmpty(os.Getenv("LLM_API_KEY"), os.Getenv("GROQ_API_KEY")),
		LLMMaxTokens:          getEnvInt("LLM_MAX_TOKENS", 1500),
		LLMTimeout:            time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		GenerateRatePerMinute: getEnvInt("GENERATE_RATE_PER_MINUTE", 10),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		log.Printf("config env %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "placeholder", "none":
		return "placeholder"
	default:
		return "groq"
	}
}

func defaultModel(provider string) string {
	if provider == "openai" {
		return "gpt-4o-mini"
	}
	return "llama-3.3-70b-versatile"
}

func defaultBaseURL(provider string) string {
	if provider == "groq" {
		return "https://api.groq.com/openai/v1/"
	}
	return ""
}
