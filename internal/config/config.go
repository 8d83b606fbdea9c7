package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pointflow/internal/models"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DatabasePath string

	// Local JWT auth
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	// Completion service (OpenAI-compatible)
	AIBaseURL      string
	AIAPIKey       string
	AIModel        string
	SummaryTimeout time.Duration

	// Optional per-tier limit overrides (YAML file)
	TiersFile string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3001"),
		DatabasePath: getEnv("DATABASE_PATH", "pointflow.db"),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		AccessTokenExpiry:  getDurationEnv("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenExpiry: getDurationEnv("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),

		AIBaseURL:      getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:       getEnv("AI_API_KEY", ""),
		AIModel:        getEnv("AI_MODEL", "gpt-4o"),
		SummaryTimeout: getDurationEnv("SUMMARY_TIMEOUT", 60*time.Second),

		TiersFile: getEnv("TIERS_FILE", ""),
	}
}

// tierFileEntry is the YAML shape of one tier override.
type tierFileEntry struct {
	MaxProjects        *int           `yaml:"max_projects"`
	SummariesPerPeriod *int           `yaml:"summaries_per_period"`
	SummaryPeriod      *time.Duration `yaml:"summary_period"`
}

// LoadTierLimits returns the tier limit table, applying overrides from the
// YAML file at path when it is non-empty. Unknown tiers in the file create
// new entries; omitted fields keep their built-in values.
func LoadTierLimits(path string) (map[string]models.TierLimits, error) {
	limits := make(map[string]models.TierLimits, len(models.DefaultTierLimits))
	for tier, l := range models.DefaultTierLimits {
		limits[tier] = l
	}
	if path == "" {
		return limits, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tiers file: %w", err)
	}

	var file map[string]tierFileEntry
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tiers YAML: %w", err)
	}

	for tier, entry := range file {
		base := models.GetTierLimits(tier)
		if entry.MaxProjects != nil {
			base.MaxProjects = *entry.MaxProjects
		}
		if entry.SummariesPerPeriod != nil {
			base.SummariesPerPeriod = *entry.SummariesPerPeriod
		}
		if entry.SummaryPeriod != nil {
			base.SummaryPeriod = *entry.SummaryPeriod
		}
		limits[tier] = base
	}

	return limits, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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
