// Package config reads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppAddr        string
	Env            string
	LogLevel       string
	DatabaseDSN    string
	PokeAPIBaseURL string
	UserAgent      string
	UpstreamRPS    int
	MaxRetries     int
	PageSize       int
	// DetailConcurrency caps parallel detail fetches per page.
	DetailConcurrency int
	CacheSize         int
	SearchDebounce    time.Duration
	CORSOrigins       []string
	RateLimitRPS      float64
	RateLimitBurst    int
	InternalSecret    string
	WarmPages         int
}

// LoadEnvFiles reads .env and .env.local. Variables already present in the
// process environment win.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load returns the configuration from the environment, with defaults.
func Load() Config {
	return Config{
		AppAddr:           getEnv("APP_ADDR", ":8080"),
		Env:               getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DatabaseDSN:       os.Getenv("DB_DSN"),
		PokeAPIBaseURL:    getEnv("POKEAPI_BASE_URL", "https://pokeapi.co/api/v2"),
		UserAgent:         getEnv("POKEAPI_USER_AGENT", "pokedex/1.0"),
		UpstreamRPS:       getEnvInt("POKEAPI_RPS", 20),
		MaxRetries:        getEnvInt("POKEAPI_MAX_RETRIES", 2),
		PageSize:          getEnvInt("PAGE_SIZE", 50),
		DetailConcurrency: getEnvInt("DETAIL_CONCURRENCY", 10),
		CacheSize:         getEnvInt("CACHE_SIZE", 2048),
		SearchDebounce:    getEnvDuration("SEARCH_DEBOUNCE", 400*time.Millisecond),
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:8081"}),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:    getEnvInt("RATE_LIMIT_BURST", 20),
		InternalSecret:    os.Getenv("INTERNAL_JOB_SECRET"),
		WarmPages:         getEnvInt("WARM_PAGES", 3),
	}
}

// IsProduction reports whether APP_ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// RedactDSN hides the credentials of a connection string for logging.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
