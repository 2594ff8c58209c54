package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string

	TMDBAPIKey   string
	TMDBBaseURL  string
	TMDBLanguage string

	MongoURI      string
	MongoDatabase string

	RedisURL       string
	GenreCacheTTL  time.Duration
	DetailCacheTTL time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	SearchDebounce time.Duration
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		RequestTimeout: time.Duration(getEnvInt("CATALOG_TIMEOUT_SECONDS", 15)) * time.Second,
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		TMDBAPIKey:     strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBBaseURL:    getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBLanguage:   getEnv("TMDB_LANGUAGE", "en-US"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "moviescout"),
		RedisURL:       getEnv("REDIS_URL", ""),
		GenreCacheTTL:  time.Duration(getEnvInt("GENRE_CACHE_TTL_HOURS", 24)) * time.Hour,
		DetailCacheTTL: time.Duration(getEnvInt("DETAIL_CACHE_TTL_HOURS", 6)) * time.Hour,
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		SearchDebounce: time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
