package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	RedisAddr string
	RedisPass string
	RedisDB   int

	APIBase string
	APIKey  string
	APIRPS  int

	CDNHost      string
	PackagesPath string
	Workers      int

	// TTL classes of the cache keyspace. The defaults (1 h / 2 h / 24 h)
	// are part of the contract the tests rely on.
	TTLShort  time.Duration
	TTLMedium time.Duration
	TTLLong   time.Duration
}

func Load() Config {
	// optional .env for local runs; real deployments set the environment
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),

		APIBase: env("TOURAPI_BASE_URL", "https://api.island-tours.example"),
		APIKey:  env("TOURAPI_KEY", ""),
		APIRPS:  atoi("TOURAPI_RPS", 10),

		CDNHost:      env("CDN_HOST", "cdn.island-tours.example"),
		PackagesPath: env("PACKAGES_SNAPSHOT", "data/packages.json"),
		Workers:      atoi("WARM_WORKERS", 8),

		TTLShort:  time.Duration(atoi("CACHE_TTL_SHORT_SECONDS", 3600)) * time.Second,
		TTLMedium: time.Duration(atoi("CACHE_TTL_MEDIUM_SECONDS", 7200)) * time.Second,
		TTLLong:   time.Duration(atoi("CACHE_TTL_LONG_SECONDS", 86400)) * time.Second,
	}
	if c.APIKey == "" {
		log.Warn().Msg("TOURAPI_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
