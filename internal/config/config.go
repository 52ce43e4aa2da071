package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AuthSecret            string
	AccessTokenTTLMinutes int

	OpenAIAPIKey          string
	OpenAIModel           string
	AdviceCacheTTLMinutes int

	// Estimation rates applied to imported marketplace orders.
	ImportHPPRatio        float64
	ImportPlatformFeeRate float64
	ImportPackingCost     float64
}

// Load reads configuration from the environment, after loading an
// optional .env file. Missing keys fall back to development defaults;
// secrets have no defaults.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	adviceTTL, err := strconv.Atoi(getEnv("ADVICE_CACHE_TTL_MINUTES", "15"))
	if err != nil || adviceTTL < 1 {
		adviceTTL = 15
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		OpenAIAPIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AdviceCacheTTLMinutes: adviceTTL,
		ImportHPPRatio:        getEnvFloat("IMPORT_HPP_RATIO", 0.6),
		ImportPlatformFeeRate: getEnvFloat("IMPORT_PLATFORM_FEE_RATE", 0.08),
		ImportPackingCost:     getEnvFloat("IMPORT_PACKING_COST", 2000),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getEnvFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}
