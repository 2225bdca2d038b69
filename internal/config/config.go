package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port     string
	DBDSN    string
	LogFile  string
	SeedDemo bool

	// TotalTolerance is how far a client-supplied order total may drift
	// from the server-computed one before the order is rejected.
	TotalTolerance decimal.Decimal

	RateLimitPerMin int
	LoginRateLimit  int
}

func Load() Config {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		DBDSN:           getEnv("DB_DSN", "storefront.db"), // sqlite file in project root
		LogFile:         os.Getenv("LOG_FILE"),
		SeedDemo:        getEnvBool("SEED_DEMO", true),
		TotalTolerance:  getEnvDecimal("TOTAL_TOLERANCE", decimal.New(1, -2)),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 60),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 5),
	}
	if _, set := os.LookupEnv("LOG_FILE"); !set {
		cfg.LogFile = "./storefront.log" // default log sink in project root
	}

	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s SEED_DEMO=%t TOTAL_TOLERANCE=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.SeedDemo, cfg.TotalTolerance)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		log.Printf("[config] ignoring %s=%q, using %s", key, v, def)
		return def
	}
	return d
}
