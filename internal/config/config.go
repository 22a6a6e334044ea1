package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                    string
	AllowedOrigin           string
	DatabaseURL             string
	AutoMigrate             bool
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	SettingsCacheTTLSeconds int
	AuthSecret              string
	AccessTokenTTLMinutes   int
	APIKey                  string
	StoreTimezone           string
	InvoicePrefix           string
	InvoiceRetryAttempts    int
	StoreName               string
	StoreAddress            string
	StorePhone              string
	StoreReceiptFooter      string
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, err := strconv.Atoi(getEnv("SETTINGS_CACHE_TTL_SECONDS", "60"))
	if err != nil || cacheTTL < 1 {
		cacheTTL = 60
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "720"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 720
	}
	retries, err := strconv.Atoi(getEnv("INVOICE_RETRY_ATTEMPTS", "3"))
	if err != nil || retries < 1 {
		retries = 3
	}
	autoMigrate, err := strconv.ParseBool(getEnv("AUTO_MIGRATE", "true"))
	if err != nil {
		autoMigrate = true
	}

	cfg := Config{
		Port:                    getEnv("PORT", "8080"),
		AllowedOrigin:           getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		AutoMigrate:             autoMigrate,
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 redisDB,
		SettingsCacheTTLSeconds: cacheTTL,
		AuthSecret:              strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:   tokenTTL,
		APIKey:                  strings.TrimSpace(os.Getenv("API_KEY")),
		StoreTimezone:           getEnv("STORE_TIMEZONE", "Asia/Jakarta"),
		InvoicePrefix:           strings.ToUpper(strings.TrimSpace(getEnv("INVOICE_PREFIX", "INV"))),
		InvoiceRetryAttempts:    retries,
		StoreName:               getEnv("STORE_NAME", "Toko Kasirpos"),
		StoreAddress:            os.Getenv("STORE_ADDRESS"),
		StorePhone:              os.Getenv("STORE_PHONE"),
		StoreReceiptFooter:      getEnv("STORE_RECEIPT_FOOTER", "Terima kasih atas kunjungan Anda"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves StoreTimezone, falling back to UTC+7 when the tz database
// does not know the name.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StoreTimezone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
