package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
	Fund     FundConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
	PasswordCost     int // bcrypt work factor for operator passwords
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// RedisConfig holds Redis configuration. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// KafkaConfig holds lifecycle event publishing configuration. No brokers
// disables publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether brokers are configured
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// LogConfig holds log file and rotation settings
type LogConfig struct {
	Path       string
	FileName   string
	Level      string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// FundConfig holds the emergency-fund domain settings
type FundConfig struct {
	DemandPrefix   string
	ContractPrefix string
	TimeZone       string
	PlanCatalog    string
	ReconcileCron  string
	ReconcileBatch int
	SystemActorID  uint
}

// Location resolves the identifier time zone, falling back to local time
func (f FundConfig) Location() *time.Location {
	if f.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(f.TimeZone)
	if err != nil {
		log.Printf("⚠️ Unknown FUND_TIMEZONE %q, using local time", f.TimeZone)
		return time.Local
	}
	return loc
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Redis:    loadRedisConfig(appMode),
		Kafka:    loadKafkaConfig(),
		Log:      loadLogConfig(appMode),
		Fund:     loadFundConfig(),
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "emergency_fund"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)
	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
		PasswordCost:     getEnvInt("BCRYPT_COST", 12),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))
	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadRedisConfig loads Redis config based on mode
func loadRedisConfig(mode string) RedisConfig {
	prefix := modePrefix(mode)
	return RedisConfig{
		Addr:     getEnv(prefix+"REDIS_ADDR", ""),
		Password: getEnv(prefix+"REDIS_PASS", ""),
		DB:       getEnvInt(prefix+"REDIS_DB", 0),
	}
}

// loadKafkaConfig loads Kafka config
func loadKafkaConfig() KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers: brokers,
		Topic:   getEnv("KAFKA_TOPIC", "emergency-fund.lifecycle"),
	}
}

// loadLogConfig loads log config; dev logs at debug level
func loadLogConfig(mode string) LogConfig {
	level := "info"
	if mode == "dev" {
		level = "debug"
	}
	return LogConfig{
		Path:       getEnv("LOG_PATH", "./logs"),
		FileName:   getEnv("LOG_FILE", ""),
		Level:      getEnv("LOG_LEVEL", level),
		MaxSize:    getEnvInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		MaxAge:     getEnvInt("LOG_MAX_AGE_DAYS", 30),
	}
}

// loadFundConfig loads the domain settings
func loadFundConfig() FundConfig {
	return FundConfig{
		DemandPrefix:   getEnv("FUND_DEMAND_PREFIX", "PREFIX"),
		ContractPrefix: getEnv("FUND_CONTRACT_PREFIX", "CONTRACT"),
		TimeZone:       getEnv("FUND_TIMEZONE", ""),
		PlanCatalog:    getEnv("FUND_PLAN_CATALOG", "configs/plans.toml"),
		ReconcileCron:  getEnv("FUND_RECONCILE_CRON", ""),
		ReconcileBatch: getEnvInt("FUND_RECONCILE_BATCH", 100),
		SystemActorID:  uint(getEnvInt("FUND_SYSTEM_ACTOR_ID", 0)),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://fund.example.org"
	}
	return origins
}
