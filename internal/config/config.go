// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	AWS         AWSConfig
	AI          AIConfig
	IPFS        IPFSConfig
	Story       StoryConfig
	Payment     PaymentConfig
	Workers     WorkerConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Stream   string
	Group    string
}

type JWTConfig struct {
	SecretKey  string
	SessionTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type AIConfig struct {
	BaseURL       string
	APIKey        string
	StandardModel string
	PremiumModel  string
	ImageModel    string
	TimeoutSecs   int
}

type IPFSConfig struct {
	PinataBaseURL string
	PinataJWT     string
	GatewayURL    string
}

type StoryConfig struct {
	GatewayURL      string
	APIKey          string
	SPGNFTContract  string
	LicenseTemplate string
}

type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
}

type WorkerConfig struct {
	Count       int
	LockTTLSecs int
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout: getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			// 0 by default: progress streams are long-lived and must not be
			// cut off by a server-wide write deadline.
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 0),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "dreamweave"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Stream:   getEnv("REDIS_JOB_STREAM", "dreamweave:jobs"),
			Group:    getEnv("REDIS_JOB_GROUP", "pipeline"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			SessionTTL: getEnvAsInt("JWT_SESSION_TTL", 24), // 24 hours
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "dreamweave-assets"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		AI: AIConfig{
			BaseURL:       getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:        getEnv("AI_API_KEY", ""),
			StandardModel: getEnv("AI_STANDARD_MODEL", "gpt-4o-mini"),
			PremiumModel:  getEnv("AI_PREMIUM_MODEL", "gpt-4o"),
			ImageModel:    getEnv("AI_IMAGE_MODEL", "dall-e-3"),
			TimeoutSecs:   getEnvAsInt("AI_TIMEOUT", 120),
		},
		IPFS: IPFSConfig{
			PinataBaseURL: getEnv("PINATA_BASE_URL", "https://api.pinata.cloud"),
			PinataJWT:     getEnv("PINATA_JWT", ""),
			GatewayURL:    getEnv("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"),
		},
		Story: StoryConfig{
			GatewayURL:      getEnv("STORY_GATEWAY_URL", ""),
			APIKey:          getEnv("STORY_API_KEY", ""),
			SPGNFTContract:  getEnv("STORY_SPG_NFT_CONTRACT", ""),
			LicenseTemplate: getEnv("STORY_LICENSE_TEMPLATE", ""),
		},
		Payment: PaymentConfig{
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:        getEnv("PAYMENT_CURRENCY", "usd"),
		},
		Workers: WorkerConfig{
			Count:       getEnvAsInt("PIPELINE_WORKERS", 2),
			LockTTLSecs: getEnvAsInt("PIPELINE_LOCK_TTL", 900),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.AI.APIKey == "" && c.Environment == "production" {
		return fmt.Errorf("AI API key is required in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
