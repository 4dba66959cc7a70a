package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisOTPDB    int    `mapstructure:"REDIS_OTP_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Stripe.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Firebase service account used for FCM pushes.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Escrow policy. Rates are decimal fractions kept as strings so they are
	// never parsed through float64.
	CommissionRate       string `mapstructure:"COMMISSION_RATE"`
	GSTRate              string `mapstructure:"GST_RATE"`
	AdvancePlatformRatio string `mapstructure:"ADVANCE_PLATFORM_RATIO"`
	CashPlatformRatio    string `mapstructure:"CASH_PLATFORM_RATIO"`
	RequireRating        bool   `mapstructure:"REQUIRE_RATING"`
	RequireAdminApproval bool   `mapstructure:"REQUIRE_ADMIN_APPROVAL"`

	// Dispatch and OTP.
	OfferDeadline  time.Duration `mapstructure:"OFFER_DEADLINE"`
	OTPLength      int           `mapstructure:"OTP_LENGTH"`
	OTPMaxAttempts int           `mapstructure:"OTP_MAX_ATTEMPTS"`
	OTPTTL         time.Duration `mapstructure:"OTP_TTL"`

	// Unpaid pending bookings older than PendingBookingTTL are cancelled.
	PendingBookingTTL time.Duration `mapstructure:"PENDING_BOOKING_TTL"`
	SweepInterval     time.Duration `mapstructure:"SWEEP_INTERVAL"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "hireflow")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_OTP_DB", 2)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("COMMISSION_RATE", "0.15")
	viper.SetDefault("GST_RATE", "0.18")
	viper.SetDefault("ADVANCE_PLATFORM_RATIO", "0.30")
	viper.SetDefault("CASH_PLATFORM_RATIO", "0.20")
	viper.SetDefault("REQUIRE_RATING", true)
	viper.SetDefault("REQUIRE_ADMIN_APPROVAL", false)
	viper.SetDefault("OFFER_DEADLINE", "30s")
	viper.SetDefault("OTP_LENGTH", 4)
	viper.SetDefault("OTP_MAX_ATTEMPTS", 5)
	viper.SetDefault("OTP_TTL", "24h")
	viper.SetDefault("PENDING_BOOKING_TTL", "2h")
	viper.SetDefault("SWEEP_INTERVAL", "10m")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
