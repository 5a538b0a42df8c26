package config

import (
	"log"
	"strings"

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
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB     int    `mapstructure:"REDIS_CACHE_DB"`
	RedisLockDB      int    `mapstructure:"REDIS_LOCK_DB"`
	RedisNotifyQueue int    `mapstructure:"REDIS_NOTIFY_QUEUE_DB"`

	// Payout policy.
	CommissionRateBps      int64  `mapstructure:"COMMISSION_RATE_BPS"`
	PayoutDelayMin         int    `mapstructure:"PAYOUT_DELAY_MIN"`
	PayoutSweepIntervalMin int    `mapstructure:"PAYOUT_SWEEP_INTERVAL_MIN"`
	DefaultCurrency        string `mapstructure:"DEFAULT_CURRENCY"`

	// Booking policy: comma-separated statuses eligible for refund on cancel.
	RefundableStatuses string `mapstructure:"REFUNDABLE_STATUSES"`

	// Payment gateway configuration.
	GatewayTimeoutSec int    `mapstructure:"GATEWAY_TIMEOUT_SEC"`
	StripeKey         string `mapstructure:"STRIPE_KEY"`
	DarajaBaseURL     string `mapstructure:"DARAJA_BASE_URL"`
	DarajaKey         string `mapstructure:"DARAJA_KEY"`
	DarajaSecret      string `mapstructure:"DARAJA_SECRET"`
	DarajaShortCode   string `mapstructure:"DARAJA_SHORT_CODE"`

	// Firebase service account for FCM pushes.
	FirebaseCredFile string `mapstructure:"FIREBASE_CRED_FILE"`
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
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_NOTIFY_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "fundihub")
	viper.SetDefault("COMMISSION_RATE_BPS", 3000)
	viper.SetDefault("PAYOUT_DELAY_MIN", 60)
	viper.SetDefault("PAYOUT_SWEEP_INTERVAL_MIN", 5)
	viper.SetDefault("DEFAULT_CURRENCY", "KES")
	viper.SetDefault("REFUNDABLE_STATUSES", "pending,confirmed")
	viper.SetDefault("GATEWAY_TIMEOUT_SEC", 30)
	viper.SetDefault("DARAJA_BASE_URL", "https://sandbox.safaricom.co.ke")

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

// RefundableStatusSet parses the configured refund-eligible booking statuses.
func RefundableStatusSet() map[string]bool {
	set := make(map[string]bool)
	for _, s := range strings.Split(AppConfig.RefundableStatuses, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			set[s] = true
		}
	}
	return set
}
