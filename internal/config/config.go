package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int
	// Blockchain configuration
	RPCURL          string
	RegistryAddress string
	ChainID         *big.Int
	// RelayerKey is the hex-encoded secp256k1 key used to sign
	// consumePayment transactions. May be empty: the relay then verifies
	// and delivers but cannot record consumption.
	RelayerKey string
	// FallbackGasLimit is used when gas estimation fails.
	FallbackGasLimit uint64
	// ReceiptWaitTimeoutSeconds bounds the wait for the consumption
	// transaction to be mined.
	ReceiptWaitTimeoutSeconds int

	// Capability token configuration
	TokenSecret     string
	TokenTTLSeconds int

	// SMTP configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string

	// SMS provider configuration
	SMSProviderURL   string
	SMSProviderToken string
	SMSSender        string

	// Operator alert configuration
	TelegramBotToken  string
	TelegramOpsChatID string
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:               getEnvAsBool("DEVELOPMENT", false),
		APIPort:                   getEnvAsInt("PORT", 8000),
		RPCURL:                    getEnv("RPC_URL", "https://topstrike-megaeth-ws-proxy-100.fly.dev/rpc"),
		RegistryAddress:           getEnv("REGISTRY_CONTRACT_ADDRESS", ""),
		ChainID:                   getEnvAsBigInt("CHAIN_ID", big.NewInt(6342)),
		RelayerKey:                getEnv("RELAYER_PRIVATE_KEY", ""),
		FallbackGasLimit:          uint64(getEnvAsInt("FALLBACK_GAS_LIMIT", 200000)),
		ReceiptWaitTimeoutSeconds: getEnvAsInt("RECEIPT_WAIT_TIMEOUT_SECONDS", 90),

		TokenSecret:     getEnv("TOKEN_SECRET", ""),
		TokenTTLSeconds: getEnvAsInt("TOKEN_TTL_SECONDS", 300),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.example.com"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPSender:   getEnv("SMTP_SENDER", ""),

		SMSProviderURL:   getEnv("SMS_PROVIDER_URL", ""),
		SMSProviderToken: getEnv("SMS_PROVIDER_TOKEN", ""),
		SMSSender:        getEnv("SMS_SENDER", ""),

		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramOpsChatID: getEnv("TELEGRAM_OPS_CHAT_ID", ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}

	if c.RegistryAddress == "" {
		return fmt.Errorf("REGISTRY_CONTRACT_ADDRESS is required")
	}

	// Validate registry address format
	if !common.IsHexAddress(c.RegistryAddress) {
		return fmt.Errorf("invalid REGISTRY_CONTRACT_ADDRESS format: %s", c.RegistryAddress)
	}

	if c.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET is required")
	}

	if c.TokenTTLSeconds <= 0 {
		return fmt.Errorf("TOKEN_TTL_SECONDS must be positive")
	}

	if c.ChainID == nil || c.ChainID.Sign() <= 0 {
		return fmt.Errorf("CHAIN_ID must be a positive integer")
	}

	return nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBigInt(name string, defaultValue *big.Int) *big.Int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, ok := new(big.Int).SetString(valueStr, 10); ok {
			return value
		}
	}
	return defaultValue
}
