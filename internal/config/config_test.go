package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistry = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REGISTRY_CONTRACT_ADDRESS", testRegistry)
	t.Setenv("TOKEN_SECRET", "test-secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, 300, cfg.TokenTTLSeconds)
	assert.Equal(t, uint64(200000), cfg.FallbackGasLimit)
	assert.Equal(t, 90, cfg.ReceiptWaitTimeoutSeconds)
	assert.NotEmpty(t, cfg.RPCURL)
	assert.Equal(t, testRegistry, cfg.RegistryAddress)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_TTL_SECONDS", "60")
	t.Setenv("CHAIN_ID", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, 60, cfg.TokenTTLSeconds)
	assert.Equal(t, int64(1), cfg.ChainID.Int64())
}

func TestLoadConfig_MissingRegistry(t *testing.T) {
	t.Setenv("REGISTRY_CONTRACT_ADDRESS", "")
	t.Setenv("TOKEN_SECRET", "test-secret")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_BadRegistryAddress(t *testing.T) {
	t.Setenv("REGISTRY_CONTRACT_ADDRESS", "not-an-address")
	t.Setenv("TOKEN_SECRET", "test-secret")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("REGISTRY_CONTRACT_ADDRESS", testRegistry)
	t.Setenv("TOKEN_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_BadTTL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_TTL_SECONDS", "0")

	_, err := LoadConfig()
	assert.Error(t, err)
}
