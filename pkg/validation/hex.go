package validation

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ValidateTxHash validates a transaction hash format (32 bytes, hex encoded).
func ValidateTxHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}

	normalized := strip0x(hash)

	// 64 hex characters = 32 bytes
	if len(normalized) != 64 {
		return fmt.Errorf("invalid transaction hash length: expected 64 characters (without 0x), got %d", len(normalized))
	}

	if _, err := hex.DecodeString(normalized); err != nil {
		return fmt.Errorf("invalid hex transaction hash: %w", err)
	}

	return nil
}

// ValidateAddress validates a wallet address format (20 bytes, hex encoded).
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	normalized := strip0x(addr)

	// 40 hex characters = 20 bytes
	if len(normalized) != 40 {
		return fmt.Errorf("invalid address length: expected 40 characters (without 0x), got %d", len(normalized))
	}

	if _, err := hex.DecodeString(normalized); err != nil {
		return fmt.Errorf("invalid hex address: %w", err)
	}

	return nil
}

// NormalizeHex converts a hex string to lowercase with a 0x prefix.
func NormalizeHex(s string) string {
	return "0x" + strings.ToLower(strip0x(s))
}

func strip0x(s string) string {
	s = strings.TrimPrefix(s, "0x")
	return strings.TrimPrefix(s, "0X")
}
