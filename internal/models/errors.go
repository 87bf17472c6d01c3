package models

import "errors"

// Dispatch and consumption failures. Every caller is expected to match on
// these explicitly; nothing in the relay panics or retries on its own.
var (
	// ErrTokenExpired means the capability token's expiry has passed.
	ErrTokenExpired = errors.New("capability token expired")
	// ErrTokenMalformed means the token could not be parsed or its
	// signature does not verify.
	ErrTokenMalformed = errors.New("capability token malformed")
	// ErrQuotaExceeded means the payload is larger than the purchased
	// quantity.
	ErrQuotaExceeded = errors.New("payload exceeds purchased quota")
	// ErrUnknownService means the token names a service type the gateway
	// does not support.
	ErrUnknownService = errors.New("unknown service type")
	// ErrDeliveryFailed means the delivery provider rejected or failed the
	// send. The payment stays unconsumed and the whole flow may be retried.
	ErrDeliveryFailed = errors.New("delivery provider error")
	// ErrSigningKeyMissing means no relayer key is configured, so the
	// consumption transaction cannot be signed.
	ErrSigningKeyMissing = errors.New("relayer signing key missing")
	// ErrRegistryUnavailable means the registry contract could not be
	// resolved. Never falls back to a previously resolved address.
	ErrRegistryUnavailable = errors.New("registry unavailable")
)
