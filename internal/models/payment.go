package models

import "math/big"

// PaymentEvent is the decoded ActionPaid event as it appears in a
// transaction's logs. It is read from the chain and never created here.
type PaymentEvent struct {
	// PaymentID is the unique identifier of the payment.
	PaymentID *big.Int
	// Payer is the wallet address that paid, lowercase hex with 0x prefix.
	Payer string
	// Service is the paid service name ("sms" or "email").
	Service string
	// Amount is the amount paid, in the chain's base unit.
	Amount *big.Int
	// Quantity is the purchased quota, in payload bytes.
	Quantity *big.Int
	// Timestamp is the block timestamp recorded by the contract.
	Timestamp uint64
}

// VerifiedPayment is the authenticated projection of a PaymentEvent after
// every trust check has passed. It is the only thing the verifier hands to
// the capability issuer.
type VerifiedPayment struct {
	PaymentID *big.Int
	Payer     string
	Service   string
	Quantity  uint64
}

// RejectReason states why a transaction hash did not authenticate a payment.
// The empty reason means the payment verified.
type RejectReason string

const (
	RejectNone RejectReason = ""
	// RejectNotMined is transient: the transaction is unknown or not yet
	// mined, and the caller may retry later.
	RejectNotMined RejectReason = "not_mined"
	// RejectReverted means the transaction is mined but failed.
	RejectReverted RejectReason = "reverted"
	// RejectWrongContract means the transaction did not target the
	// authoritative service contract.
	RejectWrongContract RejectReason = "wrong_contract"
	// RejectNoPaymentEvent means no ActionPaid event was found in the logs.
	RejectNoPaymentEvent RejectReason = "no_payment_event"
	// RejectAlreadyConsumed means the payment was redeemed before. This is
	// the replay guard.
	RejectAlreadyConsumed RejectReason = "already_consumed"
	// RejectChainError covers RPC and ABI failures during verification.
	RejectChainError RejectReason = "chain_error"
)

// Rejected reports whether the reason denotes a rejection.
func (r RejectReason) Rejected() bool {
	return r != RejectNone
}

// Transient reports whether the caller may retry the same hash later.
func (r RejectReason) Transient() bool {
	return r == RejectNotMined || r == RejectChainError
}
