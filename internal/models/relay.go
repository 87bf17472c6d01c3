package models

import "context"

// RelayI is the application surface consumed by the HTTP layer.
type RelayI interface {
	// VerifyPayment authenticates a transaction hash as a genuine,
	// unconsumed payment. Idempotent and side-effect free.
	VerifyPayment(ctx context.Context, txHash string) (*VerifiedPayment, RejectReason)

	// IssueCapability converts a verified payment into a signed capability
	// token the client presents at dispatch time.
	IssueCapability(v *VerifiedPayment) (string, error)

	// Dispatch validates the capability, enforces the quota, delivers the
	// paid action and records consumption on chain.
	Dispatch(ctx context.Context, token string, req *DispatchRequest) (*DispatchResult, error)

	// ServiceContract resolves the current authoritative contract address.
	ServiceContract(ctx context.Context) (string, error)
}

// APIServer is the HTTP front of the relay.
type APIServer interface {
	Start()
	Shutdown() error
}
