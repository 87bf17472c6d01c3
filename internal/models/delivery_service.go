package models

import "context"

// DeliveryService performs the paid action. The relay assumes nothing about
// the provider beyond this contract: delivery either yields a receipt
// identifier or fails, and the relay never retries on its own.
type DeliveryService interface {
	Send(ctx context.Context, req *DeliveryRequest) (string, error)
}

// AlertService notifies operators about conditions that need out-of-band
// reconciliation, most importantly delivered-but-unconsumed payments.
type AlertService interface {
	Alert(ctx context.Context, message string)
}
