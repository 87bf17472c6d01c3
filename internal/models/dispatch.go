package models

// Known service types a payment can purchase.
const (
	ServiceSMS   = "sms"
	ServiceEmail = "email"
)

// DispatchRequest is the payload the client redeems a capability against.
type DispatchRequest struct {
	// Destination is the phone number or email address to deliver to.
	Destination string
	// Content is the message body. The quota is enforced against its
	// byte length, not its character count.
	Content string
	// Subject is an optional subject line, used for email only.
	Subject string
	// SenderName is an optional display name for the sender.
	SenderName string
}

// DeliveryRequest is what the dispatcher hands to the delivery gateway.
type DeliveryRequest struct {
	Service     string
	Destination string
	Content     string
	Subject     string
	SenderName  string
}

// DispatchResult is the acknowledgment returned after a successful dispatch.
type DispatchResult struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Destination string `json:"destination"`
	// PaymentID is the redeemed payment, decimal encoded.
	PaymentID string `json:"payment_id"`
	// ConsumptionTx is the hash of the mined consumePayment transaction,
	// or empty when the payment was delivered but not yet marked consumed.
	ConsumptionTx string `json:"consumption_tx"`
	// ProviderReceipt is the delivery provider's receipt identifier.
	ProviderReceipt string `json:"provider_sid"`
	Timestamp       int64  `json:"timestamp"`
}
