package domain

type AuthorizationStatus string

const (
	AuthorizationStatusRequiresAction AuthorizationStatus = "requires_action"
	AuthorizationStatusProcessing     AuthorizationStatus = "processing"
	AuthorizationStatusSucceeded      AuthorizationStatus = "succeeded"
	AuthorizationStatusFailed         AuthorizationStatus = "failed"
)

// Authorization is the gateway's view of a payment. Amount is integer
// minor currency units (cents), matching what the processor collected.
type Authorization struct {
	Reference string              `json:"reference"`
	Amount    int64               `json:"amount"`
	Currency  string              `json:"currency"`
	Status    AuthorizationStatus `json:"status"`
	Metadata  map[string]string   `json:"metadata"`
}

const (
	WebhookEventPaymentSucceeded = "payment.succeeded"
	WebhookEventPaymentFailed    = "payment.failed"
)

// WebhookEvent is the asynchronous notification the gateway delivers over
// HTTP POST. Delivery is at-least-once; handlers must tolerate duplicates.
type WebhookEvent struct {
	Type             string `json:"type"`
	AuthorizationRef string `json:"authorization_reference"`
	Amount           int64  `json:"amount"`
}
