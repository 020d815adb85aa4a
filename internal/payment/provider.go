package payment

import (
	"context"

	"github.com/rdmlabs/agent-api/internal/model"
)

// Provider is the payment service the broker settles work against. The real
// implementation talks to a Masumi-style payment service over HTTP; tests
// substitute fakes.
type Provider interface {
	// CreateRequest registers a payment request and returns the on-chain
	// reference the purchaser will lock funds against.
	CreateRequest(ctx context.Context, in *CreateRequestInput) (*PaymentRequest, error)

	// CheckStatus returns the provider's current status string for a
	// payment reference.
	CheckStatus(ctx context.Context, blockchainIdentifier string) (string, error)

	// Settle submits the result text as proof of completion so the locked
	// funds can be released.
	Settle(ctx context.Context, blockchainIdentifier, resultText string) error
}

// CreateRequestInput carries everything the provider needs to open a payment
// request.
type CreateRequestInput struct {
	AgentIdentifier         string
	IdentifierFromPurchaser string
	InputData               map[string]string
	Network                 string
	Amounts                 []model.Amount
}

// PaymentRequest is the provider's answer to CreateRequest.
type PaymentRequest struct {
	BlockchainIdentifier      string
	PayByTime                 string
	SubmitResultTime          string
	UnlockTime                string
	ExternalDisputeUnlockTime string
	InputHash                 string
}

// Statuses the payment service reports for a request. FundsLocked is the
// confirmation event: the purchaser's funds are locked on-chain and work may
// begin.
const (
	StatusWaitingForExternal = "WaitingForExternalAction"
	StatusFundsLocked        = "FundsLocked"
	StatusResultSubmitted    = "ResultSubmitted"
	StatusWithdrawn          = "Withdrawn"
	StatusRefundRequested    = "RefundRequested"
)

// Confirmed reports whether a provider status means the payment is locked
// and execution should start.
func Confirmed(status string) bool {
	switch status {
	case StatusFundsLocked, "confirmed", "completed":
		return true
	}
	return false
}
