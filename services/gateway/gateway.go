package gateway

import (
	"context"

	"fundihub/errs"
	"fundihub/models"
)

// TransferRequest describes one outbound funds transfer.
type TransferRequest struct {
	Amount         int64
	Currency       string
	RecipientType  string // models.PayoutMethodBank or models.PayoutMethodMobileMoney
	BankAccountID  string
	MobileNumber   string
	IdempotencyRef string
	Reason         string
}

// TransferResult is the structured outcome of a transfer attempt.
type TransferResult struct {
	Success           bool
	TransferID        string
	TransferReference string
	ErrorMessage      string
}

// PaymentGateway is the capability the payout engine consumes. Implementations
// must honor the idempotency reference so a retried call cannot double-pay,
// and must bound the call with the passed context.
type PaymentGateway interface {
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// CompositeGateway routes transfers to the adapter for the recipient type.
type CompositeGateway struct {
	Bank   PaymentGateway
	Mobile PaymentGateway
}

func (g *CompositeGateway) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	switch req.RecipientType {
	case models.PayoutMethodBank:
		return g.Bank.InitiateTransfer(ctx, req)
	case models.PayoutMethodMobileMoney:
		return g.Mobile.InitiateTransfer(ctx, req)
	default:
		return nil, errs.NewValidation("recipientType", "unsupported payout method: "+req.RecipientType)
	}
}
