package gateway

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/transfer"
	"go.uber.org/zap"
)

// StripeGateway pays bank-account recipients through Stripe transfers to the
// provider's connected account.
type StripeGateway struct {
	logger *zap.Logger
}

// NewStripeGateway creates the Stripe transfer adapter. The global stripe key
// is set at process start.
func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	return &StripeGateway{logger: logger}
}

func (g *StripeGateway) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		Destination:   stripe.String(req.BankAccountID),
		TransferGroup: stripe.String(req.Reason),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(req.IdempotencyRef)

	t, err := transfer.New(params)
	if err != nil {
		g.logger.Warn("stripe transfer failed",
			zap.String("idempotencyRef", req.IdempotencyRef),
			zap.Error(err))
		return &TransferResult{Success: false, ErrorMessage: err.Error()}, nil
	}

	g.logger.Info("stripe transfer initiated",
		zap.String("transferId", t.ID),
		zap.Int64("amount", req.Amount))
	return &TransferResult{
		Success:           true,
		TransferID:        t.ID,
		TransferReference: req.IdempotencyRef,
	}, nil
}
