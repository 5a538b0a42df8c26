package payout

import (
	"fundihub/errs"
)

// CommissionSplit is the result of splitting a gross amount between the
// platform and the provider. All amounts are minor currency units.
type CommissionSplit struct {
	CommissionAmount int64
	PayoutAmount     int64
}

// CalculateCommission splits gross by rateBps (basis points, 0..9999).
// Commission is rounded half-up on the smallest currency unit; the payout is
// the exact remainder, so CommissionAmount + PayoutAmount == gross always.
func CalculateCommission(gross int64, rateBps int64) (CommissionSplit, error) {
	if gross < 0 {
		return CommissionSplit{}, errs.NewValidation("grossAmount", "must not be negative")
	}
	if rateBps < 0 || rateBps >= 10000 {
		return CommissionSplit{}, errs.NewValidation("commissionRateBps", "must be in [0, 10000)")
	}

	commission := (gross*rateBps + 5000) / 10000
	return CommissionSplit{
		CommissionAmount: commission,
		PayoutAmount:     gross - commission,
	}, nil
}
