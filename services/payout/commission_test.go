package payout

import (
	"errors"
	"testing"

	"fundihub/errs"
)

func TestCalculateCommissionSplit(t *testing.T) {
	cases := []struct {
		name           string
		gross          int64
		rateBps        int64
		wantCommission int64
		wantPayout     int64
	}{
		{"thirty percent of 3000", 300000, 3000, 90000, 210000},
		{"zero rate", 5000, 0, 0, 5000},
		{"zero gross", 0, 3000, 0, 0},
		{"rounds half up", 5, 1000, 1, 4}, // 0.5 -> 1
		{"rounds down below half", 4, 1000, 0, 4},
		{"odd amount", 999, 2500, 250, 749},
		{"one minor unit", 1, 9999, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			split, err := CalculateCommission(tc.gross, tc.rateBps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if split.CommissionAmount != tc.wantCommission {
				t.Errorf("commission = %d, want %d", split.CommissionAmount, tc.wantCommission)
			}
			if split.PayoutAmount != tc.wantPayout {
				t.Errorf("payout = %d, want %d", split.PayoutAmount, tc.wantPayout)
			}
		})
	}
}

func TestCalculateCommissionExactSum(t *testing.T) {
	rates := []int64{0, 1, 250, 1500, 3000, 5000, 9999}
	for gross := int64(0); gross < 10000; gross += 37 {
		for _, rate := range rates {
			split, err := CalculateCommission(gross, rate)
			if err != nil {
				t.Fatalf("gross=%d rate=%d: %v", gross, rate, err)
			}
			if split.CommissionAmount+split.PayoutAmount != gross {
				t.Fatalf("gross=%d rate=%d: commission %d + payout %d != gross",
					gross, rate, split.CommissionAmount, split.PayoutAmount)
			}
			if split.PayoutAmount < 0 {
				t.Fatalf("gross=%d rate=%d: negative payout %d", gross, rate, split.PayoutAmount)
			}
		}
	}
}

func TestCalculateCommissionRejectsBadInput(t *testing.T) {
	if _, err := CalculateCommission(-1, 3000); err == nil {
		t.Error("expected error for negative gross")
	}
	if _, err := CalculateCommission(100, -1); err == nil {
		t.Error("expected error for negative rate")
	}
	if _, err := CalculateCommission(100, 10000); err == nil {
		t.Error("expected error for rate of 100 percent")
	}

	_, err := CalculateCommission(100, 12000)
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %T", err)
	}
}
