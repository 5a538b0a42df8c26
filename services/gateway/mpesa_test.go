package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newDarajaStub(t *testing.T, hits *int64, gotAmount *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/oauth"):
			json.NewEncoder(w).Encode(map[string]string{"access_token": "stub-token"})
		case strings.HasPrefix(r.URL.Path, "/mpesa/b2c"):
			var req b2cRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("b2c payload did not decode: %v", err)
			}
			atomic.StoreInt64(gotAmount, req.Amount)
			json.NewEncoder(w).Encode(b2cResponse{
				ConversationID:           "AG_1234",
				OriginatorConversationID: req.OriginatorConversationID,
				ResponseCode:             "0",
				ResponseDescription:      "Accept the service request successfully.",
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestMpesaTransferSendsWholeUnits(t *testing.T) {
	var hits, gotAmount int64
	srv := newDarajaStub(t, &hits, &gotAmount)
	defer srv.Close()

	g := NewMpesaGateway(srv.URL, "key", "secret", "600000", 5*time.Second, zap.NewNop())
	res, err := g.InitiateTransfer(context.Background(), TransferRequest{
		Amount:         210000,
		Currency:       "KES",
		MobileNumber:   "254700000001",
		IdempotencyRef: "p1-1700000000",
		Reason:         "booking payout",
	})
	if err != nil {
		t.Fatalf("InitiateTransfer: %v", err)
	}
	if !res.Success {
		t.Fatalf("transfer not successful: %s", res.ErrorMessage)
	}
	if res.TransferID != "AG_1234" {
		t.Errorf("transferId = %q, want AG_1234", res.TransferID)
	}
	if got := atomic.LoadInt64(&gotAmount); got != 2100 {
		t.Errorf("wire amount = %d whole units, want 2100", got)
	}
}

func TestMpesaRefusesSubUnitAmounts(t *testing.T) {
	var hits, gotAmount int64
	srv := newDarajaStub(t, &hits, &gotAmount)
	defer srv.Close()

	g := NewMpesaGateway(srv.URL, "key", "secret", "600000", 5*time.Second, zap.NewNop())
	res, err := g.InitiateTransfer(context.Background(), TransferRequest{
		Amount:         210050,
		Currency:       "KES",
		MobileNumber:   "254700000001",
		IdempotencyRef: "p2-1700000000",
		Reason:         "booking payout",
	})
	if err != nil {
		t.Fatalf("InitiateTransfer: %v", err)
	}
	if res.Success {
		t.Fatal("a sub-unit amount must not be accepted")
	}
	if res.ErrorMessage == "" {
		t.Error("refusal carries no reason")
	}
	if atomic.LoadInt64(&hits) != 0 {
		t.Errorf("gateway was called %d times for a refused amount, want 0", hits)
	}
}
