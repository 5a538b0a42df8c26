package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// MpesaGateway pays mobile-money recipients through a Daraja-style B2C API.
type MpesaGateway struct {
	baseURL   string
	key       string
	secret    string
	shortCode string
	client    *http.Client
	logger    *zap.Logger
}

// NewMpesaGateway creates the mobile-money transfer adapter. The timeout
// bounds every outbound call including the OAuth token fetch.
func NewMpesaGateway(baseURL, key, secret, shortCode string, timeout time.Duration, logger *zap.Logger) *MpesaGateway {
	return &MpesaGateway{
		baseURL:   baseURL,
		key:       key,
		secret:    secret,
		shortCode: shortCode,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type b2cRequest struct {
	OriginatorConversationID string `json:"OriginatorConversationID"`
	CommandID                string `json:"CommandID"`
	Amount                   int64  `json:"Amount"`
	PartyA                   string `json:"PartyA"`
	PartyB                   string `json:"PartyB"`
	Remarks                  string `json:"Remarks"`
}

type b2cResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

func (g *MpesaGateway) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	// The B2C API takes whole currency units. A sub-unit amount would be
	// silently truncated on the wire, leaving the recorded payout larger
	// than the transfer, so it is refused outright.
	if req.Amount%100 != 0 {
		return &TransferResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("amount %d has a sub-unit remainder and cannot be paid via B2C", req.Amount),
		}, nil
	}

	token, err := g.accessToken(ctx)
	if err != nil {
		return &TransferResult{Success: false, ErrorMessage: fmt.Sprintf("token fetch failed: %v", err)}, nil
	}

	// Amounts on the wire are whole currency units.
	payload := b2cRequest{
		OriginatorConversationID: req.IdempotencyRef,
		CommandID:                "BusinessPayment",
		Amount:                   req.Amount / 100,
		PartyA:                   g.shortCode,
		PartyB:                   req.MobileNumber,
		Remarks:                  req.Reason,
	}

	// One bounded retry on transport errors; the idempotency reference makes
	// the replay safe on the gateway side.
	var resp *b2cResponse
	for attempt := 0; attempt < 2; attempt++ {
		resp, err = g.postB2C(ctx, token, payload)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		g.logger.Warn("mpesa b2c request failed",
			zap.String("idempotencyRef", req.IdempotencyRef),
			zap.Error(err))
		return &TransferResult{Success: false, ErrorMessage: err.Error()}, nil
	}

	if resp.ResponseCode != "0" {
		return &TransferResult{Success: false, ErrorMessage: resp.ResponseDescription}, nil
	}

	g.logger.Info("mpesa b2c transfer initiated",
		zap.String("conversationId", resp.ConversationID),
		zap.Int64("amount", req.Amount))
	return &TransferResult{
		Success:           true,
		TransferID:        resp.ConversationID,
		TransferReference: resp.OriginatorConversationID,
	}, nil
}

func (g *MpesaGateway) accessToken(ctx context.Context) (string, error) {
	url := g.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	httpReq.SetBasicAuth(g.key, g.secret)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.AccessToken, nil
}

func (g *MpesaGateway) postB2C(ctx context.Context, token string, payload b2cRequest) (*b2cResponse, error) {
	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := g.baseURL + "/mpesa/b2c/v1/paymentrequest"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("b2c endpoint returned status %d", resp.StatusCode)
	}

	var out b2cResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
