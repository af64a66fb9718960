package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"hospital-admin-server/internal/config"
)

// RefundGateway is the slice of the payment gateway this workflow
// needs: refunding one captured online payment.
type RefundGateway interface {
	Refund(ctx context.Context, gatewayPaymentID string, amount float64, reason string) (*RefundResult, error)
}

// RefundResult is the gateway's answer to a refund request. Success
// false with a nil error is a logical failure: the HTTP exchange
// worked but the gateway declined.
type RefundResult struct {
	Success    bool       `json:"success"`
	RefundedAt *time.Time `json:"refundedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// CCAvenueService talks to the CCAvenue refund API.
type CCAvenueService struct {
	baseURL    string
	merchantID string
	apiKey     string
	httpClient *http.Client
}

// NewCCAvenueService creates the gateway client from configuration.
func NewCCAvenueService(cfg config.CCAvenueConfig) *CCAvenueService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CCAvenueService{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.MerchantID,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ccavenueRefundRequest struct {
	MerchantID   string  `json:"merchant_id"`
	ReferenceID  string  `json:"reference_id"`
	TrackingID   string  `json:"tracking_id"`
	RefundAmount float64 `json:"refund_amount"`
	RefundReason string  `json:"refund_reason"`
}

type ccavenueRefundResponse struct {
	Status       string     `json:"status"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Refund requests a refund of one captured payment. Transport errors
// are returned as errors; a declined refund comes back as a result
// with Success false.
func (s *CCAvenueService) Refund(ctx context.Context, gatewayPaymentID string, amount float64, reason string) (*RefundResult, error) {
	payload := ccavenueRefundRequest{
		MerchantID:   s.merchantID,
		ReferenceID:  uuid.New().String(),
		TrackingID:   gatewayPaymentID,
		RefundAmount: amount,
		RefundReason: reason,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal refund request: %w", err)
	}

	url := s.baseURL + "/api/v1/refunds"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build refund request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refund request failed: %w", err)
	}
	defer resp.Body.Close()

	var gw ccavenueRefundResponse
	if err := json.NewDecoder(resp.Body).Decode(&gw); err != nil {
		return nil, fmt.Errorf("decode refund response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("gateway error %d: %s", resp.StatusCode, gw.ErrorMessage)
	}

	if gw.Status != "SUCCESS" {
		return &RefundResult{
			Success: false,
			Error:   gw.ErrorCode,
			Message: gw.ErrorMessage,
		}, nil
	}

	return &RefundResult{Success: true, RefundedAt: gw.RefundedAt}, nil
}
