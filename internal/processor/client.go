package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

// Config holds the bureau connection settings.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	SameDayCutoffHour int
	TwoDayCutoffHour  int
}

// Client is the HTTP client for the debit-order bureau. It is a pure wire
// client: idempotency and state transitions live in the gateway service.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SameDayCutoffHour == 0 {
		cfg.SameDayCutoffHour = 10
	}
	if cfg.TwoDayCutoffHour == 0 {
		cfg.TwoDayCutoffHour = 16
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// RejectionError is a definitive processor rejection: the bureau saw the
// payload and refused it. The batch will never be collected as-is.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("processor rejected submission (%d): %s", e.StatusCode, e.Message)
}

// SubmitResult is the bureau's acknowledgement of a batch.
type SubmitResult struct {
	BatchReference string    `json:"batch_reference"`
	AcceptedAt     time.Time `json:"accepted_at"`
}

// SubmitBatch sends a batch payload to the bureau.
//
// Error contract: a *RejectionError means the bureau definitively refused
// the batch. Any transport-level failure (timeout, connection reset, 5xx
// with no usable body) wraps models.ErrAmbiguousSubmission — the batch may
// or may not have landed and the caller must not retry without manual
// verification.
func (c *Client) SubmitBatch(ctx context.Context, payload *BatchPayload) (*SubmitResult, error) {
	var result SubmitResult
	if err := c.post(ctx, "/v1/batches", payload, &result); err != nil {
		return nil, err
	}
	if result.BatchReference == "" {
		return nil, fmt.Errorf("%w: bureau returned no batch reference", models.ErrAmbiguousSubmission)
	}

	c.logger.Info("batch accepted by processor",
		zap.String("batch_name", payload.BatchName),
		zap.String("batch_reference", result.BatchReference),
		zap.Int("lines", payload.LineCount),
		zap.Int64("total_cents", payload.TotalAmountCents))

	return &result, nil
}

// RefundRequest asks the bureau to reverse a previously settled line item.
type RefundRequest struct {
	BatchReference string `json:"batch_reference"`
	LineReference  string `json:"line_reference"`
	AmountCents    int64  `json:"amount_cents"`
	Reason         string `json:"reason"`
}

// RefundResult is the bureau's acknowledgement of a refund instruction.
type RefundResult struct {
	RefundReference string `json:"refund_reference"`
	Accepted        bool   `json:"accepted"`
}

// SubmitRefund sends a reversal instruction. Same error contract as
// SubmitBatch.
func (c *Client) SubmitRefund(ctx context.Context, req *RefundRequest) (*RefundResult, error) {
	var result RefundResult
	if err := c.post(ctx, "/v1/refunds", req, &result); err != nil {
		return nil, err
	}

	c.logger.Info("refund accepted by processor",
		zap.String("line_reference", req.LineReference),
		zap.String("refund_reference", result.RefundReference),
		zap.Int64("amount_cents", req.AmountCents))

	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout or connection failure: no confirmation either way.
		return fmt.Errorf("%w: %v", models.ErrAmbiguousSubmission, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", models.ErrAmbiguousSubmission, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: unparseable response: %v", models.ErrAmbiguousSubmission, err)
		}
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The bureau saw the payload and refused it.
		return &RejectionError{StatusCode: resp.StatusCode, Message: rejectionMessage(respBody)}

	default:
		return fmt.Errorf("%w: processor returned %d", models.ErrAmbiguousSubmission, resp.StatusCode)
	}
}

func rejectionMessage(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return "no reason given"
}
