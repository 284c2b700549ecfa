package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/metrics"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
)

// RetryDecision is the retry manager's verdict on a failed collection.
type RetryDecision string

const (
	// DecisionRetryNextCycle keeps the member active; the normal monthly
	// batch picks them up again. No same-cycle immediate retries.
	DecisionRetryNextCycle RetryDecision = "retry_next_cycle"
	// DecisionSuspend excludes the member from future batches until an
	// operator reactivates the account.
	DecisionSuspend RetryDecision = "suspended"
)

// RetryConfig holds the failure-handling knobs. Defaults: three attempts
// before suspension, repeated-failure escalation at two failures inside a
// 90-day window.
type RetryConfig struct {
	MaxAttempts             int
	RepeatedFailureMin      int
	RepeatedFailureLookback time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RepeatedFailureMin <= 0 {
		c.RepeatedFailureMin = 2
	}
	if c.RepeatedFailureLookback <= 0 {
		c.RepeatedFailureLookback = 90 * 24 * time.Hour
	}
	return c
}

// RetryManager decides what happens after a failed collection: retained for
// the next cycle, or suspended at the ceiling. Suspension is the terminal
// automatic action; policies are never auto-cancelled for payment failure.
type RetryManager struct {
	members MemberStore
	txns    TransactionStore
	cfg     RetryConfig
	logger  *zap.Logger
}

func NewRetryManager(members MemberStore, txns TransactionStore, cfg RetryConfig, logger *zap.Logger) *RetryManager {
	return &RetryManager{
		members: members,
		txns:    txns,
		cfg:     cfg.withDefaults(),
		logger:  logger,
	}
}

// HandleFailure is called by the reconciler with the member's updated
// failed-attempt count after a failed or rejected outcome was applied.
func (m *RetryManager) HandleFailure(ctx context.Context, txn *models.Transaction, failedAttempts int) (RetryDecision, error) {
	if failedAttempts < m.cfg.MaxAttempts {
		if err := m.txns.IncrementRetryCount(ctx, txn.ID); err != nil {
			return "", err
		}
		m.logger.Info("member retained for next collection cycle",
			zap.String("member_id", txn.MemberID),
			zap.String("transaction_id", txn.ID),
			zap.Int("failed_attempts", failedAttempts),
			zap.Int("ceiling", m.cfg.MaxAttempts))
		return DecisionRetryNextCycle, nil
	}

	if err := m.members.Suspend(ctx, txn.MemberID); err != nil {
		return "", err
	}
	metrics.MembersSuspended.Inc()
	m.logger.Warn("member suspended at retry ceiling",
		zap.String("member_id", txn.MemberID),
		zap.String("member_number", txn.MemberNumber),
		zap.Int("failed_attempts", failedAttempts))
	return DecisionSuspend, nil
}

// RepeatedFailures lists members whose failure count inside the lookback
// window warrants manual escalation.
func (m *RetryManager) RepeatedFailures(ctx context.Context) ([]*models.RepeatedFailure, error) {
	since := time.Now().Add(-m.cfg.RepeatedFailureLookback)
	return m.members.RepeatedFailures(ctx, m.cfg.RepeatedFailureMin, since)
}

// Reactivate returns a suspended member to collection. Arrears are carried
// forward in full; only the failure counter resets.
func (m *RetryManager) Reactivate(ctx context.Context, memberID string) error {
	if err := m.members.Reactivate(ctx, memberID); err != nil {
		return err
	}
	m.logger.Info("member reactivated", zap.String("member_id", memberID))
	return nil
}
