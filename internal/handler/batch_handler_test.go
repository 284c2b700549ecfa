package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/processor"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/service"
)

// Empty stubs so the handler can be exercised without a database; the
// lookup miss makes the gateway bail out with ErrNotFound.

type stubBatches struct{}

func (stubBatches) CreateWithTransactions(context.Context, *models.Batch, []*models.Transaction) error {
	return nil
}
func (stubBatches) GetByID(context.Context, string) (*models.Batch, error) {
	return nil, models.ErrNotFound
}
func (stubBatches) GetByProcessorReference(context.Context, string) (*models.Batch, error) {
	return nil, models.ErrNotFound
}
func (stubBatches) List(context.Context, int, int) ([]*models.Batch, error) { return nil, nil }
func (stubBatches) MarkSubmitted(context.Context, string, string, time.Time) (bool, error) {
	return false, nil
}
func (stubBatches) MarkFailed(context.Context, string, string) error { return nil }

func (stubBatches) MarkReconciled(context.Context, string, bool) error { return nil }

type stubTxns struct{}

func (stubTxns) GetByID(context.Context, string) (*models.Transaction, error) {
	return nil, models.ErrNotFound
}
func (stubTxns) GetByProcessorReference(context.Context, string) (*models.Transaction, error) {
	return nil, models.ErrNotFound
}
func (stubTxns) TransitionStatus(context.Context, string, models.TransactionStatus, models.TransactionStatus, string, time.Time) (bool, error) {
	return false, nil
}
func (stubTxns) MarkBatchSubmitted(context.Context, string) error { return nil }

func (stubTxns) IncrementRetryCount(context.Context, string) error { return nil }
func (stubTxns) ListByBatchAndStatus(context.Context, string, models.TransactionStatus) ([]*models.Transaction, error) {
	return nil, nil
}
func (stubTxns) List(context.Context, models.TransactionFilter) ([]*models.Transaction, error) {
	return nil, nil
}
func (stubTxns) Stats(context.Context, time.Time, time.Time) (*models.TransactionStats, error) {
	return nil, nil
}

type stubMembers struct{}

func (stubMembers) GetByID(context.Context, string) (*models.MemberProfile, error) {
	return nil, models.ErrNotFound
}
func (stubMembers) ListEligible(context.Context, time.Time, string) ([]*models.MemberProfile, error) {
	return nil, nil
}
func (stubMembers) ApplySuccessfulPayment(context.Context, string, int64, time.Time, time.Time) error {
	return nil
}
func (stubMembers) ApplyFailedPayment(context.Context, string, int64) (int, error) { return 0, nil }

func (stubMembers) Suspend(context.Context, string) error { return nil }

func (stubMembers) Reactivate(context.Context, string) error { return nil }
func (stubMembers) RepeatedFailures(context.Context, int, time.Time) ([]*models.RepeatedFailure, error) {
	return nil, nil
}

type stubClient struct{}

func (stubClient) SubmitBatch(context.Context, *processor.BatchPayload) (*processor.SubmitResult, error) {
	return nil, models.ErrAmbiguousSubmission
}
func (stubClient) SubmitRefund(context.Context, *processor.RefundRequest) (*processor.RefundResult, error) {
	return nil, models.ErrAmbiguousSubmission
}

type stubLocks struct{}

func (stubLocks) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}
func (stubLocks) ReleaseLock(context.Context, string) error { return nil }

func (stubLocks) Exists(context.Context, string) (bool, error) { return false, nil }

func (stubLocks) Get(context.Context, string) (string, error) { return "", models.ErrNotFound }
func (stubLocks) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func newTestBatchRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	builder := service.NewBatchBuilder(stubMembers{}, stubBatches{}, log)
	gateway := service.NewGatewayService(stubBatches{}, stubTxns{}, stubMembers{}, stubClient{}, stubLocks{}, 10, 16, log)
	h := NewBatchHandler(builder, gateway, stubBatches{}, log)

	router := gin.New()
	router.POST("/api/v1/batches/:id/submit", h.Submit)
	return router
}

func TestSubmitAcceptsEmptyBody(t *testing.T) {
	router := newTestBatchRouter()

	// No body means the default service type; the request must reach the
	// gateway, which then misses on the batch lookup.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches/b1/submit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (an empty body must not be a binding error)", w.Code)
	}
}

func TestSubmitRejectsInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"service_type":`},
		{"unknown service type", `{"service_type": "overnight"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestBatchRouter()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/batches/b1/submit", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
		})
	}
}
