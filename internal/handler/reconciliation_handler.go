package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/service"
)

type ReconciliationHandler struct {
	reconciler *service.Reconciler
	logger     *zap.Logger
}

func NewReconciliationHandler(reconciler *service.Reconciler, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: reconciler, logger: logger}
}

// IngestReport accepts a processor settlement report, either uploaded
// manually or forwarded by a scheduled job. Both paths call the same
// reconciler.
func (h *ReconciliationHandler) IngestReport(c *gin.Context) {
	var report models.SettlementReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.reconciler.IngestReport(c.Request.Context(), &report)
	if err != nil {
		h.logger.Error("report ingestion failed",
			zap.String("report_id", report.ReportID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *ReconciliationHandler) ListDiscrepancies(c *gin.Context) {
	limit, offset := pagination(c)

	discs, err := h.reconciler.ListUnresolvedDiscrepancies(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discrepancies": discs, "limit": limit, "offset": offset})
}

func (h *ReconciliationHandler) ResolveDiscrepancy(c *gin.Context) {
	if err := h.reconciler.ResolveDiscrepancy(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
