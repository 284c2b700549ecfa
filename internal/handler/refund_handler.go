package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/service"
)

type RefundHandler struct {
	refunds *service.RefundService
	logger  *zap.Logger
}

func NewRefundHandler(refunds *service.RefundService, logger *zap.Logger) *RefundHandler {
	return &RefundHandler{refunds: refunds, logger: logger}
}

type createRefundRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	AmountCents   int64  `json:"amount_cents" binding:"required,gt=0"`
	Reason        string `json:"reason" binding:"required"`
}

func (h *RefundHandler) Create(c *gin.Context) {
	var req createRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	refund, err := h.refunds.Request(c.Request.Context(), req.TransactionID, req.AmountCents, req.Reason)
	if err != nil {
		h.logger.Error("refund request failed",
			zap.String("transaction_id", req.TransactionID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, refund)
}

func (h *RefundHandler) Confirm(c *gin.Context) {
	refund, err := h.refunds.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("refund confirmation failed",
			zap.String("refund_id", c.Param("id")), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

type resolveRefundRequest struct {
	Outcome            string `json:"outcome" binding:"required,oneof=processing failed"`
	ProcessorReference string `json:"processor_reference"`
}

// Resolve settles a refund stuck in pending after an ambiguous submission,
// once the operator has verified with the bureau whether it landed.
func (h *RefundHandler) Resolve(c *gin.Context) {
	var req resolveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	refund, err := h.refunds.ResolvePending(c.Request.Context(), c.Param("id"),
		req.Outcome == "processing", req.ProcessorReference)
	if err != nil {
		h.logger.Error("refund resolution failed",
			zap.String("refund_id", c.Param("id")), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

func (h *RefundHandler) Get(c *gin.Context) {
	refund, err := h.refunds.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

func (h *RefundHandler) ListByTransaction(c *gin.Context) {
	refunds, err := h.refunds.ListByTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": refunds})
}
