package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/processor"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/service"
)

type BatchHandler struct {
	builder *service.BatchBuilder
	gateway *service.GatewayService
	batches service.BatchStore
	logger  *zap.Logger
}

func NewBatchHandler(builder *service.BatchBuilder, gateway *service.GatewayService, batches service.BatchStore, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		builder: builder,
		gateway: gateway,
		batches: batches,
		logger:  logger,
	}
}

type buildBatchRequest struct {
	ActionDate string `json:"action_date" binding:"required"` // YYYY-MM-DD
	BatchType  string `json:"batch_type" binding:"omitempty,oneof=monthly adhoc"`
	GroupCode  string `json:"group_code"`
}

func (h *BatchHandler) Build(c *gin.Context) {
	var req buildBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actionDate, err := time.Parse("2006-01-02", req.ActionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action_date must be YYYY-MM-DD"})
		return
	}

	batch, err := h.builder.Build(c.Request.Context(), service.BuildRequest{
		ActionDate: actionDate,
		BatchType:  models.BatchType(req.BatchType),
		GroupCode:  req.GroupCode,
	})
	if err != nil {
		h.logger.Error("batch build failed", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

type submitBatchRequest struct {
	ServiceType string `json:"service_type" binding:"omitempty,oneof=sameday twoday"`
}

func (h *BatchHandler) Submit(c *gin.Context) {
	batchID := c.Param("id")

	// An empty body means "default service type".
	var req submitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch, err := h.gateway.SubmitBatch(c.Request.Context(), batchID, processor.ServiceType(req.ServiceType))
	if err != nil {
		h.logger.Error("batch submission failed", zap.String("batch_id", batchID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.batches.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) List(c *gin.Context) {
	limit, offset := pagination(c)

	batches, err := h.batches.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches, "limit": limit, "offset": offset})
}
