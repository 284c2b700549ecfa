package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/models"
	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/service"
)

type TransactionHandler struct {
	ledger *service.LedgerService
	logger *zap.Logger
}

func NewTransactionHandler(ledger *service.LedgerService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{ledger: ledger, logger: logger}
}

func (h *TransactionHandler) Get(c *gin.Context) {
	txn, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// List supports the dashboard query surface: filter by batch, member,
// status and date range, paginated.
func (h *TransactionHandler) List(c *gin.Context) {
	limit, offset := pagination(c)

	filter := models.TransactionFilter{
		BatchID:  c.Query("batch_id"),
		MemberID: c.Query("member_id"),
		Status:   models.TransactionStatus(c.Query("status")),
		Limit:    limit,
		Offset:   offset,
	}
	if from, ok := parseDate(c.Query("from")); ok {
		filter.From = from
	}
	if to, ok := parseDate(c.Query("to")); ok {
		filter.To = to
	}

	txns, err := h.ledger.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns, "limit": limit, "offset": offset})
}

func (h *TransactionHandler) Stats(c *gin.Context) {
	var from, to time.Time
	if v, ok := parseDate(c.Query("from")); ok {
		from = v
	}
	if v, ok := parseDate(c.Query("to")); ok {
		to = v
	}

	stats, err := h.ledger.Stats(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
