package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/day1healthdeveloper-cmd/day1main-system-sub004/internal/service"
)

type MemberHandler struct {
	members service.MemberStore
	retry   *service.RetryManager
	logger  *zap.Logger
}

func NewMemberHandler(members service.MemberStore, retry *service.RetryManager, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{members: members, retry: retry, logger: logger}
}

func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.members.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// RepeatedFailures exposes the escalation view: members with repeated
// failed collections inside the configured lookback window.
func (h *MemberHandler) RepeatedFailures(c *gin.Context) {
	failures, err := h.retry.RepeatedFailures(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repeated_failures": failures})
}

// Reactivate returns a suspended member to collection. Operator action;
// arrears are carried forward, not forgiven.
func (h *MemberHandler) Reactivate(c *gin.Context) {
	memberID := c.Param("id")
	if err := h.retry.Reactivate(c.Request.Context(), memberID); err != nil {
		h.logger.Error("reactivation failed", zap.String("member_id", memberID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactivated": true})
}
