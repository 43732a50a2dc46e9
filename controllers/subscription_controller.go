package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/snackstopper/services"
	"github.com/cppla/snackstopper/utils"
)

const maxSubscriptionBytes = 8 << 10

// SubscriptionController registers browser push subscriptions.
type SubscriptionController struct {
	subs *services.SubscriptionStore
}

// NewSubscriptionController creates a new SubscriptionController instance.
func NewSubscriptionController(subs *services.SubscriptionStore) *SubscriptionController {
	return &SubscriptionController{subs: subs}
}

// Subscribe stores the PushSubscription JSON posted by the browser. Re-posting the same
// subscription is a no-op.
func (s *SubscriptionController) Subscribe(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxSubscriptionBytes)
	raw, err := ctx.GetRawData()
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	created, err := s.subs.Subscribe(ctx.Request.Context(), raw)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSubscription) {
			utils.Error(ctx, http.StatusBadRequest, 40031, services.ErrInvalidSubscription.Error())
			return
		}
		utils.L().Error("store subscription", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to store subscription")
		return
	}
	utils.Success(ctx, gin.H{"ok": true, "created": created})
}
