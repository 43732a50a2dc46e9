package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/snackstopper/utils"
)

// ConfigController serves configuration the browser needs before it can subscribe.
type ConfigController struct {
	vapidPublicKey string
}

func NewConfigController(vapidPublicKey string) *ConfigController {
	return &ConfigController{vapidPublicKey: vapidPublicKey}
}

// GetVAPIDPublicKey returns the application server key used by PushManager.subscribe.
func (c *ConfigController) GetVAPIDPublicKey(ctx *gin.Context) {
	if c.vapidPublicKey == "" {
		utils.Error(ctx, http.StatusServiceUnavailable, 50350, "push notifications are not configured")
		return
	}
	utils.Success(ctx, gin.H{"public_key": c.vapidPublicKey})
}
