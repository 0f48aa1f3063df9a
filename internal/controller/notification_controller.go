package controller

import (
	"edu_collaborate_backend/internal/service"
	"edu_collaborate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Hub *service.NotifyHub
}

func NewNotificationController(hub *service.NotifyHub) *NotificationController {
	return &NotificationController{Hub: hub}
}

// @Summary 通知 WebSocket 连接
// @Description 评审发布等事件通过该连接实时推送
// @Tags 通知模块
// @Security BearerAuth
// @Router /api/ws/notifications [get]
func (c *NotificationController) Connect(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	service.ServeNotifyWs(c.Hub, ctx.Writer, ctx.Request, user.UserID)
}
