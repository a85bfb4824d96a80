package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/middleware"
	"github.com/flicky/go-marketplace/internal/realtime"
	"github.com/flicky/go-marketplace/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	hub                 *realtime.Hub
	upgrader            websocket.Upgrader
}

func NewNotificationHandler(notificationService *service.NotificationService, hub *realtime.Hub, checkOrigin func(r *http.Request) bool) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		hub:                 hub,
		upgrader:            websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	items, unread, err := h.notificationService.List(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.NotificationListResponse{Notifications: make([]dto.NotificationResponse, 0, len(items)), Unread: unread}
	for i := range items {
		resp.Notifications = append(resp.Notifications, dto.ToNotificationResponse(&items[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// Live upgrades to a websocket that streams new-order notifications for the seller.
func (h *NotificationHandler) Live(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if !p.IsSeller() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.hub.Serve(conn, p.ID)
}
