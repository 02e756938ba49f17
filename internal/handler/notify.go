package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rideshare/internal/logger"
	"rideshare/internal/notify"
)

// NotifyHandler upgrades authenticated requests to the ride event feed.
type NotifyHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewNotifyHandler creates a new NotifyHandler.
func NewNotifyHandler(hub *notify.Hub, log *logger.Logger) *NotifyHandler {
	return &NotifyHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Access is gated by the bearer token, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Subscribe handles GET /api/v1/ws
func (h *NotifyHandler) Subscribe(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", logger.Err(err))
		return
	}

	client := notify.NewClient(h.hub, conn, principal, h.logger)
	go client.Serve()
}
