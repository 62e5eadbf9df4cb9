package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wfunc/secret-mission/internal/config"
)

// Handler WebSocket升级处理器
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler 创建升级处理器
func NewHandler(hub *Hub, cfg *config.WebSocketConfig) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    cfg.ReadBufferSize,
			WriteBufferSize:   cfg.WriteBufferSize,
			EnableCompression: cfg.EnableCompression,
			// 派对游戏客户端来自任意局域网地址
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle 升级HTTP连接并启动读写协程
func (h *Handler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Error("WebSocket升级失败", zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
