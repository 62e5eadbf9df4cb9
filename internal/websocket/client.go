package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wfunc/secret-mission/internal/game"
	"github.com/wfunc/secret-mission/internal/logger"
	"github.com/wfunc/secret-mission/internal/models"
)

// 错误定义
var (
	ErrClientNotFound = errors.New("客户端未找到")
	ErrSendBufferFull = errors.New("发送缓冲区已满")
	ErrInvalidMessage = errors.New("无效的消息格式")
)

// WebSocket配置
const (
	// 写超时
	writeWait = 10 * time.Second

	// 读取pong超时
	pongWait = 60 * time.Second

	// ping发送周期（必须小于pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 64 * 1024 // 64KB

	// 绑定玩家的数据库操作超时
	bindTimeout = 5 * time.Second
)

// PlayerBinder 把连接绑定到玩家, 由游戏服务实现
type PlayerBinder interface {
	BindSocket(ctx context.Context, playerID uint, socketID string) (*models.Player, error)
}

// Client WebSocket客户端
type Client struct {
	ID       string          // socketId
	PlayerID uint            // 注册后绑定的玩家ID
	GameID   uint            // 注册后绑定的游戏ID
	Hub      *Hub            // Hub引用
	Conn     *websocket.Conn // WebSocket连接
	Send     chan []byte     // 发送通道
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
}

// ReadPump 读取消息
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("socket_id", c.ID),
					zap.Error(err))
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// 批量发送队列中的消息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理客户端上行消息
func (c *Client) handleMessage(data []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.Hub.logger.Error("解析WebSocket消息失败",
			zap.String("socket_id", c.ID),
			zap.Error(err))
		c.sendError("消息格式错误")
		return
	}
	if msg.Event == "" {
		c.sendError("事件名不能为空")
		return
	}

	payload := msg.payload()
	logger.LogWebSocketMessage("receive", msg.Event, payload.PlayerID)

	switch msg.Event {
	case InboundRegisterPlayer:
		playerID := payload.PlayerID
		if playerID == 0 {
			playerID = msg.PlayerID
		}
		c.registerPlayer(playerID)

	case InboundPing:
		c.SendMessage(InboundPong, nil)

	case InboundPong:
		// 客户端响应心跳

	case InboundPlayerReady:
		// 通知目标房间玩家某人已就绪, 房间取载荷里的 gameId, 缺省用绑定的房间
		gameID := payload.GameID
		if gameID == 0 {
			gameID = c.GameID
		}
		playerID := payload.PlayerID
		if playerID == 0 {
			playerID = c.PlayerID
		}
		if gameID > 0 {
			c.Hub.BroadcastToGame(gameID, InboundPlayerReady, map[string]interface{}{
				"playerId": playerID,
			})
		}

	case InboundGameUpdate:
		// 透传给目标房间的其他玩家, 无法确定房间则忽略
		gameID := payload.GameID
		if gameID == 0 {
			gameID = c.GameID
		}
		if gameID > 0 {
			var body interface{}
			if len(msg.Data) > 0 {
				if err := json.Unmarshal(msg.Data, &body); err != nil {
					c.sendError("消息格式错误")
					return
				}
			}
			c.Hub.BroadcastToGame(gameID, game.EventGameUpdate, body)
		}

	default:
		c.Hub.logger.Warn("收到不支持的事件",
			zap.String("socket_id", c.ID),
			zap.String("event", msg.Event))
		c.sendError("不支持的事件: " + msg.Event)
	}
}

// registerPlayer 把连接绑定到玩家并加入游戏房间
func (c *Client) registerPlayer(playerID uint) {
	if playerID == 0 {
		c.sendError("playerId 不能为空")
		return
	}
	if c.Hub.binder == nil {
		c.sendError("暂不支持玩家注册")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), bindTimeout)
	defer cancel()

	player, err := c.Hub.binder.BindSocket(ctx, playerID, c.ID)
	if err != nil {
		c.Hub.logger.Warn("绑定玩家失败",
			zap.String("socket_id", c.ID),
			zap.Uint("player_id", playerID),
			zap.Error(err))
		c.sendError("玩家不存在或绑定失败")
		return
	}

	c.Hub.bindToGame(c, player.GameID, player.ID)
	c.SendMessage("registered", map[string]interface{}{
		"playerId": player.ID,
		"gameId":   player.GameID,
	})
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	c.SendMessage("error", map[string]string{"error": message})
}

// SendMessage 发送消息给客户端
func (c *Client) SendMessage(event string, data interface{}) error {
	return c.Hub.SendToSocket(c.ID, &Message{Event: event, Data: data})
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.Hub.unregister <- c
}
