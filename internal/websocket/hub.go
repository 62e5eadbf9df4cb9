package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/wfunc/secret-mission/internal/game"
	"github.com/wfunc/secret-mission/internal/logger"
)

// Hub WebSocket连接管理中心
// 维护 socketId 到客户端的映射, 以及游戏房间到客户端列表的映射
type Hub struct {
	// 客户端连接池, 键为 socketId
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 游戏房间到客户端的映射, 玩家注册后加入
	gameClients map[uint][]*Client
	gameMu      sync.RWMutex

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	// 玩家绑定, 由游戏服务实现
	binder PlayerBinder

	logger *zap.Logger
}

// Message 服务端下发消息信封
type Message struct {
	Event    string      `json:"event"`
	Data     interface{} `json:"data,omitempty"`
	SocketID string      `json:"socketId,omitempty"`
}

// InboundMessage 客户端上行消息信封, 载荷放在 data 里
type InboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`

	// 兼容把 playerId 放在信封顶层的客户端
	PlayerID uint `json:"playerId,omitempty"`
}

// inboundPayload 上行 data 载荷中服务端关心的字段
type inboundPayload struct {
	PlayerID uint `json:"playerId"`
	GameID   uint `json:"gameId"`
}

// payload 解析 data 载荷, 非对象载荷按空载荷处理
func (m *InboundMessage) payload() inboundPayload {
	var p inboundPayload
	if len(m.Data) > 0 {
		_ = json.Unmarshal(m.Data, &p)
	}
	return p
}

// 客户端上行事件
const (
	// InboundRegisterPlayer 把连接绑定到玩家
	InboundRegisterPlayer = "register_player"
	// InboundPing 客户端心跳
	InboundPing = "ping"
	// InboundPong 心跳响应
	InboundPong = "pong"
	// InboundPlayerReady 玩家准备就绪
	InboundPlayerReady = "player_ready"
	// InboundGameUpdate 请求向同房间玩家透传状态
	InboundGameUpdate = "game_update"
)

// NewHub 创建Hub
func NewHub(binder PlayerBinder) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		gameClients: make(map[uint][]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		binder:      binder,
		logger:      logger.GetModuleLogger("websocket"),
	}
}

// Run 运行Hub主循环
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient 注册客户端并下发 socketId
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接", zap.String("socket_id", client.ID))

	h.SendToSocket(client.ID, &Message{
		Event:    game.EventConnected,
		SocketID: client.ID,
	})
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	if client.GameID > 0 {
		h.gameMu.Lock()
		clients := h.gameClients[client.GameID]
		for i, c := range clients {
			if c.ID == client.ID {
				h.gameClients[client.GameID] = append(clients[:i], clients[i+1:]...)
				break
			}
		}
		if len(h.gameClients[client.GameID]) == 0 {
			delete(h.gameClients, client.GameID)
		}
		h.gameMu.Unlock()
	}

	h.logger.Info("WebSocket客户端断开",
		zap.String("socket_id", client.ID),
		zap.Uint("player_id", client.PlayerID))
}

// bindToGame 玩家注册成功后把客户端挂到游戏房间
func (h *Hub) bindToGame(client *Client, gameID, playerID uint) {
	h.gameMu.Lock()
	if client.GameID > 0 && client.GameID != gameID {
		// 换房间时先从旧房间移除
		old := h.gameClients[client.GameID]
		for i, c := range old {
			if c.ID == client.ID {
				h.gameClients[client.GameID] = append(old[:i], old[i+1:]...)
				break
			}
		}
	}
	client.GameID = gameID
	client.PlayerID = playerID
	h.gameClients[gameID] = append(h.gameClients[gameID], client)
	h.gameMu.Unlock()
}

// SendToSocket 发送消息给指定客户端
func (h *Hub) SendToSocket(socketID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.clientsMu.RLock()
	client, ok := h.clients[socketID]
	h.clientsMu.RUnlock()

	if !ok {
		return ErrClientNotFound
	}

	select {
	case client.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendToGame 发送消息给游戏内所有已注册客户端
// 单个客户端缓冲区满只记日志, 不影响其他客户端
func (h *Hub) SendToGame(gameID uint, message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.gameMu.RLock()
	clients := make([]*Client, len(h.gameClients[gameID]))
	copy(clients, h.gameClients[gameID])
	h.gameMu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满",
				zap.String("socket_id", client.ID),
				zap.Uint("game_id", gameID))
		}
	}
}

// BroadcastToGame 实现游戏服务的广播接口
func (h *Hub) BroadcastToGame(gameID uint, event string, data interface{}) {
	logger.LogWebSocketMessage("send", event, data)
	h.SendToGame(gameID, &Message{Event: event, Data: data})
}

// OnlineCount 当前连接数
func (h *Hub) OnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// GameClientCount 游戏内已注册连接数
func (h *Hub) GameClientCount(gameID uint) int {
	h.gameMu.RLock()
	defer h.gameMu.RUnlock()
	return len(h.gameClients[gameID])
}

// Register 注册客户端（公开方法）
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客户端（公开方法）
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
