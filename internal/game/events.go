package game

// 广播事件名称, 前端按事件名分发处理
const (
	// EventConnected 连接建立后下发 socketId
	EventConnected = "connected"
	// EventPlayerJoined 新玩家加入房间
	EventPlayerJoined = "player_joined"
	// EventMissionsDistributed 任务分配完成, 游戏开始
	EventMissionsDistributed = "missions_distributed"
	// EventPlayerUpdated 玩家状态变更(生命/积分/淘汰/完成任务)
	EventPlayerUpdated = "player_updated"
	// EventGameEnded 游戏结束
	EventGameEnded = "game_ended"
	// EventGameUpdate 客户端请求的通用状态透传
	EventGameUpdate = "game_update"
)

// 玩家动作类型, 对应主持人操作面板
const (
	// ActionEliminate 直接淘汰玩家(任务被识破)
	ActionEliminate = "eliminate"
	// ActionSubtractLife 扣除一条生命
	ActionSubtractLife = "subtract_life"
	// ActionAddPoint 加一分
	ActionAddPoint = "add_point"
	// ActionMissionCompleted 标记任务完成并加分
	ActionMissionCompleted = "mission_completed"
)

// Broadcaster 向指定游戏的所有在线玩家推送事件
// 由 websocket 层实现, 游戏逻辑不感知连接细节
type Broadcaster interface {
	// BroadcastToGame 向游戏内所有已绑定连接的玩家广播事件
	BroadcastToGame(gameID uint, event string, data interface{})
}

// NopBroadcaster 空实现, 用于测试或未启用实时推送的场景
type NopBroadcaster struct{}

// BroadcastToGame 丢弃事件
func (NopBroadcaster) BroadcastToGame(gameID uint, event string, data interface{}) {}
