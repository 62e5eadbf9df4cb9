package models

import (
	"time"
)

// 游戏模式
const (
	ModeLocal  = "local"  // 单设备轮流传递
	ModeOnline = "online" // 联网对战
)

// 游戏状态（只允许 lobby -> playing -> finished 单向流转）
const (
	StatusLobby    = "lobby"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Game 游戏对局表
type Game struct {
	BaseModel
	RoomCode       string     `gorm:"uniqueIndex;size:6;not null" json:"roomCode"`
	Mode           string     `gorm:"size:20;not null" json:"mode"` // local, online
	Status         string     `gorm:"size:20;default:'lobby'" json:"status"`
	TimerDuration  int        `gorm:"default:30" json:"timerDuration"` // 分钟
	TimerStartedAt *time.Time `json:"timerStartedAt,omitempty"`

	// 关联（从游戏级联删除）
	Players  []Player  `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"players,omitempty"`
	Missions []Mission `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"missions,omitempty"`
}

// Player 玩家表
type Player struct {
	BaseModel
	GameID           uint   `gorm:"not null;index" json:"gameId"`
	Name             string `gorm:"size:100;not null" json:"name"`
	Avatar           string `gorm:"size:255" json:"avatar"`
	SocketID         string `gorm:"size:64" json:"socketId,omitempty"` // 最近一次注册的连接ID，可能已失效
	Lives            int    `gorm:"default:3" json:"lives"`
	Points           int    `gorm:"default:0" json:"points"`
	IsHost           bool   `gorm:"default:false" json:"isHost"`
	IsEliminated     bool   `gorm:"default:false" json:"isEliminated"`
	MissionCompleted bool   `gorm:"default:false" json:"missionCompleted"`
}

// Mission 任务表
type Mission struct {
	BaseModel
	GameID      uint   `gorm:"not null;index" json:"gameId"`
	EnteredBy   uint   `gorm:"not null;index" json:"enteredBy"`   // 出题玩家
	AssignedTo  *uint  `gorm:"index" json:"assignedTo,omitempty"` // 分发前为空
	MissionText string `gorm:"size:500;not null" json:"missionText"`
	IsRevealed  bool   `gorm:"default:false" json:"isRevealed"`

	// 关联
	Author   Player  `gorm:"foreignKey:EnteredBy;constraint:OnDelete:CASCADE" json:"-"`
	Assignee *Player `gorm:"foreignKey:AssignedTo;constraint:OnDelete:CASCADE" json:"-"`
}

// IsActive 玩家是否仍在局内
func (p *Player) IsActive() bool {
	return !p.IsEliminated
}
