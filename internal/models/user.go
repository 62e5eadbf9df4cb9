package models

import (
	"time"
)

// User 用户账号表（游戏流程不依赖，仅用于可选的账号体系）
type User struct {
	BaseModel
	Username    string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password    string     `gorm:"size:255;not null" json:"-"` // argon2id哈希
	Nickname    string     `gorm:"size:100" json:"nickname"`
	Avatar      string     `gorm:"size:255" json:"avatar"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	LastLoginIP string     `gorm:"size:50" json:"-"`
}
