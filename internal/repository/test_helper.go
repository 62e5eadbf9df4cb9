package repository

import (
	"fmt"

	"github.com/wfunc/secret-mission/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置测试数据库
func SetupTestDB() *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// sqlite默认不启用外键约束，级联删除依赖它
	db.Exec("PRAGMA foreign_keys = ON")

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Player{},
		&models.Mission{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// CreateTestGame 创建测试游戏
func CreateTestGame(roomCode, mode string) *models.Game {
	return &models.Game{
		RoomCode:      roomCode,
		Mode:          mode,
		Status:        models.StatusLobby,
		TimerDuration: 30,
	}
}

// CreateTestPlayer 创建测试玩家
func CreateTestPlayer(gameID uint, name string, isHost bool) *models.Player {
	return &models.Player{
		GameID: gameID,
		Name:   name,
		Avatar: fmt.Sprintf("avatar-%s.png", name),
		Lives:  3,
		IsHost: isHost,
	}
}

// CreateTestMission 创建测试任务
func CreateTestMission(gameID, enteredBy uint, text string) *models.Mission {
	return &models.Mission{
		GameID:      gameID,
		EnteredBy:   enteredBy,
		MissionText: text,
	}
}
