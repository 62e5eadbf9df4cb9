package database

import (
	"fmt"

	"github.com/wfunc/secret-mission/internal/logger"
	"github.com/wfunc/secret-mission/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 定义需要迁移的模型（顺序决定外键建表顺序）
	migrationModels := []interface{}{
		// 账号相关
		&models.User{},

		// 游戏相关
		&models.Game{},
		&models.Player{},
		&models.Mission{},
	}

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("数据库迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err))
			return fmt.Errorf("迁移 %T 失败: %w", model, err)
		}
	}

	logger.Info("数据库迁移完成", zap.Int("models", len(migrationModels)))
	return nil
}
