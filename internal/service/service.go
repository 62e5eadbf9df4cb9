package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/wfunc/secret-mission/internal/repository"
	"github.com/wfunc/secret-mission/internal/utils"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:          "change-me-in-production",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Services 服务集合
type Services struct {
	Auth AuthService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, config *Config) *Services {
	userRepo := repository.NewUserRepository(db)

	jwtManager := utils.NewJWTManager(
		config.JWTSecret,
		config.AccessTokenExpiry,
		config.RefreshTokenExpiry,
	)

	return &Services{
		Auth: NewAuthService(userRepo, jwtManager),
	}
}
