package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/logger"
	"github.com/wfunc/secret-mission/internal/models"
	"github.com/wfunc/secret-mission/internal/repository"
	"github.com/wfunc/secret-mission/internal/utils"
)

// AuthService 认证服务
// 管理主持人账号, 游戏本身不要求登录
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	ValidateToken(token string) (*utils.JWTClaims, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

// authService 认证服务实现
type authService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository, jwtManager *utils.JWTManager) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		log:        logger.GetModuleLogger("auth"),
	}
}

// Register 注册主持人账号
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if !usernamePattern.MatchString(req.Username) {
		return nil, errors.New(errors.ErrInvalidParam, "用户名只能包含字母数字下划线, 长度3-50")
	}
	if len(req.Password) < 6 {
		return nil, errors.New(errors.ErrInvalidParam, "密码长度至少6位")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrUnknown, "密码加密失败")
	}

	user := &models.User{
		Username: req.Username,
		Password: hashed,
		Nickname: req.Nickname,
		Avatar:   req.Avatar,
	}
	if user.Nickname == "" {
		user.Nickname = req.Username
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return s.issueTokens(user)
}

// Login 登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.New(errors.ErrAuthentication, "用户名或密码错误")
		}
		return nil, err
	}

	ok, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		return nil, errors.New(errors.ErrAuthentication, "用户名或密码错误")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, req.IP); err != nil {
		s.log.Warn("更新登录时间失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return s.issueTokens(user)
}

// RefreshToken 刷新访问令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	token, err := s.jwtManager.RefreshAccessToken(refreshToken)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTokenInvalid, "刷新令牌无效")
	}
	return token, nil
}

// ValidateToken 验证访问令牌
func (s *authService) ValidateToken(token string) (*utils.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTokenInvalid, "令牌无效")
	}
	if claims.TokenType != "access" {
		return nil, errors.New(errors.ErrTokenInvalid, "令牌类型错误")
	}
	return claims, nil
}

// GetProfile 获取用户资料
func (s *authService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// issueTokens 下发令牌对
func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrUnknown, "生成访问令牌失败")
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrUnknown, "生成刷新令牌失败")
	}
	return &AuthResponse{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
