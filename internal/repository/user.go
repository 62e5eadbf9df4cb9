package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/models"
	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	BaseRepository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, ip string) error
}

// userRepo 用户仓储实现
type userRepo struct {
	*BaseRepo
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建用户，用户名重复时返回冲突错误
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if isDuplicateKey(err) {
			return errors.New(errors.ErrAlreadyExists, user.Username).WithCause(err)
		}
		return errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return nil
}

// FindByID 根据ID查找用户
func (r *userRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrNotFound, "用户不存在")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &user, nil
}

// FindByUsername 根据用户名查找用户
func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrNotFound, "用户不存在")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &user, nil
}

// UpdateLastLogin 更新最近登录信息
func (r *userRepo) UpdateLastLogin(ctx context.Context, id uint, ip string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_login_ip": ip,
		}).Error
}

// WithTx 使用事务
func (r *userRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &userRepo{
		BaseRepo: NewBaseRepo(tx),
	}
}
