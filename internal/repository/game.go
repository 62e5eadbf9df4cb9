package repository

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/models"
	"gorm.io/gorm"
)

// GameRepository 游戏仓储接口
type GameRepository interface {
	BaseRepository
	Create(ctx context.Context, game *models.Game) error
	Update(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Game, error)
	FindByRoomCode(ctx context.Context, roomCode string) (*models.Game, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	StartTimer(ctx context.Context, id uint) error
}

// gameRepo 游戏仓储实现
type gameRepo struct {
	*BaseRepo
}

// NewGameRepository 创建游戏仓储
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建游戏，房间码重复时返回冲突错误
func (r *gameRepo) Create(ctx context.Context, game *models.Game) error {
	err := r.db.WithContext(ctx).Create(game).Error
	if err != nil {
		if isDuplicateKey(err) {
			return errors.New(errors.ErrRoomCodeConflict, game.RoomCode).WithCause(err)
		}
		return errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return nil
}

// Update 更新游戏
func (r *gameRepo) Update(ctx context.Context, game *models.Game) error {
	return r.db.WithContext(ctx).Save(game).Error
}

// Delete 删除游戏（玩家与任务级联删除）
func (r *gameRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Game{}, id).Error
}

// FindByID 根据ID查找游戏
func (r *gameRepo) FindByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).First(&game, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrGameNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &game, nil
}

// FindByRoomCode 根据房间码查找游戏
func (r *gameRepo) FindByRoomCode(ctx context.Context, roomCode string) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Where("room_code = ?", roomCode).First(&game).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrGameNotFound, roomCode)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &game, nil
}

// UpdateStatus 更新游戏状态
func (r *gameRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// StartTimer 开始游戏计时并进入playing状态（仅首次分发生效）
func (r *gameRepo) StartTimer(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND timer_started_at IS NULL", id).
		Updates(map[string]interface{}{
			"status":           models.StatusPlaying,
			"timer_started_at": now,
		}).Error
}

// WithTx 使用事务
func (r *gameRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &gameRepo{
		BaseRepo: NewBaseRepo(tx),
	}
}

// isDuplicateKey 判断是否为唯一约束冲突
func isDuplicateKey(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite/mysql驱动未翻译错误时的兜底判断
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
