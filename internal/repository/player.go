package repository

import (
	"context"
	stderrors "errors"

	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/models"
	"gorm.io/gorm"
)

// PlayerRepository 玩家仓储接口
type PlayerRepository interface {
	BaseRepository
	Create(ctx context.Context, player *models.Player) error
	FindByID(ctx context.Context, id uint) (*models.Player, error)
	FindByGameID(ctx context.Context, gameID uint) ([]*models.Player, error)
	CountByGameID(ctx context.Context, gameID uint) (int64, error)
	UpdateSocketID(ctx context.Context, id uint, socketID string) error
	UpdateLives(ctx context.Context, id uint, lives int) error
	UpdatePoints(ctx context.Context, id uint, points int) error
	Eliminate(ctx context.Context, id uint) error
	MarkMissionCompleted(ctx context.Context, id uint) error
}

// playerRepo 玩家仓储实现
type playerRepo struct {
	*BaseRepo
}

// NewPlayerRepository 创建玩家仓储
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建玩家
func (r *playerRepo) Create(ctx context.Context, player *models.Player) error {
	if err := r.db.WithContext(ctx).Create(player).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return nil
}

// FindByID 根据ID查找玩家
func (r *playerRepo) FindByID(ctx context.Context, id uint) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).First(&player, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrPlayerNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &player, nil
}

// FindByGameID 查找游戏的所有玩家（按加入顺序）
func (r *playerRepo) FindByGameID(ctx context.Context, gameID uint) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("created_at asc, id asc").
		Find(&players).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return players, nil
}

// CountByGameID 统计游戏玩家数量
func (r *playerRepo) CountByGameID(ctx context.Context, gameID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("game_id = ?", gameID).
		Count(&count).Error
	return count, err
}

// UpdateSocketID 更新玩家的连接ID
func (r *playerRepo) UpdateSocketID(ctx context.Context, id uint, socketID string) error {
	return r.updateColumn(ctx, id, "socket_id", socketID)
}

// UpdateLives 更新玩家生命数
func (r *playerRepo) UpdateLives(ctx context.Context, id uint, lives int) error {
	return r.updateColumn(ctx, id, "lives", lives)
}

// UpdatePoints 更新玩家积分
func (r *playerRepo) UpdatePoints(ctx context.Context, id uint, points int) error {
	return r.updateColumn(ctx, id, "points", points)
}

// Eliminate 淘汰玩家（单向，不可恢复）
func (r *playerRepo) Eliminate(ctx context.Context, id uint) error {
	return r.updateColumn(ctx, id, "is_eliminated", true)
}

// MarkMissionCompleted 标记任务完成（单向）
func (r *playerRepo) MarkMissionCompleted(ctx context.Context, id uint) error {
	return r.updateColumn(ctx, id, "mission_completed", true)
}

// updateColumn 单列原子更新
func (r *playerRepo) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("id = ?", id).
		Update(column, value).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate)
	}
	return nil
}

// WithTx 使用事务
func (r *playerRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &playerRepo{
		BaseRepo: NewBaseRepo(tx),
	}
}
