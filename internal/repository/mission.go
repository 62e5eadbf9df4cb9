package repository

import (
	"context"
	stderrors "errors"

	"github.com/wfunc/secret-mission/internal/errors"
	"github.com/wfunc/secret-mission/internal/models"
	"gorm.io/gorm"
)

// MissionRepository 任务仓储接口
type MissionRepository interface {
	BaseRepository
	Create(ctx context.Context, mission *models.Mission) error
	FindByID(ctx context.Context, id uint) (*models.Mission, error)
	FindByGameID(ctx context.Context, gameID uint) ([]*models.Mission, error)
	CountByGameID(ctx context.Context, gameID uint) (int64, error)
	CountByEnteredBy(ctx context.Context, playerID uint) (int64, error)
	Assign(ctx context.Context, missionID, playerID uint) error
	Reveal(ctx context.Context, missionID uint) error
	FindByAssignedTo(ctx context.Context, playerID uint) (*models.Mission, error)
}

// missionRepo 任务仓储实现
type missionRepo struct {
	*BaseRepo
}

// NewMissionRepository 创建任务仓储
func NewMissionRepository(db *gorm.DB) MissionRepository {
	return &missionRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建任务
func (r *missionRepo) Create(ctx context.Context, mission *models.Mission) error {
	if err := r.db.WithContext(ctx).Create(mission).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return nil
}

// FindByID 根据ID查找任务
func (r *missionRepo) FindByID(ctx context.Context, id uint) (*models.Mission, error) {
	var mission models.Mission
	err := r.db.WithContext(ctx).First(&mission, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrMissionNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &mission, nil
}

// FindByGameID 查找游戏的所有任务（按提交顺序）
func (r *missionRepo) FindByGameID(ctx context.Context, gameID uint) ([]*models.Mission, error) {
	var missions []*models.Mission
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("created_at asc, id asc").
		Find(&missions).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return missions, nil
}

// CountByGameID 统计游戏已提交任务数量
func (r *missionRepo) CountByGameID(ctx context.Context, gameID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Mission{}).
		Where("game_id = ?", gameID).
		Count(&count).Error
	return count, err
}

// CountByEnteredBy 统计玩家已提交任务数量
func (r *missionRepo) CountByEnteredBy(ctx context.Context, playerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Mission{}).
		Where("entered_by = ?", playerID).
		Count(&count).Error
	return count, err
}

// Assign 将任务分配给玩家
func (r *missionRepo) Assign(ctx context.Context, missionID, playerID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Mission{}).
		Where("id = ?", missionID).
		Update("assigned_to", playerID).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate)
	}
	return nil
}

// Reveal 公开任务内容（单向）
func (r *missionRepo) Reveal(ctx context.Context, missionID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Mission{}).
		Where("id = ?", missionID).
		Update("is_revealed", true).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate)
	}
	return nil
}

// FindByAssignedTo 查找分配给某玩家的任务（反向外键查询，而非对象指针）
func (r *missionRepo) FindByAssignedTo(ctx context.Context, playerID uint) (*models.Mission, error) {
	var mission models.Mission
	err := r.db.WithContext(ctx).
		Where("assigned_to = ?", playerID).
		First(&mission).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrMissionNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &mission, nil
}

// WithTx 使用事务
func (r *missionRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &missionRepo{
		BaseRepo: NewBaseRepo(tx),
	}
}
