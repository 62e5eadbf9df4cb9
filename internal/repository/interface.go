package repository

import (
	"context"

	"gorm.io/gorm"
)

// BaseRepository 基础仓储接口
type BaseRepository interface {
	// GetDB 获取数据库实例
	GetDB() *gorm.DB
	// WithTx 使用事务
	WithTx(tx *gorm.DB) BaseRepository
	// Transaction 在事务中执行
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// BaseRepo 基础仓储实现
type BaseRepo struct {
	db *gorm.DB
}

// NewBaseRepo 创建基础仓储
func NewBaseRepo(db *gorm.DB) *BaseRepo {
	return &BaseRepo{db: db}
}

// GetDB 获取数据库实例
func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}

// WithTx 使用事务
func (r *BaseRepo) WithTx(tx *gorm.DB) *BaseRepo {
	return &BaseRepo{db: tx}
}

// Transaction 执行事务
func (r *BaseRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
