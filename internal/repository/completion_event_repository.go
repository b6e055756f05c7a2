package repository

import (
	"context"
	"valentine_week_backend/internal/model"

	"gorm.io/gorm"
)

type CompletionEventRepository struct {
	DB *gorm.DB
}

func NewCompletionEventRepository(db *gorm.DB) *CompletionEventRepository {
	return &CompletionEventRepository{DB: db}
}

// WithTx 返回绑定到事务的仓库，与进度写入一起提交
func (r *CompletionEventRepository) WithTx(tx *gorm.DB) *CompletionEventRepository {
	return &CompletionEventRepository{DB: tx}
}

func (r *CompletionEventRepository) Create(ctx context.Context, event *model.CompletionEvent) error {
	return r.DB.WithContext(ctx).Create(event).Error
}

// ListByUser 按发生时间正序返回
func (r *CompletionEventRepository) ListByUser(ctx context.Context, userID string) ([]model.CompletionEvent, error) {
	var events []model.CompletionEvent
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (r *CompletionEventRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CompletionEvent{}).Error
}
