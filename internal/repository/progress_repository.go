package repository

import (
	"context"
	"errors"
	"fmt"
	"valentine_week_backend/internal/model"
	"valentine_week_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// MutateFunc 在事务内修改进度，返回 changed=false 时不写库
type MutateFunc func(tx *gorm.DB, p *model.UserProgress) (changed bool, err error)

// FindByUserID 读取用户进度，按天排序
func (r *ProgressRepository) FindByUserID(ctx context.Context, userID string) (*model.UserProgress, error) {
	return r.load(r.DB.WithContext(ctx), userID, false)
}

// Create 创建初始进度；已存在时返回已有记录和 created=false
func (r *ProgressRepository) Create(ctx context.Context, p *model.UserProgress) (*model.UserProgress, bool, error) {
	var (
		result  *model.UserProgress
		created bool
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.load(tx, p.UserID, true)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, util.ErrProgressNotFound) {
			return err
		}

		if err := tx.Create(p).Error; err != nil {
			return err
		}
		result, created = p, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// Update 加行锁读取 -> fn 修改 -> 保存，整个过程在一个事务里
func (r *ProgressRepository) Update(ctx context.Context, userID string, fn MutateFunc) (*model.UserProgress, error) {
	var result *model.UserProgress
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.load(tx, userID, true)
		if err != nil {
			return err
		}

		changed, err := fn(tx, p)
		if err != nil {
			return err
		}
		if changed {
			if err := r.save(tx, p); err != nil {
				return err
			}
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Replace 用 fresh 覆盖已有进度（重置），保留主键
func (r *ProgressRepository) Replace(ctx context.Context, fresh *model.UserProgress, fn func(tx *gorm.DB) error) (*model.UserProgress, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.load(tx, fresh.UserID, true)
		if err != nil && !errors.Is(err, util.ErrProgressNotFound) {
			return err
		}

		if existing != nil {
			if err := tx.Where("progress_id = ?", existing.ID).Delete(&model.DayProgress{}).Error; err != nil {
				return err
			}
			fresh.ID = existing.ID
			if err := tx.Omit(clause.Associations).Save(fresh).Error; err != nil {
				return err
			}
			for i := range fresh.Days {
				fresh.Days[i].ID = 0
				fresh.Days[i].ProgressID = existing.ID
			}
			if err := tx.Create(&fresh.Days).Error; err != nil {
				return err
			}
		} else if err := tx.Create(fresh).Error; err != nil {
			return err
		}

		if fn != nil {
			return fn(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

func (r *ProgressRepository) load(tx *gorm.DB, userID string, forUpdate bool) (*model.UserProgress, error) {
	var p model.UserProgress
	q := tx
	// SQLite 没有行锁，写事务本身是串行的
	if forUpdate && tx.Dialector.Name() != util.DriverSQLite {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProgressNotFound
		}
		return nil, err
	}

	if err := tx.Where("progress_id = ?", p.ID).Order("day_number ASC").Find(&p.Days).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) save(tx *gorm.DB, p *model.UserProgress) error {
	if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	for i := range p.Days {
		if err := tx.Save(&p.Days[i]).Error; err != nil {
			return fmt.Errorf("save day %d: %w", p.Days[i].DayNumber, err)
		}
	}
	return nil
}
