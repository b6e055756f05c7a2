package model

import (
	"fmt"
	"time"
)

// UserProgress 用户在情人节周中的整体进度
// swagger:model UserProgress
type UserProgress struct {
	ID           uint          `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID       string        `gorm:"size:64;uniqueIndex;not null" json:"user_id"`
	Days         []DayProgress `gorm:"foreignKey:ProgressID" json:"days"`
	ReplayMode   bool          `gorm:"not null;default:false" json:"replay_mode"`
	AllCompleted bool          `gorm:"not null;default:false" json:"all_completed"`
	CreatedAt    time.Time     `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// DayProgress 某一天的解锁/完成状态
// swagger:model DayProgress
type DayProgress struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	ProgressID     uint       `gorm:"not null;uniqueIndex:idx_progress_day" json:"-"`
	DayNumber      int        `gorm:"not null;uniqueIndex:idx_progress_day" json:"day_number"`
	DayName        string     `gorm:"size:64" json:"day_name"`
	IsUnlocked     bool       `gorm:"not null" json:"is_unlocked"`
	IsCompleted    bool       `gorm:"not null" json:"is_completed"`
	CompletionTime *time.Time `json:"completion_time"`
}

func (DayProgress) TableName() string {
	return "day_progress"
}

// CompletionOutcome 描述一次完成请求对状态的影响
type CompletionOutcome int

const (
	OutcomeInvalidDay CompletionOutcome = iota
	OutcomeLocked
	// 首次完成，状态已改变
	OutcomeCompleted
	// 回放模式下重复完成，状态不变
	OutcomeReplayed
	// 非回放模式下重复完成，幂等
	OutcomeUnchanged
)

func (o CompletionOutcome) String() string {
	switch o {
	case OutcomeInvalidDay:
		return "invalid_day"
	case OutcomeLocked:
		return "locked"
	case OutcomeCompleted:
		return "completed"
	case OutcomeReplayed:
		return "replayed"
	case OutcomeUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// NewUserProgress 按目录创建初始进度：仅第一天解锁
func NewUserProgress(userID string, catalog []ValentineDay, now time.Time) *UserProgress {
	p := &UserProgress{
		UserID:    userID,
		Days:      make([]DayProgress, 0, len(catalog)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, d := range catalog {
		p.Days = append(p.Days, DayProgress{
			DayNumber: i + 1,
			DayName:   d.Name,
		})
	}
	p.Normalize()
	return p
}

// Day 返回指定天的指针，不存在时返回 nil
func (p *UserProgress) Day(dayNumber int) *DayProgress {
	for i := range p.Days {
		if p.Days[i].DayNumber == dayNumber {
			return &p.Days[i]
		}
	}
	return nil
}

// IsUnlocked day N 可玩 ⟺ 回放模式 或 N == 1 或 第 N-1 天已完成
func IsUnlocked(p *UserProgress, dayNumber int) bool {
	if p == nil || p.Day(dayNumber) == nil {
		return false
	}
	if p.ReplayMode || dayNumber == 1 {
		return true
	}
	prev := p.Day(dayNumber - 1)
	return prev != nil && prev.IsCompleted
}

// Normalize 重新推导 is_unlocked 和 all_completed
func (p *UserProgress) Normalize() {
	all := len(p.Days) > 0
	for i := range p.Days {
		p.Days[i].IsUnlocked = IsUnlocked(p, p.Days[i].DayNumber)
		if !p.Days[i].IsCompleted {
			all = false
		}
	}
	p.AllCompleted = all
}

// Complete 标记某天完成。completion_time 只在首次完成时写入。
func (p *UserProgress) Complete(dayNumber int, now time.Time) CompletionOutcome {
	day := p.Day(dayNumber)
	if day == nil {
		return OutcomeInvalidDay
	}
	if !IsUnlocked(p, dayNumber) {
		return OutcomeLocked
	}
	if day.IsCompleted {
		if p.ReplayMode {
			return OutcomeReplayed
		}
		return OutcomeUnchanged
	}

	day.IsCompleted = true
	if day.CompletionTime == nil {
		t := now
		day.CompletionTime = &t
	}
	p.Normalize()
	p.UpdatedAt = now
	return OutcomeCompleted
}

// SetReplay 切换回放模式，返回状态是否改变
func (p *UserProgress) SetReplay(enabled bool, now time.Time) bool {
	if p.ReplayMode == enabled {
		return false
	}
	p.ReplayMode = enabled
	p.Normalize()
	p.UpdatedAt = now
	return true
}

// Validate 检查天数是否从 1 开始连续且无重复
func (p *UserProgress) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("progress has empty user_id")
	}
	if len(p.Days) == 0 {
		return fmt.Errorf("progress for %s has no days", p.UserID)
	}
	for i, d := range p.Days {
		if d.DayNumber != i+1 {
			return fmt.Errorf("day at position %d has day_number %d, want %d", i, d.DayNumber, i+1)
		}
		if d.CompletionTime == nil && d.IsCompleted {
			return fmt.Errorf("day %d is completed without completion_time", d.DayNumber)
		}
	}
	return nil
}
