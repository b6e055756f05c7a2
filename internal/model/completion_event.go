package model

import (
	"time"

	"gorm.io/datatypes"
)

// CompletionEvent 完成记录（审计用），幂等的重复调用不记录
// swagger:model CompletionEvent
type CompletionEvent struct {
	ID              uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          string            `gorm:"size:64;index:idx_event_user_time,priority:1;not null" json:"user_id"`
	DayNumber       int               `gorm:"not null" json:"day_number"`
	Replay          bool              `gorm:"not null;default:false" json:"replay"`
	FirstCompletion bool              `gorm:"not null;default:false" json:"first_completion"`
	Metadata        datatypes.JSONMap `json:"metadata"`
	OccurredAt      time.Time         `gorm:"index:idx_event_user_time,priority:2;not null" json:"occurred_at"`
}

func (CompletionEvent) TableName() string {
	return "completion_events"
}
