package client

import "valentine_week_backend/internal/model"

// 接口返回的文档类型，模块外的调用方通过这些别名引用
type (
	UserProgress    = model.UserProgress
	DayProgress     = model.DayProgress
	CompletionEvent = model.CompletionEvent
	ValentineDay    = model.ValentineDay
)
