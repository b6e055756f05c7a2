package util

import "errors"

var (
	ErrProgressNotFound = errors.New("progress not found")
	ErrDayLocked        = errors.New("day is locked")
	ErrInvalidDay       = errors.New("invalid day number")
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrPermissionDenied = errors.New("permission denied")
)

// 错误类型，出现在响应体的 error 字段
const (
	KindNotFound     = "not_found"
	KindLockedDay    = "locked_day"
	KindInvalidDay   = "invalid_day"
	KindInvalidUser  = "invalid_user_id"
	KindBadRequest   = "bad_request"
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
	KindRateLimited  = "rate_limited"
	KindInternal     = "internal"
)
