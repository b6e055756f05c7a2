package util

import "time"

const (
	DateFormat = "2006-01-02"
	TimeFormat = time.RFC3339
)

// gin 上下文键
const (
	RequestIDKey  = "request_id"
	ClaimsKey     = "user"
	RequestHeader = "X-Request-ID"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)
