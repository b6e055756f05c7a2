package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound 用户还没有进度记录，调用方应先 InitProgress
	ErrNotFound = errors.New("progress not found")
	// ErrLockedDay 该天未解锁，不应重试
	ErrLockedDay    = errors.New("day is locked")
	ErrInvalidDay   = errors.New("invalid day number")
	ErrInvalidUser  = errors.New("invalid user id")
	ErrUnauthorized = errors.New("unauthorized")
)

// TransientNetworkError 网络失败、5xx 或 429，可安全重试
type TransientNetworkError struct {
	StatusCode int
	Err        error
}

func (e *TransientNetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient server error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// APIError 服务端返回的 4xx 错误信封
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Kind       string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Unwrap 按 error 字段映射到哨兵错误，字段缺失时按状态码
func (e *APIError) Unwrap() error {
	switch e.Kind {
	case "not_found":
		return ErrNotFound
	case "locked_day":
		return ErrLockedDay
	case "invalid_day":
		return ErrInvalidDay
	case "invalid_user_id":
		return ErrInvalidUser
	case "unauthorized", "forbidden":
		return ErrUnauthorized
	case "":
		switch e.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusConflict:
			return ErrLockedDay
		case http.StatusBadRequest:
			return ErrInvalidDay
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnauthorized
		}
	}
	return nil
}

// InvalidResponseError 响应体不符合约定的结构
type InvalidResponseError struct {
	Body json.RawMessage
	Err  error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response: %v", e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = http.StatusText(status)
	}
	apiErr.StatusCode = status
	return apiErr
}
