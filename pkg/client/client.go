// Package client 是进度服务的 Go 客户端。
//
// 所有 UserProgress 响应在解码前都会做 schema 校验；网络失败、5xx 和 429
// 最多重试一次，CompleteDay 的重试依赖服务端幂等。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"
	"valentine_week_backend/internal/model"
	"valentine_week_backend/pkg/logger"

	"go.uber.org/zap"
)

const maxAttempts = 2

type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	retryWait time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken 设置 Bearer token，服务端开启鉴权时需要
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithRetryWait(d time.Duration) Option {
	return func(c *Client) { c.retryWait = d }
}

// New baseURL 形如 http://localhost:8001，不含 /api
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 10 * time.Second},
		retryWait: 300 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsUnlocked 与服务端相同的解锁规则
func IsUnlocked(p *UserProgress, dayNumber int) bool {
	return model.IsUnlocked(p, dayNumber)
}

func progressPath(userID string, parts ...string) string {
	path := "/api/progress/" + url.PathEscape(userID)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func (c *Client) GetProgress(ctx context.Context, userID string) (*UserProgress, error) {
	return c.progress(ctx, http.MethodGet, progressPath(userID), nil)
}

// InitProgress 已存在时返回现有进度
func (c *Client) InitProgress(ctx context.Context, userID string) (*UserProgress, error) {
	return c.progress(ctx, http.MethodPost, progressPath(userID), nil)
}

func (c *Client) CompleteDay(ctx context.Context, userID string, dayNumber int) (*UserProgress, error) {
	return c.progress(ctx, http.MethodPost, progressPath(userID, "complete", fmt.Sprint(dayNumber)), nil)
}

func (c *Client) SetReplayMode(ctx context.Context, userID string, enabled bool) (*UserProgress, error) {
	return c.progress(ctx, http.MethodPut, progressPath(userID, "replay"), map[string]bool{"enabled": enabled})
}

func (c *Client) ResetProgress(ctx context.Context, userID string) (*UserProgress, error) {
	return c.progress(ctx, http.MethodPost, progressPath(userID, "reset"), nil)
}

func (c *Client) History(ctx context.Context, userID string) ([]CompletionEvent, error) {
	raw, err := c.do(ctx, http.MethodGet, progressPath(userID, "history"), nil)
	if err != nil {
		return nil, err
	}
	var events []CompletionEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, &InvalidResponseError{Body: raw, Err: err}
	}
	return events, nil
}

func (c *Client) Days(ctx context.Context) ([]ValentineDay, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/days", nil)
	if err != nil {
		return nil, err
	}
	var days []ValentineDay
	if err := validateBody(catalogSchemaURL, raw, &days); err != nil {
		return nil, err
	}
	return days, nil
}

func (c *Client) progress(ctx context.Context, method, path string, body any) (*UserProgress, error) {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	var p UserProgress
	if err := validateBody(progressSchemaURL, raw, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, &InvalidResponseError{Body: raw, Err: err}
	}
	return &p, nil
}

// do 发送请求，遇到 TransientNetworkError 时最多重试一次
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := range maxAttempts {
		raw, err := c.once(ctx, method, path, payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		var transient *TransientNetworkError
		if !errors.As(err, &transient) || attempt == maxAttempts-1 {
			break
		}

		wait := c.backoff()
		logger.Log.Debug("retrying request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

// backoff 基础等待加上最多 50% 的随机抖动
func (c *Client) backoff() time.Duration {
	if c.retryWait <= 0 {
		return 0
	}
	return c.retryWait + time.Duration(rand.Int64N(int64(c.retryWait)/2+1))
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientNetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientNetworkError{StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransientNetworkError{StatusCode: resp.StatusCode, Err: newAPIError(resp.StatusCode, raw)}
	case resp.StatusCode >= 400:
		return nil, newAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}
