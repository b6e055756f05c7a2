package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"valentine_week_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, time.February, 7, 9, 0, 0, 0, time.UTC)

func progressJSON(t *testing.T, mutate func(*model.UserProgress)) []byte {
	t.Helper()
	p := model.NewUserProgress("alice", model.ValentineWeek(), t0)
	if mutate != nil {
		mutate(p)
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return raw
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithRetryWait(time.Millisecond))
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func TestCompleteDay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/progress/alice/complete/1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, progressJSON(t, func(p *model.UserProgress) {
			p.Complete(1, t0.Add(time.Minute))
		}))
	})
	c.token = "tok"

	p, err := c.CompleteDay(context.Background(), "alice", 1)
	require.NoError(t, err)
	assert.True(t, p.Days[0].IsCompleted)
	require.NotNil(t, p.Days[0].CompletionTime)
	assert.True(t, IsUnlocked(p, 2))
	assert.False(t, IsUnlocked(p, 3))
}

func TestSetReplayModeSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]bool{"enabled": true}, body)
		writeJSON(w, http.StatusOK, progressJSON(t, func(p *model.UserProgress) {
			p.SetReplay(true, t0)
		}))
	})

	p, err := c.SetReplayMode(context.Background(), "alice", true)
	require.NoError(t, err)
	assert.True(t, p.ReplayMode)
	assert.True(t, IsUnlocked(p, 8))
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{"code":404,"message":"Progress not found","error":"not_found"}`, ErrNotFound},
		{"locked", http.StatusConflict, `{"code":409,"message":"day is locked: day 3","error":"locked_day"}`, ErrLockedDay},
		{"invalid day", http.StatusBadRequest, `{"code":400,"message":"invalid day number","error":"invalid_day"}`, ErrInvalidDay},
		{"invalid user", http.StatusBadRequest, `{"code":400,"message":"bad","error":"invalid_user_id"}`, ErrInvalidUser},
		{"bare 404", http.StatusNotFound, `404 page not found`, ErrNotFound},
		{"forbidden", http.StatusForbidden, `{"code":403,"message":"Forbidden","error":"forbidden"}`, ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				writeJSON(w, tc.status, []byte(tc.body))
			})
			_, err := c.CompleteDay(context.Background(), "alice", 3)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.EqualValues(t, 1, calls.Load(), "client errors are not retried")
		})
	}
}

func TestRetriesOnceOnTransientFailure(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, []byte(`{"code":503,"message":"down","error":"internal"}`))
			return
		}
		writeJSON(w, http.StatusOK, progressJSON(t, nil))
	})

	p, err := c.GetProgress(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGivesUpAfterSecondTransientFailure(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, []byte(`{"error":"too many requests"}`))
	})

	_, err := c.GetProgress(context.Background(), "alice")
	var transient *TransientNetworkError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, http.StatusTooManyRequests, transient.StatusCode)
	assert.EqualValues(t, 2, calls.Load())
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, WithRetryWait(time.Millisecond))
	_, err := c.GetProgress(context.Background(), "alice")
	var transient *TransientNetworkError
	require.ErrorAs(t, err, &transient)
	assert.Zero(t, transient.StatusCode)
}

func TestRejectsMalformedProgress(t *testing.T) {
	cases := map[string]string{
		"not json":          `<html>`,
		"missing days":      `{"user_id":"alice","replay_mode":false,"all_completed":false}`,
		"wrong type":        `{"user_id":"alice","days":[{"day_number":"one","is_unlocked":true,"is_completed":false,"completion_time":null}],"replay_mode":false,"all_completed":false}`,
		"zero day":          `{"user_id":"alice","days":[{"day_number":0,"is_unlocked":true,"is_completed":false,"completion_time":null}],"replay_mode":false,"all_completed":false}`,
		"bad timestamp":     `{"user_id":"alice","days":[{"day_number":1,"is_unlocked":true,"is_completed":true,"completion_time":"yesterday"}],"replay_mode":false,"all_completed":true}`,
		"completed no time": `{"user_id":"alice","days":[{"day_number":1,"is_unlocked":true,"is_completed":true,"completion_time":null}],"replay_mode":false,"all_completed":true}`,
		"gap in days":       `{"user_id":"alice","days":[{"day_number":2,"is_unlocked":true,"is_completed":false,"completion_time":null}],"replay_mode":false,"all_completed":false}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, []byte(body))
			})
			_, err := c.GetProgress(context.Background(), "alice")
			var invalid *InvalidResponseError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestDays(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/days", r.URL.Path)
		raw, _ := json.Marshal(model.ValentineWeek())
		writeJSON(w, http.StatusOK, raw)
	})

	days, err := c.Days(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 8)
	assert.Equal(t, "Valentine's Day", days[7].Name)
}

func TestContextCancelStopsRetry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, nil)
	})
	c.retryWait = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.GetProgress(ctx, "alice")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
