package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"valentine_week_backend/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFrame struct {
	Type string             `json:"type"`
	Data model.UserProgress `json:"data"`
}

func startHubServer(t *testing.T, hub *SyncHub, userID string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r, model.NewUserProgress(userID, model.ValentineWeek(), t0))
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) syncFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var f syncFrame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func TestSyncHubLocalDelivery(t *testing.T) {
	hub := NewSyncHub(nil)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(hub.Stop)

	url := startHubServer(t, hub, "u1")
	phone := dialHub(t, url)
	laptop := dialHub(t, url)

	// 连接后先收到当前快照
	for _, conn := range []*websocket.Conn{phone, laptop} {
		f := readFrame(t, conn)
		assert.Equal(t, MessageProgressUpdated, f.Type)
		assert.Equal(t, "u1", f.Data.UserID)
		assert.False(t, f.Data.Days[0].IsCompleted)
	}
	require.Eventually(t, func() bool { return hub.ConnectedCount("u1") == 2 }, 2*time.Second, 10*time.Millisecond)

	p := model.NewUserProgress("u1", model.ValentineWeek(), t0)
	p.Complete(1, t0.Add(time.Minute))
	hub.PublishProgress(context.Background(), p)

	for _, conn := range []*websocket.Conn{phone, laptop} {
		f := readFrame(t, conn)
		assert.True(t, f.Data.Days[0].IsCompleted)
		assert.True(t, f.Data.Days[1].IsUnlocked)
	}

	// 其他用户的更新不会推给 u1
	hub.PublishProgress(context.Background(), model.NewUserProgress("u2", model.ValentineWeek(), t0))
	require.NoError(t, phone.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := phone.ReadMessage()
	assert.Error(t, err)
}

func TestSyncHubRemovesClosedClients(t *testing.T) {
	hub := NewSyncHub(nil)
	t.Cleanup(hub.Stop)

	url := startHubServer(t, hub, "u1")
	conn := dialHub(t, url)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return hub.ConnectedCount("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectedCount("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSyncHubRedisFanOut(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rdb.Close() })
		return rdb
	}

	// 两个实例共用一个 Redis
	hubA := NewSyncHub(newClient())
	hubB := NewSyncHub(newClient())
	require.NoError(t, hubA.Start(context.Background()))
	require.NoError(t, hubB.Start(context.Background()))
	t.Cleanup(hubA.Stop)
	t.Cleanup(hubB.Stop)

	conn := dialHub(t, startHubServer(t, hubB, "u1"))
	readFrame(t, conn)
	require.Eventually(t, func() bool { return hubB.ConnectedCount("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	p := model.NewUserProgress("u1", model.ValentineWeek(), t0)
	p.SetReplay(true, t0.Add(time.Minute))
	hubA.PublishProgress(context.Background(), p)

	f := readFrame(t, conn)
	assert.True(t, f.Data.ReplayMode)
	assert.True(t, f.Data.Days[7].IsUnlocked)
}
