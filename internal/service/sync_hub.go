package service

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"sync"
	"time"
	"valentine_week_backend/internal/model"
	"valentine_week_backend/pkg/logger"
	"valentine_week_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 16

	progressChannel = "progress_channel"

	MessageProgressUpdated = "PROGRESS_UPDATED"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SyncClient 一个设备上的 websocket 连接
type SyncClient struct {
	Hub     *SyncHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  string
	Limiter *rate.Limiter
}

// readPump 客户端只会发 ping/close，读循环用于感知断开
func (c *SyncClient) readPump() {
	defer func() {
		c.Hub.remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("sync websocket unexpected close", zap.Error(err), zap.String("user_id", c.UserID))
			}
			return
		}
		// 客户端消息无业务含义，刷屏的连接直接断开
		if !c.Limiter.Allow() {
			logger.Log.Warn("sync client flooding, closing", zap.String("user_id", c.UserID))
			return
		}
	}
}

func (c *SyncClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type syncShard struct {
	clients map[string]map[*SyncClient]struct{}
	mu      sync.RWMutex
}

// SyncHub 把进度快照推送到同一用户的所有设备；配置了 Redis 时跨实例广播
type SyncHub struct {
	shards [shardCount]*syncShard
	Redis  *redis.Client
	pubsub *redis.PubSub
	done   chan struct{}
}

type PubSubMessage struct {
	UserID  string          `json:"userId"`
	Payload json.RawMessage `json:"payload"`
}

func NewSyncHub(rdb *redis.Client) *SyncHub {
	h := &SyncHub{
		Redis: rdb,
		done:  make(chan struct{}),
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &syncShard{clients: make(map[string]map[*SyncClient]struct{})}
	}
	return h
}

func (h *SyncHub) getShard(userID string) *syncShard {
	f := fnv.New32a()
	f.Write([]byte(userID))
	return h.shards[f.Sum32()%shardCount]
}

// Start 订阅 Redis 频道，订阅确认后才返回；未配置 Redis 时直接返回
func (h *SyncHub) Start(ctx context.Context) error {
	if h.Redis == nil {
		return nil
	}
	h.pubsub = h.Redis.Subscribe(ctx, progressChannel)
	if _, err := h.pubsub.Receive(ctx); err != nil {
		h.pubsub.Close()
		return err
	}

	go func() {
		ch := h.pubsub.Channel()
		for {
			select {
			case <-h.done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var psMsg PubSubMessage
				if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.pushLocal(psMsg.UserID, psMsg.Payload)
			}
		}
	}()
	return nil
}

// PublishProgress 实现 ProgressNotifier
func (h *SyncHub) PublishProgress(ctx context.Context, p *model.UserProgress) {
	msgBytes, err := json.Marshal(WSMessage{Type: MessageProgressUpdated, Data: p})
	if err != nil {
		logger.Log.Error("sync message marshal error", zap.Error(err))
		return
	}

	if h.Redis == nil {
		h.pushLocal(p.UserID, msgBytes)
		return
	}

	payload, _ := json.Marshal(PubSubMessage{UserID: p.UserID, Payload: msgBytes})
	if err := h.Redis.Publish(ctx, progressChannel, payload).Err(); err != nil {
		// Redis 不可用时至少通知本实例的设备
		logger.Log.Warn("sync publish failed, delivering locally", zap.Error(err))
		h.pushLocal(p.UserID, msgBytes)
	}
}

func (h *SyncHub) pushLocal(userID string, payload []byte) {
	s := h.getShard(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients[userID] {
		select {
		case client.Send <- payload:
		default:
			// 慢客户端丢弃本次推送，下次快照会覆盖
		}
	}
}

func (h *SyncHub) add(c *SyncClient) {
	s := h.getShard(c.UserID)
	s.mu.Lock()
	if s.clients[c.UserID] == nil {
		s.clients[c.UserID] = make(map[*SyncClient]struct{})
	}
	s.clients[c.UserID][c] = struct{}{}
	s.mu.Unlock()
	monitoring.SyncClients.Inc()
}

func (h *SyncHub) remove(c *SyncClient) {
	s := h.getShard(c.UserID)
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(s.clients, c.UserID)
	}
	close(c.Send)
	monitoring.SyncClients.Dec()
}

// ConnectedCount 本实例上该用户的连接数
func (h *SyncHub) ConnectedCount(userID string) int {
	s := h.getShard(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[userID])
}

// Stop 关闭订阅和所有连接
func (h *SyncHub) Stop() {
	select {
	case <-h.done:
		return
	default:
		close(h.done)
	}
	if h.pubsub != nil {
		h.pubsub.Close()
	}

	closed := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for userID, set := range s.clients {
			for client := range set {
				close(client.Send)
				closed++
			}
			delete(s.clients, userID)
		}
		s.mu.Unlock()
	}
	monitoring.SyncClients.Sub(float64(closed))
	logger.Log.Info("SyncHub stopped", zap.Int("closedConnections", closed))
}

// ServeWs 升级连接并先推送一次当前快照
func ServeWs(hub *SyncHub, w http.ResponseWriter, r *http.Request, initial *model.UserProgress) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("user_id", initial.UserID))
		return
	}
	client := &SyncClient{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 16),
		UserID:  initial.UserID,
		Limiter: rate.NewLimiter(rate.Limit(5), 10),
	}

	if msg, err := json.Marshal(WSMessage{Type: MessageProgressUpdated, Data: initial}); err == nil {
		client.Send <- msg
	}
	hub.add(client)

	go client.writePump()
	go client.readPump()
}
