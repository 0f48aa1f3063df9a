package service

import (
	"context"
	"edu_collaborate_backend/pkg/logger"
	"edu_collaborate_backend/pkg/monitoring"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	notifyWriteWait  = 10 * time.Second
	notifyPongWait   = 60 * time.Second
	notifyPingPeriod = (notifyPongWait * 9) / 10
	notifyShardCount = 16

	// 多实例部署时通过 Redis 广播，由各实例推给本地连接
	notifyChannel = "educollab:notify"
)

var notifyUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type NotifyEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	EventReviewPublished = "REVIEW_PUBLISHED"
	EventAssignmentOpen  = "ASSIGNMENT_PUBLISHED"
)

type NotifyClient struct {
	Hub     *NotifyHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  uint
	Limiter *rate.Limiter
}

// readPump 通知通道是单向下行的，上行只处理 pong 与关闭
func (c *NotifyClient) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(notifyPongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(notifyPongWait)); return nil })
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("notify websocket unexpected close", zap.Error(err), zap.Uint("userId", c.UserID))
			}
			break
		}
		if !c.Limiter.Allow() {
			continue
		}
	}
}

func (c *NotifyClient) writePump() {
	ticker := time.NewTicker(notifyPingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(notifyWriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(notifyWriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type notifyShard struct {
	clients map[uint]*NotifyClient
	mu      sync.RWMutex
}

// NotifyHub 评审发布等事件的实时推送中心
type NotifyHub struct {
	shards     [notifyShardCount]*notifyShard
	register   chan *NotifyClient
	unregister chan *NotifyClient
	Redis      *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewNotifyHub(rdb *redis.Client) *NotifyHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &NotifyHub{
		register:   make(chan *NotifyClient),
		unregister: make(chan *NotifyClient),
		Redis:      rdb,
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < notifyShardCount; i++ {
		h.shards[i] = &notifyShard{clients: make(map[uint]*NotifyClient)}
	}
	return h
}

func (h *NotifyHub) getShard(userID uint) *notifyShard {
	return h.shards[userID%notifyShardCount]
}

type notifyEnvelope struct {
	TargetUsers []uint          `json:"targetUsers"`
	Payload     json.RawMessage `json:"payload"`
}

func (h *NotifyHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, notifyChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var env notifyEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logger.Log.Error("notify pubsub unmarshal error", zap.Error(err))
				continue
			}
			h.pushLocal(env.TargetUsers, env.Payload)
		}
	}()

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			// 同一用户重复连接时顶掉旧连接
			if old, ok := s.clients[client.UserID]; ok {
				close(old.Send)
			} else {
				monitoring.NotifyOnlineUsers.Inc()
			}
			s.clients[client.UserID] = client
			s.mu.Unlock()

		case client := <-h.unregister:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			if cur, ok := s.clients[client.UserID]; ok && cur == client {
				delete(s.clients, client.UserID)
				close(client.Send)
				monitoring.NotifyOnlineUsers.Dec()
			}
			s.mu.Unlock()

		case <-h.ctx.Done():
			pubsub.Close()
			return
		}
	}
}

// PushToUsers 经由 Redis 广播，保证多实例下都能送达
func (h *NotifyHub) PushToUsers(userIDs []uint, event NotifyEvent) {
	if len(userIDs) == 0 {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	env, _ := json.Marshal(notifyEnvelope{TargetUsers: userIDs, Payload: payload})
	if err := h.Redis.Publish(h.ctx, notifyChannel, env).Err(); err != nil {
		logger.Log.Error("notify publish failed", zap.Error(err))
		// 降级为仅推本实例连接
		h.pushLocal(userIDs, payload)
	}
	monitoring.NotifyMessageCounter.WithLabelValues(event.Type).Inc()
}

func (h *NotifyHub) pushLocal(userIDs []uint, payload []byte) {
	for _, id := range userIDs {
		s := h.getShard(id)
		s.mu.RLock()
		if client, ok := s.clients[id]; ok {
			select {
			case client.Send <- payload:
			default:
			}
		}
		s.mu.RUnlock()
	}
}

func (h *NotifyHub) Stop() {
	h.cancel()
	closed := 0
	for i := 0; i < notifyShardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for userID, client := range s.clients {
			close(client.Send)
			delete(s.clients, userID)
			closed++
		}
		s.mu.Unlock()
	}
	monitoring.NotifyOnlineUsers.Set(0)
	logger.Log.Info("notify hub stopped", zap.Int("closedConnections", closed))
}

func ServeNotifyWs(hub *NotifyHub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := notifyUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("notify websocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &NotifyClient{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		UserID:  userID,
		Limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}
