package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"dex-market-core/internal/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMessageSize      = 64 * 1024
	defaultSendBuf      = 64
	defaultPublishBuf   = 1024
	maxConsecutiveDrops = 50
)

// TopicErrors 错误弹窗推送的主题
const TopicErrors = "errors"

// OverviewTopic 某个交易对总览推送的主题
func OverviewTopic(pair model.Pair) string {
	return "overview:" + pair.String()
}

// Envelope 推送给界面的消息
type Envelope struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
	Seq   uint64 `json:"seq"`
	Data  any    `json:"data"`
}

type publishMsg struct {
	topic string
	data  []byte
}

type subscription struct {
	client *Client
	topic  string
}

// Hub 管理 WebSocket 客户端与主题订阅，所有状态只在 Run 循环中修改
type Hub struct {
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan publishMsg
	done        chan struct{}

	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}

	seq          atomic.Uint64
	publishDrops atomic.Uint64
	clientCount  atomic.Int64
	subCount     atomic.Int64

	logger *zap.Logger
}

// Client 一个 WebSocket 连接
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	subscribed map[string]struct{}
	drops      int
}

// NewHub 创建推送中心
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		publish:     make(chan publishMsg, defaultPublishBuf),
		done:        make(chan struct{}),
		clients:     make(map[*Client]struct{}),
		topics:      make(map[string]map[*Client]struct{}),
		logger:      logger.With(zap.String("component", "hub")),
	}
}

// Run 事件循环，ctx 取消时关闭所有连接; 返回后所有发往 Hub 的请求直接放弃
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.logger.Info("WS hub started")
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.clientCount.Store(int64(len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}

		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			subs := h.topics[sub.topic]
			if subs == nil {
				subs = make(map[*Client]struct{})
				h.topics[sub.topic] = subs
			}
			subs[sub.client] = struct{}{}
			sub.client.subscribed[sub.topic] = struct{}{}
			h.countSubscriptions()

		case sub := <-h.unsubscribe:
			h.removeFromTopic(sub.client, sub.topic)
			delete(sub.client.subscribed, sub.topic)
			h.countSubscriptions()

		case p := <-h.publish:
			for c := range h.topics[p.topic] {
				select {
				case c.send <- p.data:
					c.drops = 0
				default:
					h.publishDrops.Add(1)
					c.drops++
					if c.drops > maxConsecutiveDrops {
						h.logger.Warn("Evicting slow client", zap.Int("drops", c.drops))
						h.drop(c)
						_ = c.conn.Close()
					}
				}
			}

		case <-ctx.Done():
			h.logger.Info("WS hub shutting down")
			for c := range h.clients {
				h.drop(c)
				_ = c.conn.Close()
			}
			return
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	for t := range c.subscribed {
		h.removeFromTopic(c, t)
	}
	close(c.send)
	h.clientCount.Store(int64(len(h.clients)))
	h.countSubscriptions()
}

func (h *Hub) countSubscriptions() {
	n := 0
	for _, subs := range h.topics {
		n += len(subs)
	}
	h.subCount.Store(int64(n))
}

func (h *Hub) removeFromTopic(c *Client, topic string) {
	if subs := h.topics[topic]; subs != nil {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish 把 v 序列化后推送给主题订阅者; 缓冲区满时丢弃，不阻塞调用方
func (h *Hub) Publish(topic, kind string, v any) {
	b, err := json.Marshal(Envelope{Type: kind, Topic: topic, Seq: h.seq.Add(1), Data: v})
	if err != nil {
		h.logger.Error("Marshal push message failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	select {
	case h.publish <- publishMsg{topic: topic, data: b}:
	default:
		h.publishDrops.Add(1)
		h.logger.Warn("Publish channel full, dropping message", zap.String("topic", topic))
	}
}

// Stats 当前连接数与累计丢弃数
func (h *Hub) Stats() (clients int, drops uint64) {
	return int(h.clientCount.Load()), h.publishDrops.Load()
}

// Subscriptions 所有主题的订阅总数
func (h *Hub) Subscriptions() int {
	return int(h.subCount.Load())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 只监听本机，界面与服务同源
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS 升级连接并注册客户端，可通过 ?topics=a,b 预先订阅
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WS upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, defaultSendBuf),
		subscribed: make(map[string]struct{}),
	}

	if !h.send(h.register, client) {
		_ = conn.Close()
		return
	}
	if s := r.URL.Query().Get("topics"); s != "" {
		for _, topic := range strings.Split(s, ",") {
			if topic = strings.TrimSpace(topic); topic != "" {
				h.sendSub(h.subscribe, subscription{client: client, topic: topic})
			}
		}
	}

	go client.writePump()
	go client.readPump()
}

// send 在 Run 已退出时返回 false
func (h *Hub) send(ch chan *Client, c *Client) bool {
	select {
	case ch <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) sendSub(ch chan subscription, sub subscription) bool {
	select {
	case ch <- sub:
		return true
	case <-h.done:
		return false
	}
}

// readPump 读取订阅/取消订阅指令
func (c *Client) readPump() {
	defer func() {
		c.hub.send(c.hub.unregister, c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WS read error", zap.Error(err))
			}
			return
		}

		var cmd struct {
			Type  string `json:"type"` // subscribe | unsubscribe
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil || cmd.Topic == "" {
			c.hub.logger.Debug("Invalid client message", zap.ByteString("msg", message))
			continue
		}
		ok := true
		switch cmd.Type {
		case "subscribe":
			ok = c.hub.sendSub(c.hub.subscribe, subscription{client: c, topic: cmd.Topic})
		case "unsubscribe":
			ok = c.hub.sendSub(c.hub.unsubscribe, subscription{client: c, topic: cmd.Topic})
		}
		if !ok {
			return
		}
	}
}

// writePump 串行化所有写操作
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
