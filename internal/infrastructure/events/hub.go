package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 8
)

type message struct {
	payload []byte
	final   bool
}

type subscriber struct {
	send chan message
}

// Hub pushes order status events to websocket clients watching a receipt.
type Hub struct {
	mu       sync.RWMutex
	subs     map[uuid.UUID]map[*subscriber]struct{}
	upgrader websocket.Upgrader
}

// NewHub builds a hub. checkOrigin may be nil to accept any origin.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		subs: make(map[uuid.UUID]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Publish sends event to every watcher of the order. Slow watchers miss messages rather than block.
func (h *Hub) Publish(_ context.Context, event order.StatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := message{payload: payload, final: event.To.IsTerminal()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[event.OrderID] {
		select {
		case sub.send <- msg:
		default:
			logger.Warn("Dropping order event for slow websocket client",
				zap.String("order_id", event.OrderID.String()),
			)
		}
	}
	return nil
}

// Subscribers returns the number of watchers for an order.
func (h *Hub) Subscribers(orderID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}

func (h *Hub) register(orderID uuid.UUID) *subscriber {
	sub := &subscriber{send: make(chan message, sendBuffer)}
	h.mu.Lock()
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[*subscriber]struct{})
	}
	h.subs[orderID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unregister(orderID uuid.UUID, sub *subscriber) {
	h.mu.Lock()
	delete(h.subs[orderID], sub)
	if len(h.subs[orderID]) == 0 {
		delete(h.subs, orderID)
	}
	h.mu.Unlock()
}

// Subscription is a registered watcher of one order. Events published after Watch returns
// are queued on it until Serve streams them or Close drops it.
type Subscription struct {
	hub     *Hub
	orderID uuid.UUID
	sub     *subscriber
}

// Watch registers a watcher for orderID. Load the order's current status after Watch so a
// transition racing the websocket handshake is queued rather than lost.
func (h *Hub) Watch(orderID uuid.UUID) *Subscription {
	return &Subscription{hub: h, orderID: orderID, sub: h.register(orderID)}
}

// Close unregisters the watcher. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unregister(s.orderID, s.sub)
}

// Serve upgrades the request and streams current followed by later events, after any already
// queued on s. The connection closes after the first terminal status. s is closed when the stream ends.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, s *Subscription, current order.StatusEvent) error {
	payload, err := json.Marshal(current)
	if err != nil {
		s.Close()
		return err
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Close()
		return err
	}

	// A full queue already holds newer events than the snapshot.
	select {
	case s.sub.send <- message{payload: payload, final: current.To.IsTerminal()}:
	default:
	}

	done := make(chan struct{})
	go h.readPump(conn, done)
	go func() {
		h.writePump(conn, s.sub, done)
		s.Close()
	}()

	return nil
}

// readPump discards client messages and signals done when the connection drops.
func (h *Hub) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
				return
			}
			if msg.final {
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "order finalized"),
					time.Now().Add(writeWait),
				)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
