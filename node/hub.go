package node

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/Omecx/YieldSyncx/anomaly"
	"github.com/Omecx/YieldSyncx/log"
	"github.com/Omecx/YieldSyncx/types"
	"github.com/gorilla/websocket"
)

// Subscription methods accepted over the websocket.
const (
	SubNewBatch  = "subscribeNewBatch"
	SubAnomalies = "subscribeAnomalies"
)

// SubscriptionRequest is an incoming websocket request.
type SubscriptionRequest struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// SubscriptionAck confirms a subscription is registered; events for the
// subscribed method are guaranteed to flow only after the ack.
type SubscriptionAck struct {
	Method string `json:"method"`
	Result string `json:"result"`
}

// BatchEvent is pushed to SubNewBatch subscribers when a batch is anchored.
type BatchEvent struct {
	Method string       `json:"method"`
	Result *types.Batch `json:"result"`
}

// AnomalyEvent is pushed to SubAnomalies subscribers per flagged reading.
type AnomalyEvent struct {
	Method string         `json:"method"`
	Result anomaly.Report `json:"result"`
}

type hubClient struct {
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]bool
	mu            sync.Mutex
}

// Hub fans anchoring and anomaly events out to websocket subscribers.
type Hub struct {
	mu       sync.Mutex
	clients  map[*hubClient]bool
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*hubClient]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP lets the hub mount directly on a mux.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWs(w, r)
}

// ServeWs upgrades an HTTP request and serves the subscription protocol.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(log.WebMonitoring, "websocket upgrade failed", "err", err)
		return
	}

	client := &hubClient{
		conn:          conn,
		send:          make(chan []byte, 64),
		subscriptions: make(map[string]bool),
	}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go h.writeLoop(client)
	go h.readLoop(client)
}

func (h *Hub) readLoop(client *hubClient) {
	defer h.drop(client)
	for {
		_, msg, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var req SubscriptionRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Debug(log.WebMonitoring, "bad subscription request", "err", err)
			continue
		}
		switch req.Method {
		case SubNewBatch, SubAnomalies:
			client.mu.Lock()
			client.subscriptions[req.Method] = true
			client.mu.Unlock()
			if ack, err := json.Marshal(SubscriptionAck{Method: "subscribed", Result: req.Method}); err == nil {
				select {
				case client.send <- ack:
				default:
				}
			}
			log.Debug(log.WebMonitoring, "subscription added", "method", req.Method)
		default:
			log.Debug(log.WebMonitoring, "unknown subscription method", "method", req.Method)
		}
	}
}

func (h *Hub) writeLoop(client *hubClient) {
	for msg := range client.send {
		if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) drop(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	client.conn.Close()
}

// BroadcastBatch pushes a batch event to SubNewBatch subscribers.
func (h *Hub) BroadcastBatch(batch *types.Batch) {
	data, err := json.Marshal(BatchEvent{Method: SubNewBatch, Result: batch})
	if err != nil {
		log.Error(log.WebMonitoring, "failed to marshal batch event", "err", err)
		return
	}
	h.broadcast(SubNewBatch, data)
}

// BroadcastAnomalies pushes one event per report to SubAnomalies subscribers.
func (h *Hub) BroadcastAnomalies(reports []anomaly.Report) {
	for _, report := range reports {
		data, err := json.Marshal(AnomalyEvent{Method: SubAnomalies, Result: report})
		if err != nil {
			log.Error(log.WebMonitoring, "failed to marshal anomaly event", "err", err)
			return
		}
		h.broadcast(SubAnomalies, data)
	}
}

func (h *Hub) broadcast(method string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.mu.Lock()
		subscribed := client.subscriptions[method]
		client.mu.Unlock()
		if !subscribed {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer; skip rather than block the anchor path.
		}
	}
}
