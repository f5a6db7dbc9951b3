package node

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Omecx/YieldSyncx/types"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// subscribe registers a subscription and waits for its ack, so events
// broadcast afterwards are guaranteed to reach the connection.
func subscribe(t *testing.T, conn *websocket.Conn, method string) {
	req, err := json.Marshal(SubscriptionRequest{Method: method})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, req))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ack SubscriptionAck
	require.NoError(t, json.Unmarshal(msg, &ack))
	assert.Equal(t, "subscribed", ack.Method)
	assert.Equal(t, method, ack.Result)
}

func TestHubBroadcastsBatchToSubscriber(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	subscribe(t, conn, SubNewBatch)

	hub.BroadcastBatch(&types.Batch{ID: 7, FromIndex: 0, ToIndex: 4, Description: "hub test"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event BatchEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, SubNewBatch, event.Method)
	require.NotNil(t, event.Result)
	assert.Equal(t, uint64(7), event.Result.ID)
	assert.Equal(t, "hub test", event.Result.Description)
}

func TestHubIgnoresUnsubscribedClients(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	subscribe(t, conn, SubAnomalies)

	hub.BroadcastBatch(&types.Batch{ID: 1})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no batch event expected for an anomaly-only subscriber")
}
