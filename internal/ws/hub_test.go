package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/canteenconnect/api/internal/auth"
	"github.com/canteenconnect/api/internal/enum"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)

	client := mockClient(hub, enum.TopicOperators)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[enum.TopicOperators] == nil {
		t.Fatal("operator room not created")
	}
	if !hub.rooms[enum.TopicOperators][client] {
		t.Fatal("client not registered in operator room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := startHub(t)

	topic := enum.CustomerTopic(uuid.NewString())
	client := mockClient(hub, topic)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	if hub.Subscribers(topic) != 0 {
		t.Fatal("room not cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Fatal("send channel should be closed")
	}
}

func TestBroadcastToSingleTopic(t *testing.T) {
	hub := startHub(t)

	alice := mockClient(hub, enum.CustomerTopic("alice"))
	bob := mockClient(hub, enum.CustomerTopic("bob"))

	hub.register <- alice
	hub.register <- bob
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"id":"test-123","status":"READY"}`)
	hub.Broadcast(enum.CustomerTopic("alice"), Event{Type: enum.EventOrderUpdated, Payload: testPayload})

	select {
	case msg := <-alice.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != enum.EventOrderUpdated {
			t.Errorf("expected type %q, got %q", enum.EventOrderUpdated, received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("alice did not receive message")
	}

	select {
	case <-bob.send:
		t.Fatal("bob should not have received alice's order event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToMultipleOperators(t *testing.T) {
	hub := startHub(t)

	clients := []*Client{
		mockClient(hub, enum.TopicOperators),
		mockClient(hub, enum.TopicOperators),
		mockClient(hub, enum.TopicOperators),
	}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(enum.TopicOperators, Event{Type: enum.EventOrderCreated, Payload: json.RawMessage(`{}`)})

	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != enum.EventOrderCreated {
				t.Errorf("client%d: expected type %q, got %q", i+1, enum.EventOrderCreated, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub := startHub(t)

	slow := &Client{hub: hub, topic: enum.TopicOperators, send: make(chan []byte, 1)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	event := Event{Type: enum.EventOrderUpdated, Payload: json.RawMessage(`{}`)}
	hub.Broadcast(enum.TopicOperators, event)
	hub.Broadcast(enum.TopicOperators, event)
	time.Sleep(20 * time.Millisecond)

	if n := hub.Subscribers(enum.TopicOperators); n != 0 {
		t.Fatalf("expected slow client to be dropped, %d subscribers remain", n)
	}
}

func TestBroadcastDropsWhenQueueFull(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	// Run is never started, so nothing drains the queue.
	hub := NewHub(zap.New(core).Sugar())

	event := Event{Type: enum.EventOrderUpdated, Payload: json.RawMessage(`{}`)}
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.Broadcast(enum.TopicOperators, event)
	}

	returned := make(chan struct{})
	go func() {
		hub.Broadcast(enum.TopicOperators, event)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full queue")
	}
	if n := len(hub.broadcast); n != cap(hub.broadcast) {
		t.Errorf("queued events: got %d, want %d", n, cap(hub.broadcast))
	}
	if n := logs.FilterMessage("broadcast queue full, dropping event").Len(); n != 1 {
		t.Errorf("drop warnings: got %d, want 1", n)
	}
}

func TestBroadcastToEmptyTopic(t *testing.T) {
	hub := startHub(t)

	op := mockClient(hub, enum.TopicOperators)
	hub.register <- op
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(enum.CustomerTopic("nobody"), Event{Type: enum.EventOrderCreated, Payload: json.RawMessage(`{}`)})

	select {
	case <-op.send:
		t.Fatal("operator should not receive a message sent to a customer room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubShutdown(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := mockClient(hub, enum.TopicOperators)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	if _, ok := <-client.send; ok {
		t.Fatal("client send channel should be closed on shutdown")
	}

	done := make(chan struct{})
	go func() {
		hub.Broadcast(enum.TopicOperators, Event{Type: enum.EventOrderUpdated})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after shutdown")
	}
}

func TestTopicFor(t *testing.T) {
	userID := uuid.New()
	if got := TopicFor(&auth.Claims{UserID: userID, Role: enum.UserRoleOperator}); got != enum.TopicOperators {
		t.Errorf("operator topic: got %q", got)
	}
	if got := TopicFor(&auth.Claims{UserID: userID, Role: enum.UserRoleCustomer}); got != "customer:"+userID.String() {
		t.Errorf("customer topic: got %q", got)
	}
}

func TestServeWS(t *testing.T) {
	hub := startHub(t)
	secret := "ws-secret"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, secret, w, r)
	}))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			t.Fatal("expected dial to fail")
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", resp)
		}
	})

	t.Run("customer receives own events", func(t *testing.T) {
		userID := uuid.New()
		token, err := auth.GenerateToken(secret, userID, "John Doe", enum.UserRoleCustomer, time.Minute)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()

		topic := enum.CustomerTopic(userID.String())
		deadline := time.Now().Add(time.Second)
		for hub.Subscribers(topic) == 0 {
			if time.Now().After(deadline) {
				t.Fatal("client never registered")
			}
			time.Sleep(5 * time.Millisecond)
		}

		hub.Broadcast(topic, Event{Type: enum.EventOrderUpdated, Payload: json.RawMessage(`{"status":"READY"}`)})

		conn.SetReadDeadline(time.Now().Add(time.Second))
		var received Event
		if err := conn.ReadJSON(&received); err != nil {
			t.Fatalf("read: %v", err)
		}
		if received.Type != enum.EventOrderUpdated {
			t.Errorf("type: got %q", received.Type)
		}
	})
}
