package handler_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/handler"
	"github.com/canteenconnect/api/internal/service"
	"github.com/canteenconnect/api/internal/ws"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sentEvent struct {
	topic string
	event ws.Event
}

type recordingBroadcaster struct {
	sent []sentEvent
}

func (b *recordingBroadcaster) Broadcast(topic string, event ws.Event) {
	b.sent = append(b.sent, sentEvent{topic: topic, event: event})
}

func TestHubNotifier_Publish(t *testing.T) {
	hub := &recordingBroadcaster{}
	n := handler.NewHubNotifier(hub, zap.NewNop().Sugar())

	order := testOrder(uuid.New(), enum.OrderStatusReady)
	n.Publish(context.Background(), service.Event{Type: enum.EventOrderUpdated, Order: order})

	if len(hub.sent) != 2 {
		t.Fatalf("broadcasts: got %d, want 2", len(hub.sent))
	}
	if hub.sent[0].topic != enum.TopicOperators {
		t.Errorf("first topic: got %q", hub.sent[0].topic)
	}
	if want := enum.CustomerTopic(order.CustomerID.String()); hub.sent[1].topic != want {
		t.Errorf("second topic: got %q, want %q", hub.sent[1].topic, want)
	}

	ev := hub.sent[1].event
	if ev.Type != enum.EventOrderUpdated {
		t.Errorf("type: got %q", ev.Type)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["id"] != order.ID.String() || payload["status"] != "READY" || payload["total_amount"] != "22.48" {
		t.Errorf("payload: got %v", payload)
	}
	next, _ := payload["next_triggers"].([]interface{})
	if len(next) != 1 || next[0] != "confirmPickup" {
		t.Errorf("next_triggers: got %v", payload["next_triggers"])
	}
}
