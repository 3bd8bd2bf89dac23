package handler

import (
	"context"
	"encoding/json"

	"github.com/canteenconnect/api/internal/enum"
	"github.com/canteenconnect/api/internal/service"
	"github.com/canteenconnect/api/internal/ws"
	"go.uber.org/zap"
)

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(topic string, event ws.Event)
}

// HubNotifier publishes lifecycle events to websocket rooms using the same
// JSON shape as the REST responses.
type HubNotifier struct {
	hub    Broadcaster
	logger *zap.SugaredLogger
}

func NewHubNotifier(hub Broadcaster, logger *zap.SugaredLogger) *HubNotifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &HubNotifier{hub: hub, logger: logger}
}

// Publish sends ev to the operator feed and to the owning customer's feed.
func (n *HubNotifier) Publish(_ context.Context, ev service.Event) {
	payload, err := json.Marshal(toOrderResponse(ev.Order))
	if err != nil {
		n.logger.Errorw("marshal order event", "order_id", ev.Order.ID, "error", err)
		return
	}
	event := ws.Event{Type: ev.Type, Payload: payload}
	n.hub.Broadcast(enum.TopicOperators, event)
	n.hub.Broadcast(enum.CustomerTopic(ev.Order.CustomerID.String()), event)
}
