package realtime

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expohall/expoadmin-backend/internal/logger"
)

func testHub() *SSEHub {
	return NewSSEHub(&logger.Logger{SugaredLogger: zap.NewNop().Sugar()})
}

func TestBroadcastReachesSubscribedClient(t *testing.T) {
	hub := testHub()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, BoardChannel)

	hub.Broadcast(SSEMessage{Channel: BoardChannel, Event: SSEEventContactCreated})

	select {
	case msg := <-client.Outbound:
		if msg.Event != SSEEventContactCreated {
			t.Fatalf("event: want=%s got=%s", SSEEventContactCreated, msg.Event)
		}
	default:
		t.Fatalf("subscribed client received nothing")
	}
}

func TestBroadcastSkipsOtherChannels(t *testing.T) {
	hub := testHub()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "session-a")

	hub.Broadcast(SSEMessage{Channel: "session-b", Event: SSEEventNotificationArrived})

	select {
	case msg := <-client.Outbound:
		t.Fatalf("client got a message for a channel it never joined: %v", msg)
	default:
	}
}

func TestBroadcastAfterRemoveChannel(t *testing.T) {
	hub := testHub()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, BoardChannel)
	hub.RemoveChannel(client, BoardChannel)

	hub.Broadcast(SSEMessage{Channel: BoardChannel, Event: SSEEventContactCreated})

	select {
	case msg := <-client.Outbound:
		t.Fatalf("removed client still received: %v", msg)
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, BoardChannel)

	// fill the outbound buffer and then some; Broadcast must never block
	for i := 0; i < cap(client.Outbound)+10; i++ {
		hub.Broadcast(SSEMessage{Channel: BoardChannel, Event: SSEEventContactCreated})
	}
	if got := len(client.Outbound); got != cap(client.Outbound) {
		t.Fatalf("outbound buffer: want=%d queued got=%d", cap(client.Outbound), got)
	}
}

func TestRemoveClientClearsAllSubscriptions(t *testing.T) {
	hub := testHub()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, BoardChannel)
	hub.AddChannel(client, "session-a")

	hub.RemoveClient(client)

	hub.Broadcast(SSEMessage{Channel: BoardChannel, Event: SSEEventContactCreated})
	hub.Broadcast(SSEMessage{Channel: "session-a", Event: SSEEventNotificationArrived})

	select {
	case msg := <-client.Outbound:
		t.Fatalf("removed client still received: %v", msg)
	default:
	}
	if len(client.Channels) != 0 {
		t.Fatalf("client channel set must be empty after removal, got %d", len(client.Channels))
	}
}
