package services

import (
	"github.com/expohall/expoadmin-backend/internal/realtime"
	"github.com/expohall/expoadmin-backend/internal/types"
)

// BoardNotifier pushes contact/board changes to every connected admin. Calls
// are fire-and-forget; a nil notifier is a no-op so services stay testable
// without a hub.
type BoardNotifier interface {
	ContactCreated(contact *types.Contact)
	ContactStageChanged(contact *types.Contact, stage *types.Stage)
}

type boardNotifier struct {
	hub *realtime.SSEHub
}

func NewBoardNotifier(hub *realtime.SSEHub) BoardNotifier {
	return &boardNotifier{hub: hub}
}

func (n *boardNotifier) ContactCreated(contact *types.Contact) {
	if n == nil || n.hub == nil || contact == nil {
		return
	}
	n.hub.Broadcast(realtime.SSEMessage{
		Channel: realtime.BoardChannel,
		Event:   realtime.SSEEventContactCreated,
		Data:    map[string]any{"contact": contact},
	})
}

func (n *boardNotifier) ContactStageChanged(contact *types.Contact, stage *types.Stage) {
	if n == nil || n.hub == nil || contact == nil {
		return
	}
	data := map[string]any{"contact": contact}
	if stage != nil {
		data["stage_id"] = stage.ID
		data["stage_name"] = stage.Name
	}
	n.hub.Broadcast(realtime.SSEMessage{
		Channel: realtime.BoardChannel,
		Event:   realtime.SSEEventContactStageChanged,
		Data:    data,
	})
}
