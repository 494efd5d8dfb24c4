package bus

import (
	"context"

	"github.com/expohall/expoadmin-backend/internal/realtime"
)

// Bus carries insert events from the submission intake to the notification
// relay. Subscribe returns a channel that closes when the underlying
// transport drops; the relay owns resubscription.
type Bus interface {
	Publish(ctx context.Context, ev realtime.InsertEvent) error
	Subscribe(ctx context.Context) (<-chan realtime.InsertEvent, error)
	Close() error
}
