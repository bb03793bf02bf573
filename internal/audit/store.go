package audit

import (
	"context"

	id "justicerollon/pkg/domain"
)

// Store persists audit events. Append-only: there is no update or delete so
// the trail stays tamper-evident at the API level.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
