package audit

import (
	"context"

	"gatekeeper/pkg/domain"
)

// Store persists audit events. Append-only by contract: implementations
// expose no update or delete operations. List methods return events
// newest-first, the ordering consumers expect.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID domain.AccountID, limit int) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
