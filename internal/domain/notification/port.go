package notification

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate reports that an expiry notification for the same
// (user, license, serial) already exists for the current UTC day. A
// concurrent run losing the insert race gets this instead of an error and
// must skip the email.
var ErrDuplicate = errors.New("duplicate notification for this day")

type Repo interface {
	// Create persists n and fills in ID and CreatedAt. Returns
	// ErrDuplicate when the per-day uniqueness constraint rejects the row.
	Create(ctx context.Context, n *Notification) error

	// ExistsSince reports whether a notification of typ for the triple
	// exists with a creation timestamp at or after since.
	ExistsSince(ctx context.Context, typ string, userID, licenseID, serialID int64, since time.Time) (bool, error)

	ListByUser(ctx context.Context, userID int64, limit int) ([]*Notification, error)
}

// Writer persists a notification and arranges delivery of its email. The
// direct implementation sends over SMTP inline; the outbox implementation
// enqueues the dispatch in the same transaction as the insert.
type Writer interface {
	Record(ctx context.Context, n *Notification, req *EmailDispatchRequest) error
}
