package repo

import (
	"context"
	"time"

	"github.com/licenzohq/expiry-notifier/internal/domain/assignment"
	"github.com/licenzohq/expiry-notifier/internal/domain/license"
	"github.com/licenzohq/expiry-notifier/internal/domain/notification"
	"github.com/licenzohq/expiry-notifier/internal/domain/user"
)

type SerialSource struct{ R license.Repo }
type AssignmentSource struct{ R assignment.Repo }
type UserSource struct{ R user.Repo }
type DedupGuard struct{ R notification.Repo }

func (a SerialSource) FetchScannable(ctx context.Context) ([]*license.SerialRecord, error) {
	return a.R.FetchScannable(ctx)
}

func (a AssignmentSource) UsersForTag(ctx context.Context, tag string) ([]int64, error) {
	return a.R.UsersForTag(ctx, tag)
}

func (a UserSource) ListByIDs(ctx context.Context, ids []int64) ([]*user.User, error) {
	return a.R.ListByIDs(ctx, ids)
}

// Exists asks whether an expiry notification for the triple was already
// created at or after dayStart. Checked per user on every run, never cached.
func (g DedupGuard) Exists(ctx context.Context, userID, licenseID, serialID int64, dayStart time.Time) (bool, error) {
	return g.R.ExistsSince(ctx, notification.TypeExpiry, userID, licenseID, serialID, dayStart)
}
