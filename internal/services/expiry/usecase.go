package expiry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/licenzohq/expiry-notifier/internal/domain/license"
	"github.com/licenzohq/expiry-notifier/internal/domain/notification"
	"github.com/licenzohq/expiry-notifier/internal/services/expiry/repo"
)

// Usecase is the whole pipeline: scan serials, resolve assigned users,
// filter through the dedup guard, persist + dispatch. Every trigger (CLI,
// cron daemon) runs this exact code; they differ only in the Writer wired in.
type Usecase struct {
	Serials repo.SerialSource
	Assigns repo.AssignmentSource
	Users   repo.UserSource
	Guard   repo.DedupGuard
	Writer  notification.Writer
	Clock   notification.Clock
	Log     *zap.Logger
}

type Stats struct {
	Scanned      int
	ExpiringSoon int
	Expired      int
	SkippedNoTag int
	Deduped      int
	Created      int
	Errors       int
}

// Run executes one full scan against a single reference day computed at
// entry. Unit-level failures (one serial, one recipient) are logged and
// counted; only a failure to list serials at all surfaces as an error.
func (u *Usecase) Run(ctx context.Context) (Stats, error) {
	var st Stats

	today := license.StartOfUTCDay(u.Clock.Now())

	tr := otel.Tracer("expiry.uc")
	ctx, span := tr.Start(ctx, "expiry.scan",
		trace.WithAttributes(attribute.String("scan.day", today.Format("2006-01-02"))),
	)
	defer span.End()

	rows, err := u.Serials.FetchScannable(ctx)
	if err != nil {
		span.RecordError(err)
		st.Errors++
		return st, fmt.Errorf("fetch serials: %w", err)
	}
	st.Scanned = len(rows)

	for _, row := range rows {
		cls := license.Classify(row, today)
		switch cls.Status {
		case license.StatusIgnore:
			continue
		case license.StatusExpired:
			st.Expired++
		case license.StatusExpiringSoon:
			st.ExpiringSoon++
		}

		if row.ProjectTag == "" {
			// Nobody to route to; broadcasting would spam every user.
			u.Log.Warn("serial has no project tag, skipping",
				zap.Int64("serial_id", row.ID),
				zap.Int64("license_id", row.LicenseID),
			)
			st.SkippedNoTag++
			continue
		}

		ids, err := u.Assigns.UsersForTag(ctx, row.ProjectTag)
		if err != nil {
			u.Log.Warn("resolve assignments failed",
				zap.String("project_tag", row.ProjectTag),
				zap.Int64("serial_id", row.ID),
				zap.Error(err),
			)
			st.Errors++
			continue
		}
		if len(ids) == 0 {
			continue
		}

		users, err := u.Users.ListByIDs(ctx, ids)
		if err != nil {
			u.Log.Warn("resolve users failed",
				zap.String("project_tag", row.ProjectTag),
				zap.Int64("serial_id", row.ID),
				zap.Error(err),
			)
			st.Errors++
			continue
		}

		for _, usr := range users {
			seen, err := u.Guard.Exists(ctx, usr.ID, row.LicenseID, row.ID, today)
			if err != nil {
				u.Log.Warn("dedup check failed",
					zap.Int64("user_id", usr.ID),
					zap.Int64("serial_id", row.ID),
					zap.Error(err),
				)
				st.Errors++
				continue
			}
			if seen {
				st.Deduped++
				continue
			}

			n := buildNotification(row, cls, usr.ID)
			req := buildEmail(usr, n)

			switch err := u.Writer.Record(ctx, n, req); {
			case errors.Is(err, notification.ErrDuplicate):
				// Lost the insert race to a concurrent run; the other
				// run owns the email.
				st.Deduped++
			case err != nil:
				u.Log.Warn("record notification failed",
					zap.Int64("user_id", usr.ID),
					zap.Int64("serial_id", row.ID),
					zap.Error(err),
				)
				st.Errors++
			default:
				st.Created++
			}
		}
	}

	span.SetAttributes(
		attribute.Int("scan.serials", st.Scanned),
		attribute.Int("scan.expired", st.Expired),
		attribute.Int("scan.expiring_soon", st.ExpiringSoon),
		attribute.Int("scan.created", st.Created),
		attribute.Int("scan.deduped", st.Deduped),
		attribute.Int("scan.errors", st.Errors),
	)
	return st, nil
}
