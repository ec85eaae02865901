package expiry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/licenzohq/expiry-notifier/internal/domain/license"
	"github.com/licenzohq/expiry-notifier/internal/domain/notification"
	outboxdom "github.com/licenzohq/expiry-notifier/internal/domain/outbox"
	intoutbox "github.com/licenzohq/expiry-notifier/internal/outbox"
	"github.com/licenzohq/expiry-notifier/internal/repository/postgres"
)

// DirectWriter inserts the notification and sends the email inline over the
// mail gateway. A send failure is logged per recipient and swallowed: the
// notification row stays, the run moves on.
type DirectWriter struct {
	Store notification.Repo
	Mail  notification.EmailSender
	Log   *zap.Logger
}

var _ notification.Writer = (*DirectWriter)(nil)

func (w *DirectWriter) Record(ctx context.Context, n *notification.Notification, req *notification.EmailDispatchRequest) error {
	if err := w.Store.Create(ctx, n); err != nil {
		return err
	}
	req.NotificationID = n.ID

	if err := w.Mail.Send(ctx, req.To, req.Subject, req.HTML); err != nil {
		w.Log.Warn("email send failed",
			zap.Int64("notification_id", n.ID),
			zap.String("to", req.To),
			zap.Error(err),
		)
	}
	return nil
}

// OutboxWriter pairs the notification insert with an email-dispatch outbox
// enqueue in one transaction; the outbox workers publish to Kafka and the
// email-sender service does the actual send. The idempotency key repeats the
// per-day uniqueness of the notification itself, so a replayed enqueue
// collapses instead of double-sending.
type OutboxWriter struct {
	Tx    postgres.Transactor
	Store notification.Repo
	Box   outboxdom.Repository
	Clock notification.Clock
}

var _ notification.Writer = (*OutboxWriter)(nil)

func (w *OutboxWriter) Record(ctx context.Context, n *notification.Notification, req *notification.EmailDispatchRequest) error {
	err := w.Tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := w.Store.Create(txCtx, n); err != nil {
			return err
		}
		req.NotificationID = n.ID

		payload, err := json.Marshal(intoutbox.EmailDispatchPayload{
			NotificationID: n.ID,
			To:             req.To,
			Subject:        req.Subject,
			HTML:           req.HTML,
		})
		if err != nil {
			return fmt.Errorf("marshal email-dispatch payload: %w", err)
		}

		day := license.StartOfUTCDay(w.Clock.Now()).Format("2006-01-02")
		key := fmt.Sprintf("expiry:%d:%d:%d:%s", n.UserID, n.LicenseID, n.SerialID, day)

		if err := w.Box.Enqueue(txCtx, key, outboxdom.KindEmailDispatch, payload); err != nil {
			return fmt.Errorf("outbox enqueue: %w", err)
		}
		return nil
	})
	if errors.Is(err, notification.ErrDuplicate) {
		return notification.ErrDuplicate
	}
	return err
}
