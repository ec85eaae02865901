package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	kafkax "github.com/licenzohq/expiry-notifier/internal/repository/kafka"
)

// Controller consumes email-dispatch events and pushes them through the
// mail gateway. A failed send is logged and the message skipped; the
// notification row already exists, so nothing downstream is lost except
// that one email.
type Controller struct {
	Log  *zap.Logger
	Sub  *kafkax.Consumer
	Mail *Mailer

	mConsumed prometheus.Counter
	mSent     prometheus.Counter
	mErrors   prometheus.Counter
}

func NewController(log *zap.Logger, sub *kafkax.Consumer, mail *Mailer) *Controller {
	return &Controller{
		Log:  log,
		Sub:  sub,
		Mail: mail,
		mConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "email_sender_messages_consumed_total",
			Help: "Email dispatch events consumed",
		}),
		mSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "email_sender_emails_sent_total",
			Help: "Emails sent",
		}),
		mErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "email_sender_errors_total",
			Help: "Errors",
		}),
	}
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.JSONHandler(
		func(ctx context.Context, _ []byte, ev *kafkax.EmailDispatchMessage) error {
			c.mConsumed.Inc()
			if ev.To == "" {
				c.Log.Warn("email dispatch without recipient",
					zap.Int64("notification_id", ev.NotificationID))
				return nil
			}
			if err := c.Mail.Send(ctx, ev.To, ev.Subject, ev.HTML); err != nil {
				c.mErrors.Inc()
				return fmt.Errorf("send email: %w", err)
			}
			c.mSent.Inc()
			return nil
		},
	)

	if err := c.Sub.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		c.mErrors.Inc()
		c.Log.Warn("kafka consume", zap.Error(err))
		return err
	}
	return ctx.Err()
}
