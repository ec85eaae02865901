package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"

	"github.com/licenzohq/expiry-notifier/internal/domain/outbox"
	"github.com/licenzohq/expiry-notifier/internal/obs/retry"
	kafkax "github.com/licenzohq/expiry-notifier/internal/repository/kafka"
)

// EmailDispatchPayload is what the expiry pipeline enqueues: everything the
// mail gateway needs, frozen at notification-creation time.
type EmailDispatchPayload struct {
	NotificationID int64  `json:"notification_id"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	HTML           string `json:"html"`
}

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers (publish, etc.)",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle")
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		outboxHandlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

func MakeGlobalOutboxHandler(pub *kafkax.MailEventsKafka, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindEmailDispatch:
			base := func(ctx context.Context, data []byte) error {
				var p EmailDispatchPayload
				if err := json.Unmarshal(data, &p); err != nil {
					return fmt.Errorf("unmarshal email-dispatch payload: %w", err)
				}
				return pub.PublishEmailDispatch(ctx, p.NotificationID, p.To, p.Subject, p.HTML)
			}
			return instrument("email_dispatch", base, pol), nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
