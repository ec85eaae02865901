package kafka

import (
	"context"

	domkafka "github.com/licenzohq/expiry-notifier/internal/domain/kafka"
)

// EmailDispatchMessage is the wire form of an email dispatch event. The
// producer and the email-sender consumer share this struct.
type EmailDispatchMessage struct {
	NotificationID int64  `json:"notification_id"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	HTML           string `json:"html"`
}

type MailEventsKafka struct {
	p *Producer
}

func NewMailEventsKafka(p *Producer) *MailEventsKafka { return &MailEventsKafka{p: p} }

var _ domkafka.MailEvents = (*MailEventsKafka)(nil)

func (e *MailEventsKafka) PublishEmailDispatch(ctx context.Context, notificationID int64, to, subject, html string) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(notificationID), &EmailDispatchMessage{
		NotificationID: notificationID,
		To:             to,
		Subject:        subject,
		HTML:           html,
	})
}
