package kafka

import "context"

type MailEvents interface {
	PublishEmailDispatch(ctx context.Context, notificationID int64, to, subject, html string) error
}
