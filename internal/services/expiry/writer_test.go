package expiry

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/licenzohq/expiry-notifier/internal/domain/notification"
	outboxdom "github.com/licenzohq/expiry-notifier/internal/domain/outbox"
	intoutbox "github.com/licenzohq/expiry-notifier/internal/outbox"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memBox struct {
	keys     []string
	kinds    []outboxdom.Kind
	payloads [][]byte
}

func (b *memBox) Enqueue(_ context.Context, key string, kind outboxdom.Kind, data []byte) error {
	b.keys = append(b.keys, key)
	b.kinds = append(b.kinds, kind)
	b.payloads = append(b.payloads, data)
	return nil
}

func (b *memBox) PickBatch(context.Context, int, time.Duration) ([]outboxdom.Message, error) {
	return nil, nil
}

func (b *memBox) MarkSuccess(context.Context, []string) error { return nil }

func TestOutboxWriter_EnqueuesDispatchWithNotification(t *testing.T) {
	store := &memStore{now: scanDay}
	box := &memBox{}
	w := &OutboxWriter{Tx: passthroughTx{}, Store: store, Box: box, Clock: fixedClock{t: scanDay}}

	n := &notification.Notification{
		Type: notification.TypeExpiry, Title: notification.TitleExpiringSoon,
		UserID: 1, LicenseID: 3, SerialID: 7,
	}
	req := &notification.EmailDispatchRequest{
		To: "one@example.com", Subject: "IMPORTANT: Serial License Expiring Soon", HTML: "<html></html>",
	}

	require.NoError(t, w.Record(context.Background(), n, req))

	require.Len(t, store.rows, 1)
	assert.Equal(t, n.ID, req.NotificationID)

	require.Len(t, box.keys, 1)
	assert.Equal(t, "expiry:1:3:7:2024-02-15", box.keys[0])
	assert.Equal(t, outboxdom.KindEmailDispatch, box.kinds[0])

	var p intoutbox.EmailDispatchPayload
	require.NoError(t, json.Unmarshal(box.payloads[0], &p))
	assert.Equal(t, n.ID, p.NotificationID)
	assert.Equal(t, "one@example.com", p.To)
	assert.Equal(t, "IMPORTANT: Serial License Expiring Soon", p.Subject)
	assert.Equal(t, "<html></html>", p.HTML)
}

func TestOutboxWriter_DuplicateSkipsEnqueue(t *testing.T) {
	store := &memStore{now: scanDay}
	box := &memBox{}
	w := &OutboxWriter{Tx: passthroughTx{}, Store: store, Box: box, Clock: fixedClock{t: scanDay}}

	n := &notification.Notification{Type: notification.TypeExpiry, UserID: 1, LicenseID: 3, SerialID: 7}
	req := &notification.EmailDispatchRequest{To: "one@example.com"}
	require.NoError(t, w.Record(context.Background(), n, req))

	dup := &notification.Notification{Type: notification.TypeExpiry, UserID: 1, LicenseID: 3, SerialID: 7}
	err := w.Record(context.Background(), dup, &notification.EmailDispatchRequest{To: "one@example.com"})
	assert.ErrorIs(t, err, notification.ErrDuplicate)
	assert.Len(t, box.keys, 1)
}

func TestDirectWriter_SendFailureKeepsRow(t *testing.T) {
	store := &memStore{now: scanDay}
	mail := &fakeMailer{failFor: map[string]bool{"one@example.com": true}}
	w := &DirectWriter{Store: store, Mail: mail, Log: zap.NewNop()}

	n := &notification.Notification{Type: notification.TypeExpiry, UserID: 1, LicenseID: 3, SerialID: 7}
	req := &notification.EmailDispatchRequest{To: "one@example.com"}

	require.NoError(t, w.Record(context.Background(), n, req))
	assert.Len(t, store.rows, 1)
	assert.Empty(t, mail.sent)
}
