package expiry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/licenzohq/expiry-notifier/internal/domain/license"
	"github.com/licenzohq/expiry-notifier/internal/domain/notification"
	"github.com/licenzohq/expiry-notifier/internal/domain/user"
	"github.com/licenzohq/expiry-notifier/internal/services/expiry/repo"
)

/********** fakes **********/

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeSerials struct {
	rows []*license.SerialRecord
	err  error
}

func (f *fakeSerials) FetchScannable(context.Context) ([]*license.SerialRecord, error) {
	return f.rows, f.err
}

type fakeAssigns struct {
	byTag map[string][]int64
	err   error
}

func (f *fakeAssigns) UsersForTag(_ context.Context, tag string) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byTag[tag], nil
}

type fakeUsers struct{ byID map[int64]*user.User }

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (f *fakeUsers) ListByIDs(_ context.Context, ids []int64) ([]*user.User, error) {
	var out []*user.User
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// memStore keeps notifications in memory and enforces the per-day uniqueness
// the real table enforces with its partial index. blindExists makes
// ExistsSince lie so tests can drive the insert-conflict path directly.
type memStore struct {
	seq         int64
	rows        []*notification.Notification
	now         time.Time
	blindExists bool
}

func (s *memStore) key(typ string, userID, licenseID, serialID int64, day time.Time) string {
	return fmt.Sprintf("%s|%d|%d|%d|%s", typ, userID, licenseID, serialID, day.Format("2006-01-02"))
}

func (s *memStore) Create(_ context.Context, n *notification.Notification) error {
	k := s.key(n.Type, n.UserID, n.LicenseID, n.SerialID, license.StartOfUTCDay(s.now))
	for _, r := range s.rows {
		if s.key(r.Type, r.UserID, r.LicenseID, r.SerialID, license.StartOfUTCDay(r.CreatedAt)) == k {
			return notification.ErrDuplicate
		}
	}
	s.seq++
	n.ID = s.seq
	n.CreatedAt = s.now
	cp := *n
	s.rows = append(s.rows, &cp)
	return nil
}

func (s *memStore) ExistsSince(_ context.Context, typ string, userID, licenseID, serialID int64, since time.Time) (bool, error) {
	if s.blindExists {
		return false, nil
	}
	for _, r := range s.rows {
		if r.Type == typ && r.UserID == userID && r.LicenseID == licenseID &&
			r.SerialID == serialID && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListByUser(_ context.Context, userID int64, limit int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeMailer struct {
	sent    []string
	failFor map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	if m.failFor[to] {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, to)
	return nil
}

/********** harness **********/

var scanDay = time.Date(2024, time.February, 15, 9, 0, 0, 0, time.UTC)

func newHarness(rows []*license.SerialRecord, byTag map[string][]int64, users map[int64]*user.User) (*Usecase, *memStore, *fakeMailer) {
	store := &memStore{now: scanDay}
	mail := &fakeMailer{failFor: map[string]bool{}}
	uc := &Usecase{
		Serials: repo.SerialSource{R: &fakeSerials{rows: rows}},
		Assigns: repo.AssignmentSource{R: &fakeAssigns{byTag: byTag}},
		Users:   repo.UserSource{R: &fakeUsers{byID: users}},
		Guard:   repo.DedupGuard{R: store},
		Writer:  &DirectWriter{Store: store, Mail: mail, Log: zap.NewNop()},
		Clock:   fixedClock{t: scanDay},
		Log:     zap.NewNop(),
	}
	return uc, store, mail
}

func serialRow(id, licenseID int64, tag string, end time.Time) *license.SerialRecord {
	return &license.SerialRecord{
		ID:         id,
		LicenseID:  licenseID,
		Label:      fmt.Sprintf("SN-%04d", id),
		EndDate:    &end,
		Item:       "AutoCAD",
		ProjectTag: tag,
	}
}

func twoUsers() map[int64]*user.User {
	return map[int64]*user.User{
		1: {ID: 1, Email: "one@example.com", Name: "One"},
		2: {ID: 2, Email: "two@example.com", Name: "Two"},
	}
}

/********** tests **********/

func TestRun_NotifiesEveryAssignedUser(t *testing.T) {
	rows := []*license.SerialRecord{
		serialRow(7, 3, "NPT", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	uc, store, mail := newHarness(rows, map[string][]int64{"NPT": {1, 2}}, twoUsers())

	st, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, st.Scanned)
	assert.Equal(t, 1, st.ExpiringSoon)
	assert.Equal(t, 2, st.Created)
	assert.Equal(t, 0, st.Errors)
	assert.Len(t, store.rows, 2)
	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com"}, mail.sent)
}

func TestRun_ExpiredSerialGetsHighPriority(t *testing.T) {
	rows := []*license.SerialRecord{
		serialRow(7, 3, "NPT", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
	}
	uc, store, _ := newHarness(rows, map[string][]int64{"NPT": {1}}, twoUsers())

	st, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, st.Expired)
	require.Len(t, store.rows, 1)
	n := store.rows[0]
	assert.Equal(t, notification.TitleExpired, n.Title)
	assert.Equal(t, notification.PriorityHigh, n.Priority)
	assert.Equal(t, "SN-0007 for AutoCAD expired 45 day(s) ago", n.Message)
}

func TestRun_EmptyProjectTagSkipsWithoutBroadcast(t *testing.T) {
	rows := []*license.SerialRecord{
		serialRow(7, 3, "", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	uc, store, mail := newHarness(rows, map[string][]int64{"": {1, 2}}, twoUsers())

	st, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, st.SkippedNoTag)
	assert.Equal(t, 0, st.Created)
	assert.Empty(t, store.rows)
	assert.Empty(t, mail.sent)
}

func TestRun_PartialDedupOnlyNotifiesNewRecipients(t *testing.T) {
	rows := []*license.SerialRecord{
		serialRow(7, 3, "NPT", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	uc, store, mail := newHarness(rows, map[string][]int64{"NPT": {1, 2}}, twoUsers())

	// User 1 was already notified earlier today by another trigger.
	require.NoError(t, store.Create(context.Background(), &notification.Notification{
		Type: notification.TypeExpiry, UserID: 1, LicenseID: 3, SerialID: 7,
	}))

	st, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, st.Created)
	assert.Equal(t, 1, st.Deduped)
	assert.Equal(t, []string{"two@example.com"}, mail.sent)
}

func TestRun_SecondRunSameDayIsIdempotent(t *testing.T) {
	rows := []*license.SerialRecord{
		serialRow(7, 3, "NPT", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	uc, store, mail := newHarness(rows, map[string][]int64{"NPT": {1, 2}}, twoUsers())

	_, err := uc.Run(context.Background())
	require.NoError(t, err)
	st, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, st.Created)
	assert.Equal(t, 2, st.Deduped)
	assert.Len(t, store.rows, 2)
	assert.Len(t, mail.sent, 2)
}

func TestRun_InsertConflictCountsAsDeduped(t *testing.T) {
	// ExistsSince reports nothing, so the run reaches Create and loses the
	// insert race the way a concurrent scan would.
	rows := []*license.SerialRecord{
		serialRow(7, 3, "NPT", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	uc, store, mail := newHarness(rows, map[string][]int64{"NPT": {1}}, twoUsers())
	store.blindExists = true

	_, err := uc.Run(context.Background())
	require.NoError(t, err)
	st, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, st.Created)
	assert.Equal(t, 1, st.Deduped)
	assert.Equal(t, 0, st.Errors)
	assert.Len(t, mail.sent, 1)
}

func TestRun_MailFailureDoesNotAbortOthers(t *testing.T) {
	rows := []*license.SerialRecord{
		serialRow(7, 3, "NPT", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	users := map[int64]*user.User{
		1: {ID: 1, Email: "one@example.com"},
		2: {ID: 2, Email: "two@example.com"},
		3: {ID: 3, Email: "three@example.com"},
	}
	uc, store, mail := newHarness(rows, map[string][]int64{"NPT": {1, 2, 3}}, users)
	mail.failFor["two@example.com"] = true

	st, err := uc.Run(context.Background())
	require.NoError(t, err)

	// All three rows persist; the failed send is logged, not counted fatal.
	assert.Equal(t, 3, st.Created)
	assert.Equal(t, 0, st.Errors)
	assert.Len(t, store.rows, 3)
	assert.ElementsMatch(t, []string{"one@example.com", "three@example.com"}, mail.sent)
}

func TestRun_AssignmentFailureIsolatedPerSerial(t *testing.T) {
	rows := []*license.SerialRecord{
		serialRow(7, 3, "BROKEN", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
		serialRow(8, 3, "NPT", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	uc, _, mail := newHarness(rows, map[string][]int64{"NPT": {1}}, twoUsers())
	uc.Assigns = repo.AssignmentSource{R: &taggedAssigns{
		good: map[string][]int64{"NPT": {1}},
		bad:  "BROKEN",
	}}

	st, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, st.Errors)
	assert.Equal(t, 1, st.Created)
	assert.Equal(t, []string{"one@example.com"}, mail.sent)
}

type taggedAssigns struct {
	good map[string][]int64
	bad  string
}

func (f *taggedAssigns) UsersForTag(_ context.Context, tag string) ([]int64, error) {
	if tag == f.bad {
		return nil, errors.New("query failed")
	}
	return f.good[tag], nil
}

func TestRun_FetchFailureIsFatalForTheRun(t *testing.T) {
	uc, _, _ := newHarness(nil, nil, nil)
	uc.Serials = repo.SerialSource{R: &fakeSerials{err: errors.New("connection reset")}}

	st, err := uc.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, st.Errors)
	assert.Equal(t, 0, st.Scanned)
}

func TestRun_NoAssigneesMeansNoNotification(t *testing.T) {
	rows := []*license.SerialRecord{
		serialRow(7, 3, "NPT", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
	}
	uc, store, _ := newHarness(rows, map[string][]int64{}, twoUsers())

	st, err := uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Created)
	assert.Empty(t, store.rows)
}
