package license

import "time"

// DefaultNotifyBeforeDays applies when a serial has no explicit window.
const DefaultNotifyBeforeDays = 30

type Status string

const (
	StatusIgnore       Status = "ignore"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
)

// Classification is the result of evaluating one serial against a fixed
// reference day. Days is the signed whole-day distance from the reference
// day to the end date: positive while the serial is still valid, negative
// once it is past.
type Classification struct {
	Status Status
	Days   int
}

// DaysOverdue is the magnitude of Days for expired serials, zero otherwise.
func (c Classification) DaysOverdue() int {
	if c.Status == StatusExpired && c.Days < 0 {
		return -c.Days
	}
	return 0
}

// StartOfUTCDay truncates t to the UTC day boundary. The scan computes this
// once per run and passes it everywhere, so a run straddling midnight stays
// consistent.
func StartOfUTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Classify evaluates a serial against today (must be a UTC day boundary).
//
// A serial whose end date equals today is still expiring-soon, not expired;
// expiry requires the end date to be strictly before today. When a serial is
// both past its notify date and past its end date, expired wins.
func Classify(s *SerialRecord, today time.Time) Classification {
	if s.EndDate == nil {
		return Classification{Status: StatusIgnore}
	}
	end := StartOfUTCDay(*s.EndDate)
	days := int(end.Sub(today) / (24 * time.Hour))

	notify := DefaultNotifyBeforeDays
	if s.NotifyBeforeDays != nil {
		notify = *s.NotifyBeforeDays
		if notify < 0 {
			notify = 0
		}
	}
	notifyDate := end.AddDate(0, 0, -notify)

	switch {
	case end.Before(today):
		return Classification{Status: StatusExpired, Days: days}
	case !today.Before(notifyDate) && !today.After(end):
		return Classification{Status: StatusExpiringSoon, Days: days}
	default:
		return Classification{Status: StatusIgnore, Days: days}
	}
}
