package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time { return &t }
func intPtr(n int) *int              { return &n }

func TestStartOfUTCDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 New York on Mar 9 is already Mar 10 in UTC.
	local := time.Date(2024, time.March, 9, 23, 30, 0, 0, loc)
	assert.Equal(t, day(2024, time.March, 10), StartOfUTCDay(local))

	assert.Equal(t, day(2024, time.March, 10),
		StartOfUTCDay(time.Date(2024, time.March, 10, 15, 4, 5, 0, time.UTC)))
}

func TestClassify(t *testing.T) {
	today := day(2024, time.February, 15)

	tests := []struct {
		name   string
		serial SerialRecord
		status Status
		days   int
	}{
		{
			name:   "no end date is ignored",
			serial: SerialRecord{EndDate: nil},
			status: StatusIgnore,
		},
		{
			name:   "ends today is expiring soon, not expired",
			serial: SerialRecord{EndDate: datePtr(day(2024, time.February, 15))},
			status: StatusExpiringSoon,
			days:   0,
		},
		{
			name:   "ended yesterday is expired",
			serial: SerialRecord{EndDate: datePtr(day(2024, time.February, 14))},
			status: StatusExpired,
			days:   -1,
		},
		{
			name:   "inside default 30 day window",
			serial: SerialRecord{EndDate: datePtr(day(2024, time.March, 10))},
			status: StatusExpiringSoon,
			days:   24,
		},
		{
			name:   "exactly 30 days out with default window",
			serial: SerialRecord{EndDate: datePtr(day(2024, time.March, 16))},
			status: StatusExpiringSoon,
			days:   30,
		},
		{
			name:   "31 days out with default window",
			serial: SerialRecord{EndDate: datePtr(day(2024, time.March, 17))},
			status: StatusIgnore,
			days:   31,
		},
		{
			name: "custom window narrows the default",
			serial: SerialRecord{
				EndDate:          datePtr(day(2024, time.February, 25)),
				NotifyBeforeDays: intPtr(7),
			},
			status: StatusIgnore,
			days:   10,
		},
		{
			name: "custom window reached",
			serial: SerialRecord{
				EndDate:          datePtr(day(2024, time.February, 20)),
				NotifyBeforeDays: intPtr(7),
			},
			status: StatusExpiringSoon,
			days:   5,
		},
		{
			name: "zero window only fires on the end day",
			serial: SerialRecord{
				EndDate:          datePtr(day(2024, time.February, 16)),
				NotifyBeforeDays: intPtr(0),
			},
			status: StatusIgnore,
			days:   1,
		},
		{
			name: "negative window clamps to zero",
			serial: SerialRecord{
				EndDate:          datePtr(day(2024, time.February, 15)),
				NotifyBeforeDays: intPtr(-5),
			},
			status: StatusExpiringSoon,
			days:   0,
		},
		{
			name:   "long expired",
			serial: SerialRecord{EndDate: datePtr(day(2024, time.January, 1))},
			status: StatusExpired,
			days:   -45,
		},
		{
			name: "end date carries a time of day",
			serial: SerialRecord{
				EndDate: datePtr(time.Date(2024, time.February, 14, 18, 30, 0, 0, time.UTC)),
			},
			status: StatusExpired,
			days:   -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&tt.serial, today)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.days, got.Days)
		})
	}
}

func TestDaysOverdue(t *testing.T) {
	assert.Equal(t, 45, Classification{Status: StatusExpired, Days: -45}.DaysOverdue())
	assert.Equal(t, 0, Classification{Status: StatusExpiringSoon, Days: 5}.DaysOverdue())
	assert.Equal(t, 0, Classification{Status: StatusIgnore, Days: 40}.DaysOverdue())
}
