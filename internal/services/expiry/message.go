package expiry

import (
	"fmt"

	"github.com/licenzohq/expiry-notifier/internal/domain/license"
	"github.com/licenzohq/expiry-notifier/internal/domain/notification"
	"github.com/licenzohq/expiry-notifier/internal/domain/user"
)

// urgentWithinDays widens "high" priority to serials about to lapse, not
// just already-lapsed ones.
const urgentWithinDays = 7

func buildNotification(row *license.SerialRecord, cls license.Classification, userID int64) *notification.Notification {
	var (
		title    string
		message  string
		priority = notification.PriorityMedium
	)

	switch cls.Status {
	case license.StatusExpired:
		title = notification.TitleExpired
		message = fmt.Sprintf("%s for %s expired %d day(s) ago", row.Label, row.Item, cls.DaysOverdue())
		priority = notification.PriorityHigh
	default:
		title = notification.TitleExpiringSoon
		message = fmt.Sprintf("%s for %s expires in %d day(s)", row.Label, row.Item, cls.Days)
		if cls.Days <= urgentWithinDays {
			priority = notification.PriorityHigh
		}
	}

	return &notification.Notification{
		Type:           notification.TypeExpiry,
		Title:          title,
		Message:        message,
		LicenseID:      row.LicenseID,
		SerialID:       row.ID,
		UserID:         userID,
		Priority:       priority,
		ActionRequired: true,
		ActionURL:      fmt.Sprintf("/licenses/%d?serial=%d", row.LicenseID, row.ID),
	}
}

func buildEmail(u *user.User, n *notification.Notification) *notification.EmailDispatchRequest {
	urgency := "IMPORTANT"
	if n.Priority == notification.PriorityHigh {
		urgency = "URGENT"
	}

	greeting := "Hello,"
	if u.Name != "" {
		greeting = fmt.Sprintf("Hello %s,", u.Name)
	}

	html := fmt.Sprintf(
		`<html><body>`+
			`<h2>%s</h2>`+
			`<p>%s</p>`+
			`<p>%s</p>`+
			`<p>Urgency: <strong>%s</strong></p>`+
			`<p><a href="%s">Review the license</a></p>`+
			`</body></html>`,
		n.Title, greeting, n.Message, urgency, n.ActionURL,
	)

	return &notification.EmailDispatchRequest{
		To:      u.Email,
		Subject: fmt.Sprintf("%s: %s", urgency, n.Title),
		HTML:    html,
	}
}
