package license

import "time"

// License is the aggregate root as seen by the notifier: everything else
// about it (vendor, cost, documents) belongs to the dashboard and never
// reaches this service.
type License struct {
	ID         int64  `json:"id"`
	Item       string `json:"item"`
	ProjectTag string `json:"project_tag"`
	CreatedBy  int64  `json:"created_by"`
}

// SerialRecord is one purchasable unit under a license, joined with the
// owning license's item description and project-assignment tag. The scan
// treats it as read-only.
type SerialRecord struct {
	ID               int64      `json:"id"`
	LicenseID        int64      `json:"license_id"`
	Label            string     `json:"label"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	NotifyBeforeDays *int       `json:"notify_before_days"`

	Item       string `json:"item"`
	ProjectTag string `json:"project_tag"`
}
