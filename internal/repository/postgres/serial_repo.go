package postgres

import (
	"context"
	"fmt"

	"github.com/licenzohq/expiry-notifier/internal/domain/license"
)

var _ license.Repo = (*SerialRepo)(nil)

type SerialRepo struct {
	db *DB
}

func NewSerialRepo(db *DB) *SerialRepo { return &SerialRepo{db: db} }

// Serials without an end date cannot be evaluated for expiry and are
// filtered out here rather than in code.
const qSerialsScannable = `
SELECT s.id, s.license_id, s.label, s.start_date, s.end_date, s.notify_before_days,
       l.item, COALESCE(l.project_tag, '')
FROM license_serials s
JOIN licenses l ON l.id = s.license_id
WHERE s.end_date IS NOT NULL
ORDER BY s.end_date;
`

func (r *SerialRepo) FetchScannable(ctx context.Context) ([]*license.SerialRecord, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qSerialsScannable)
	if err != nil {
		return nil, fmt.Errorf("query serials: %w", err)
	}
	defer rows.Close()

	var out []*license.SerialRecord
	for rows.Next() {
		var s license.SerialRecord
		if err := rows.Scan(
			&s.ID,
			&s.LicenseID,
			&s.Label,
			&s.StartDate,
			&s.EndDate,
			&s.NotifyBeforeDays,
			&s.Item,
			&s.ProjectTag,
		); err != nil {
			return nil, fmt.Errorf("scan serial: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
