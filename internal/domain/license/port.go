package license

import "context"

type Repo interface {
	// FetchScannable returns serials with a non-null end date, joined
	// with their license's item description and project tag.
	FetchScannable(ctx context.Context) ([]*SerialRecord, error)
}
