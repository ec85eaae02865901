package user

import "context"

type Repo interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// ListByIDs returns the users whose ids are in the set; ids without a
	// matching row are silently absent from the result.
	ListByIDs(ctx context.Context, ids []int64) ([]*User, error)
}
