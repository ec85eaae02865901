package assignment

import "context"

type Repo interface {
	// UsersForTag returns the ids of every user assigned to the tag.
	// Order is not significant. An unknown tag yields an empty slice.
	UsersForTag(ctx context.Context, tag string) ([]int64, error)
}
