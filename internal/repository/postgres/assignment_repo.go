package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/licenzohq/expiry-notifier/internal/domain/assignment"
)

var _ assignment.Repo = (*AssignmentRepo)(nil)

type AssignmentRepo struct {
	db *DB
}

func NewAssignmentRepo(db *DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

func (r *AssignmentRepo) UsersForTag(ctx context.Context, tag string) ([]int64, error) {
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("user_id").
		From("project_assignments").
		Where(sq.Eq{"project_tag": tag}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assignments query: %w", err)
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
