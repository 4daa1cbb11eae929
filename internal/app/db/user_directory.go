package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"campushub/internal/app/user"
)

const lookupUsers = `
SELECT id, name, avatar
FROM users
WHERE id = ANY($1)`

// UserDirectory reads display identities from the users table maintained by the
// authentication service.
type UserDirectory struct {
	q Querier
}

var _ user.Directory = (*UserDirectory)(nil)

// NewUserDirectory creates a UserDirectory over q.
func NewUserDirectory(q Querier) *UserDirectory {
	return &UserDirectory{q: q}
}

// Lookup implements user.Directory.
func (d *UserDirectory) Lookup(ctx context.Context, ids ...string) (map[string]user.User, error) {
	found := make(map[string]user.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := d.q.Query(ctx, lookupUsers, ids)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (user.User, error) {
		var u user.User
		err := row.Scan(&u.ID, &u.Name, &u.Avatar)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}

	for _, u := range users {
		found[u.ID] = u
	}
	return found, nil
}
