package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

const selectEntity = `SELECT id, name, remote_id, created_at, updated_at FROM stap_models`

// ListOptions filters and pages List results.
type ListOptions struct {
	// Search matches names containing the substring (case-insensitive
	// for ASCII, per SQLite LIKE).
	Search string
	// Limit caps the result count. Zero means no limit.
	Limit  int
	Offset int
}

// Get returns the entity with the given local id.
func (s *Store) Get(ctx context.Context, id int64) (Entity, error) {
	e, err := scanEntity(s.db.QueryRowContext(ctx, selectEntity+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entity{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return Entity{}, fmt.Errorf("query entity %d: %w", id, err)
	}
	return e, nil
}

// GetByRemoteID returns the entity linked to the given remote id.
func (s *Store) GetByRemoteID(ctx context.Context, remoteID int64) (Entity, error) {
	e, err := scanEntity(s.db.QueryRowContext(ctx, selectEntity+` WHERE remote_id = ?`, remoteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entity{}, fmt.Errorf("%w: remote id %d", ErrNotFound, remoteID)
		}
		return Entity{}, fmt.Errorf("query entity by remote id %d: %w", remoteID, err)
	}
	return e, nil
}

// List returns entities ordered by local id.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entity, error) {
	query := selectEntity
	var args []any
	if opts.Search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(norm.NFC.String(opts.Search))+"%")
	}
	query += ` ORDER BY id ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return entities, nil
}

// Count returns the number of stored entities.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stap_models`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (Entity, error) {
	var (
		e                Entity
		remoteID         sql.NullInt64
		created, updated string
	)
	if err := row.Scan(&e.ID, &e.Name, &remoteID, &created, &updated); err != nil {
		return Entity{}, err
	}
	if remoteID.Valid {
		id := remoteID.Int64
		e.RemoteID = &id
	}

	var err error
	if e.CreatedAt, err = parseTime(created); err != nil {
		return Entity{}, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return Entity{}, err
	}
	return e, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
