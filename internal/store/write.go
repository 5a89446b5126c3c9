package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UpsertResult reports what UpsertRemote did.
type UpsertResult string

const (
	UpsertCreated   UpsertResult = "created"
	UpsertUpdated   UpsertResult = "updated"
	UpsertUnchanged UpsertResult = "unchanged"
)

// Create inserts a new entity and fires OpCreate hooks after commit.
// The returned entity is re-read after the hooks ran, so a remote id
// recorded by a hook is visible to the caller.
func (s *Store) Create(ctx context.Context, in NewEntity) (Entity, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return Entity{}, err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO stap_models (name, remote_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, name, nullableID(in.RemoteID), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return Entity{}, fmt.Errorf("%w: remote id %d", ErrConflict, *in.RemoteID)
		}
		return Entity{}, fmt.Errorf("insert entity: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Entity{}, fmt.Errorf("insert entity: last insert id: %w", err)
	}

	created, err := s.Get(ctx, id)
	if err != nil {
		return Entity{}, err
	}

	s.fire(ctx, Event{Op: OpCreate, Entity: created})
	return s.reload(ctx, created)
}

// Update applies p to the entity with the given id and fires OpUpdate
// hooks after commit. An empty patch still touches updated_at and fires
// hooks, matching a plain save of an unchanged record.
func (s *Store) Update(ctx context.Context, id int64, p Patch) (Entity, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Entity{}, err
	}

	name := current.Name
	if p.Name != nil {
		name, err = normalizeName(*p.Name)
		if err != nil {
			return Entity{}, err
		}
	}
	remoteID := current.RemoteID
	if p.RemoteID != nil {
		remoteID = p.RemoteID
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE stap_models SET name = ?, remote_id = ?, updated_at = ?
		WHERE id = ?
	`, name, nullableID(remoteID), s.now(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return Entity{}, fmt.Errorf("%w: remote id %d", ErrConflict, *remoteID)
		}
		return Entity{}, fmt.Errorf("update entity %d: %w", id, err)
	}
	if err := requireOneRow(res, id); err != nil {
		return Entity{}, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return Entity{}, err
	}

	s.fire(ctx, Event{Op: OpUpdate, Entity: updated})
	return s.reload(ctx, updated)
}

// Delete removes the entity and fires OpDelete hooks with the snapshot
// taken before removal. The snapshot is returned.
func (s *Store) Delete(ctx context.Context, id int64) (Entity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entity{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	snapshot, err := scanEntity(tx.QueryRowContext(ctx, selectEntity+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entity{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return Entity{}, fmt.Errorf("query entity %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM stap_models WHERE id = ?`, id); err != nil {
		return Entity{}, fmt.Errorf("delete entity %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Entity{}, fmt.Errorf("commit transaction: %w", err)
	}

	s.fire(ctx, Event{Op: OpDelete, Entity: snapshot})
	return snapshot, nil
}

// SetRemoteID links the entity to a remote record without firing hooks.
// updated_at is left unchanged. Only an unlinked entity (or one already
// linked to remoteID) is changed; an entity linked elsewhere yields
// ErrLinked and keeps its link.
func (s *Store) SetRemoteID(ctx context.Context, id, remoteID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stap_models SET remote_id = ?
		WHERE id = ? AND (remote_id IS NULL OR remote_id = ?)
	`, remoteID, id, remoteID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: remote id %d", ErrConflict, remoteID)
		}
		return fmt.Errorf("set remote id on entity %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.HasRemote() {
		return fmt.Errorf("set remote id on entity %d: no row changed", id)
	}
	return fmt.Errorf("%w: entity %d has remote id %d, not %d", ErrLinked, id, *current.RemoteID, remoteID)
}

// UpsertRemote reconciles a remote record into the local table. A missing
// local row is created, a differing name is updated, and a matching row
// is left alone. Create and Update fire hooks as usual, so callers
// importing remote data should mark the context with the remote origin.
func (s *Store) UpsertRemote(ctx context.Context, remoteID int64, name string) (Entity, UpsertResult, error) {
	normalized, err := normalizeName(name)
	if err != nil {
		return Entity{}, "", err
	}

	existing, err := s.GetByRemoteID(ctx, remoteID)
	switch {
	case errors.Is(err, ErrNotFound):
		created, err := s.Create(ctx, NewEntity{Name: normalized, RemoteID: &remoteID})
		if err != nil {
			return Entity{}, "", err
		}
		return created, UpsertCreated, nil
	case err != nil:
		return Entity{}, "", err
	}

	if existing.Name == normalized {
		return existing, UpsertUnchanged, nil
	}

	updated, err := s.Update(ctx, existing.ID, Patch{Name: &normalized})
	if err != nil {
		return Entity{}, "", err
	}
	return updated, UpsertUpdated, nil
}

// reload re-reads e after hooks ran. A hook that deleted the row leaves
// the caller with the committed version.
func (s *Store) reload(ctx context.Context, e Entity) (Entity, error) {
	fresh, err := s.Get(ctx, e.ID)
	if errors.Is(err, ErrNotFound) {
		return e, nil
	}
	return fresh, err
}

func requireOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
