package store

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength bounds Entity.Name, counted in runes.
const MaxNameLength = 255

// Entity is a locally persisted record mirrored to the remote ERP.
type Entity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RemoteID  *int64    `json:"remote_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRemote reports whether the entity is linked to a remote record.
func (e Entity) HasRemote() bool {
	return e.RemoteID != nil
}

// Fields returns the field set mirrored to the remote record.
func (e Entity) Fields() map[string]any {
	return map[string]any{"name": e.Name}
}

// Op is the kind of committed mutation passed to hooks.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one committed mutation. For OpDelete, Entity is the
// snapshot taken before the row was removed.
type Event struct {
	Op     Op
	Entity Entity
}

// Hook receives committed mutations.
type Hook interface {
	AfterCommit(ctx context.Context, ev Event)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx context.Context, ev Event)

// AfterCommit calls f(ctx, ev).
func (f HookFunc) AfterCommit(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// NewEntity holds the caller-supplied fields for Create.
type NewEntity struct {
	Name     string `json:"name"`
	RemoteID *int64 `json:"remote_id,omitempty"`
}

// Patch holds the fields to change in Update. Nil fields are left alone.
type Patch struct {
	Name     *string `json:"name,omitempty"`
	RemoteID *int64  `json:"remote_id,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.RemoteID == nil
}

// normalizeName applies NFC normalization and validates the result.
func normalizeName(name string) (string, error) {
	n := norm.NFC.String(name)
	if strings.TrimSpace(n) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if utf8.RuneCountInString(n) > MaxNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalid, MaxNameLength)
	}
	return n, nil
}
