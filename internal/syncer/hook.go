package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/stapsync/internal/origin"
	"github.com/roach88/stapsync/internal/store"
)

// Status classifies the result of one hook invocation.
type Status string

const (
	// StatusSynced means the remote now mirrors the local mutation.
	StatusSynced Status = "synced"

	// StatusSkipped means no remote call was attempted: the mutation came
	// from the remote, or syncing is disabled.
	StatusSkipped Status = "skipped"

	// StatusNoop means there was nothing to mirror (deleting an entity
	// that was never linked).
	StatusNoop Status = "noop"

	// StatusDiverged means the local commit stands but the remote call
	// failed. Local and remote state may now differ.
	StatusDiverged Status = "diverged"
)

// Outcome is the inspectable result of Hook.Sync.
type Outcome struct {
	Status   Status
	Op       store.Op
	EntityID int64
	RemoteID int64
	Err      error
}

// RemoteLinker records the remote id of a local entity without firing
// hooks. *store.Store satisfies it.
type RemoteLinker interface {
	SetRemoteID(ctx context.Context, id, remoteID int64) error
}

// HookConfig configures a Hook.
type HookConfig struct {
	// Model is the remote model mutations are mirrored to.
	Model string

	// Enabled turns remote propagation on. A disabled hook reports every
	// mutation as skipped.
	Enabled bool

	Dial   Dialer
	Links  RemoteLinker
	Logger *slog.Logger

	// Units generates unit-of-work ids for mutations whose context has
	// none. Defaults to UUIDv7.
	Units origin.UnitGenerator
}

// Hook mirrors committed store mutations to the remote.
type Hook struct {
	model   string
	enabled bool
	dial    Dialer
	links   RemoteLinker
	logger  *slog.Logger
	units   origin.UnitGenerator
}

var _ store.Hook = (*Hook)(nil)

// NewHook creates a Hook from cfg.
func NewHook(cfg HookConfig) *Hook {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	units := cfg.Units
	if units == nil {
		units = origin.UUIDv7Generator{}
	}
	return &Hook{
		model:   cfg.Model,
		enabled: cfg.Enabled,
		dial:    cfg.Dial,
		links:   cfg.Links,
		logger:  logger,
		units:   units,
	}
}

// AfterCommit implements store.Hook. It runs Sync and logs the outcome.
func (h *Hook) AfterCommit(ctx context.Context, ev store.Event) {
	ctx = origin.EnsureUnit(ctx, h.units)
	out := h.Sync(ctx, ev)

	attrs := []any{
		"unit", origin.Unit(ctx),
		"entity_id", out.EntityID,
		"model", h.model,
		"op", string(out.Op),
		"status", string(out.Status),
	}
	if out.RemoteID != 0 {
		attrs = append(attrs, "remote_id", out.RemoteID)
	}

	switch out.Status {
	case StatusDiverged:
		h.logger.WarnContext(ctx, "remote sync failed; local commit kept", append(attrs, "error", out.Err)...)
	case StatusSynced:
		h.logger.InfoContext(ctx, "entity synced", attrs...)
	default:
		h.logger.DebugContext(ctx, "entity not synced", attrs...)
	}
}

// Sync mirrors ev to the remote and reports what happened. It never
// returns remote failures as errors; they surface as StatusDiverged.
func (h *Hook) Sync(ctx context.Context, ev store.Event) Outcome {
	out := Outcome{Op: ev.Op, EntityID: ev.Entity.ID}
	if ev.Entity.RemoteID != nil {
		out.RemoteID = *ev.Entity.RemoteID
	}

	if !h.enabled || origin.IsRemote(ctx) {
		out.Status = StatusSkipped
		return out
	}
	if ev.Op == store.OpDelete && !ev.Entity.HasRemote() {
		out.Status = StatusNoop
		return out
	}

	remote, err := h.dial(ctx)
	if err != nil {
		return diverged(out, fmt.Errorf("dial remote: %w", err))
	}

	switch ev.Op {
	case store.OpCreate, store.OpUpdate:
		if !ev.Entity.HasRemote() {
			return h.create(ctx, remote, ev.Entity, out)
		}
		if err := remote.Write(ctx, h.model, *ev.Entity.RemoteID, ev.Entity.Fields()); err != nil {
			return diverged(out, err)
		}
	case store.OpDelete:
		if err := remote.Unlink(ctx, h.model, *ev.Entity.RemoteID); err != nil {
			return diverged(out, err)
		}
	default:
		return diverged(out, fmt.Errorf("unknown operation %q", ev.Op))
	}

	out.Status = StatusSynced
	return out
}

// create issues a remote create and links the returned id locally.
func (h *Hook) create(ctx context.Context, remote Remote, e store.Entity, out Outcome) Outcome {
	remoteID, err := remote.Create(ctx, h.model, e.Fields())
	if err != nil {
		return diverged(out, err)
	}
	out.RemoteID = remoteID

	if err := h.links.SetRemoteID(ctx, e.ID, remoteID); err != nil {
		return diverged(out, fmt.Errorf("record remote id %d: %w", remoteID, err))
	}

	out.Status = StatusSynced
	return out
}

func diverged(out Outcome, err error) Outcome {
	out.Status = StatusDiverged
	out.Err = err
	return out
}
