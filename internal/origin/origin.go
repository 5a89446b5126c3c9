package origin

import (
	"context"
	"fmt"
)

// Marker identifies the source of a unit of work.
// The zero value means the work was initiated locally.
type Marker string

const (
	// None is the absent marker.
	None Marker = ""

	// Remote marks work that originated in the remote system.
	Remote Marker = "remote"
)

// Valid reports whether m is a known marker.
func (m Marker) Valid() bool {
	return m == None || m == Remote
}

// ParseMarker converts a header or flag value into a Marker.
// "odoo" is accepted as an alias for Remote.
func ParseMarker(s string) (Marker, error) {
	switch s {
	case "":
		return None, nil
	case string(Remote), "odoo":
		return Remote, nil
	default:
		return None, fmt.Errorf("unknown sync origin %q", s)
	}
}

type markerKey struct{}

// With returns a child context carrying m.
// Passing None yields a context that reports no origin even if ctx had one.
func With(ctx context.Context, m Marker) context.Context {
	return context.WithValue(ctx, markerKey{}, m)
}

// Current returns the marker attached to ctx, or None.
func Current(ctx context.Context) Marker {
	if ctx == nil {
		return None
	}
	if m, ok := ctx.Value(markerKey{}).(Marker); ok {
		return m
	}
	return None
}

// IsRemote reports whether ctx belongs to a remote-originated unit of work.
func IsRemote(ctx context.Context) bool {
	return Current(ctx) == Remote
}

// WithOrigin runs body with m set for its duration.
//
// The marker only exists on the context handed to body. Once body returns,
// errors or panics, the caller's ctx is unchanged and Current(ctx) reports
// whatever it reported before the call.
func WithOrigin(ctx context.Context, m Marker, body func(ctx context.Context) error) error {
	if !m.Valid() {
		return fmt.Errorf("with origin: invalid marker %q", m)
	}
	return body(With(ctx, m))
}
