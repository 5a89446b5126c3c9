// Package origin tracks where the current unit of work came from.
//
// A unit of work is one inbound HTTP request, one CLI command or one pull
// from the remote system. Two values travel with it in its context.Context:
//
//   - Marker: absent for locally initiated work, Remote for work replayed
//     because it originated in the remote ERP. The mutation hook reads it
//     and refuses to push remote-originated changes back, which is what
//     breaks sync loops.
//   - Unit ID: a UUIDv7 token used to correlate log lines of one unit.
//
// Both are context values, so concurrent units never observe each other's
// state and nothing has to be cleared by hand: a context derived inside
// WithOrigin is dropped when the body returns.
package origin
