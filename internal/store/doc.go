// Package store provides SQLite-backed storage for tracked entities.
//
// A tracked entity is a local record mirrored to the remote ERP. The local
// primary key is owned here; remote_id links the row to its remote record
// and is UNIQUE when present, so one remote record never maps onto two
// local rows.
//
// # Hooks
//
// The store runs every registered Hook after its own commit, passing the
// entity and the operation kind (create, update or delete). Hooks cannot
// fail the mutation: the local write is already durable when they run.
// SetRemoteID is the one write that does not fire hooks; it is how a hook
// records the id returned by the remote create.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Names are NFC normalized on write so visually identical names compare
// equal locally and on the remote side.
package store
