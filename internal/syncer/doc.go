// Package syncer propagates local entity mutations to the remote ERP and
// imports remote records into the local store.
//
// Hook is registered on a store.Store and runs after every committed
// mutation. It dials a fresh remote session per invocation and mirrors
// the mutation:
//
//	create                   -> remote create, remote id recorded locally
//	update with remote id    -> remote write
//	update without remote id -> remote create (self-healing)
//	delete with remote id    -> remote unlink
//	delete without remote id -> no-op
//
// Mutations made while the context carries the remote origin marker are
// skipped, so records replayed from the remote never echo back to it.
// Remote failures are reported as a StatusDiverged Outcome and logged;
// they never undo the local commit.
//
// Puller runs the opposite direction: it pages through a remote search
// and upserts every record by remote id under the remote origin marker.
package syncer
