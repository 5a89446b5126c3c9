package syncer

import (
	"context"

	"github.com/roach88/stapsync/internal/odoo"
)

// Remote is the subset of the remote client used by Hook and Puller.
// *odoo.Client satisfies it.
type Remote interface {
	Create(ctx context.Context, model string, fields map[string]any) (int64, error)
	Write(ctx context.Context, model string, id int64, fields map[string]any) error
	Unlink(ctx context.Context, model string, id int64) error
	Search(ctx context.Context, model string, opts odoo.SearchOptions) ([]odoo.Record, error)
}

// Dialer opens an authenticated remote connection for one unit of work.
type Dialer func(ctx context.Context) (Remote, error)

// DialOdoo returns a Dialer that authenticates a new odoo session with
// cfg on every call.
func DialOdoo(cfg odoo.Config) Dialer {
	return func(ctx context.Context) (Remote, error) {
		client, err := odoo.Dial(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
