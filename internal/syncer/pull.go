package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/stapsync/internal/odoo"
	"github.com/roach88/stapsync/internal/origin"
	"github.com/roach88/stapsync/internal/store"
)

// Upserter reconciles remote records into local storage.
// *store.Store satisfies it.
type Upserter interface {
	UpsertRemote(ctx context.Context, remoteID int64, name string) (store.Entity, store.UpsertResult, error)
}

// DefaultMaxPages is the search request budget of one Pull.
const DefaultMaxPages = 10000

// ErrPageBudget is returned when a Pull needs more than MaxPages
// search requests.
var ErrPageBudget = errors.New("pull page budget exhausted")

// PullReport counts what one Pull did.
type PullReport struct {
	Seen      int `json:"seen" yaml:"seen"`
	Created   int `json:"created" yaml:"created"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// PullerConfig configures a Puller.
type PullerConfig struct {
	Model string
	Dial  Dialer
	Store Upserter

	// PageSize is the search limit per request. Zero uses
	// odoo.DefaultSearchLimit.
	PageSize int

	// MaxPages bounds the number of search requests. Zero uses
	// DefaultMaxPages.
	MaxPages int

	Logger *slog.Logger
	Units  origin.UnitGenerator
}

// Puller imports remote records into the local store.
type Puller struct {
	model    string
	dial     Dialer
	store    Upserter
	pageSize int
	maxPages int
	logger   *slog.Logger
	units    origin.UnitGenerator
}

// NewPuller creates a Puller from cfg.
func NewPuller(cfg PullerConfig) *Puller {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = odoo.DefaultSearchLimit
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	units := cfg.Units
	if units == nil {
		units = origin.UUIDv7Generator{}
	}
	return &Puller{
		model:    cfg.Model,
		dial:     cfg.Dial,
		store:    cfg.Store,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger,
		units:    units,
	}
}

// Pull searches every remote record of the model, page by page, and
// upserts each one locally by remote id. Local writes happen under the
// remote origin marker, so the sync hook does not echo them back.
//
// Paging stops at a short page, at a page larger than the requested
// limit (the remote ignored it), or at a page with no unseen remote ids
// (the remote ignored the offset). A record seen earlier in the same pull
// is not applied again. More than MaxPages requests is ErrPageBudget.
//
// Records without an id or with an invalid name are counted as skipped.
// Authentication, transport and storage failures abort the pull.
func (p *Puller) Pull(ctx context.Context) (PullReport, error) {
	ctx = origin.EnsureUnit(ctx, p.units)
	var report PullReport

	remote, err := p.dial(ctx)
	if err != nil {
		return report, fmt.Errorf("dial remote: %w", err)
	}

	seen := make(map[int64]bool)
	err = origin.WithOrigin(ctx, origin.Remote, func(ctx context.Context) error {
		for page, offset := 0, 0; ; page, offset = page+1, offset+p.pageSize {
			if page == p.maxPages {
				return fmt.Errorf("%w: %d searches of %s", ErrPageBudget, page, p.model)
			}

			records, err := remote.Search(ctx, p.model, odoo.SearchOptions{
				Fields: []string{"id", "name"},
				Limit:  p.pageSize,
				Offset: offset,
				Order:  "id asc",
			})
			if err != nil {
				return fmt.Errorf("search %s at offset %d: %w", p.model, offset, err)
			}

			fresh := 0
			for _, rec := range records {
				if id := rec.ID(); id != 0 {
					if seen[id] {
						continue
					}
					seen[id] = true
					fresh++
				}
				if err := p.apply(ctx, rec, &report); err != nil {
					return err
				}
			}

			switch {
			case len(records) < p.pageSize:
				return nil
			case len(records) > p.pageSize:
				p.logger.WarnContext(ctx, "remote ignored search limit; stopping",
					"unit", origin.Unit(ctx), "model", p.model, "limit", p.pageSize, "returned", len(records))
				return nil
			case fresh == 0:
				p.logger.WarnContext(ctx, "remote repeated a page; stopping",
					"unit", origin.Unit(ctx), "model", p.model, "offset", offset)
				return nil
			}
		}
	})

	p.logger.InfoContext(ctx, "pull finished",
		"unit", origin.Unit(ctx),
		"model", p.model,
		"seen", report.Seen,
		"created", report.Created,
		"updated", report.Updated,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
	)
	return report, err
}

func (p *Puller) apply(ctx context.Context, rec odoo.Record, report *PullReport) error {
	report.Seen++

	remoteID := rec.ID()
	if remoteID == 0 {
		report.Skipped++
		p.logger.WarnContext(ctx, "remote record has no id", "unit", origin.Unit(ctx), "model", p.model)
		return nil
	}

	_, result, err := p.store.UpsertRemote(ctx, remoteID, rec.String("name"))
	switch {
	case errors.Is(err, store.ErrInvalid):
		report.Skipped++
		p.logger.WarnContext(ctx, "remote record rejected locally",
			"unit", origin.Unit(ctx), "model", p.model, "remote_id", remoteID, "error", err)
		return nil
	case err != nil:
		return fmt.Errorf("upsert remote record %d: %w", remoteID, err)
	}

	switch result {
	case store.UpsertCreated:
		report.Created++
	case store.UpsertUpdated:
		report.Updated++
	default:
		report.Unchanged++
	}
	return nil
}
