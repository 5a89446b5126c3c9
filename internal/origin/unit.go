package origin

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// UnitGenerator produces unit-of-work tokens.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type UnitGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 tokens, so units sort by
// creation time in logs.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tokens in order.
// Panics once all tokens have been consumed.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

type unitKey struct{}

// WithUnit returns a child context carrying the unit-of-work id.
func WithUnit(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, unitKey{}, id)
}

// Unit returns the unit-of-work id attached to ctx, or "".
func Unit(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(unitKey{}).(string)
	return id
}

// EnsureUnit attaches a fresh id from gen unless ctx already has one.
func EnsureUnit(ctx context.Context, gen UnitGenerator) context.Context {
	if Unit(ctx) != "" {
		return ctx
	}
	return WithUnit(ctx, gen.Generate())
}
