package odoo

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func assertEnvelopeGolden(t *testing.T, name string, req Request) {
	t.Helper()
	out, err := json.MarshalIndent(req, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, out)
}

func TestEnvelope_Golden(t *testing.T) {
	args, kwargs := SearchOptions{}.args()

	tests := []struct {
		name string
		req  Request
	}{
		{"authenticate", NewAuthRequest("integration_test4", "admin", "admin")},
		{"create", NewCall([]any{map[string]any{"name": "Widget"}}, nil)},
		{"write", NewCall(map[string]any{"name": "Widget2"}, nil)},
		{"unlink", NewCall(nil, nil)},
		{"search_defaults", NewCall(args, kwargs)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEnvelopeGolden(t, tt.name, tt.req)
		})
	}
}
