package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	loader := dsl.New().
		AddCatalog("baseline.json", dsl.Catalog("Baseline",
			dsl.Group("ac", "Access Control",
				dsl.Control("ac-1", "Policy"),
				dsl.Control("ac-2", "Accounts"),
			),
		)).
		AddProfile("low", dsl.Profile("Low").Import("baseline.json", dsl.Include("ac-2")).Build()).
		AddProfile("loop", dsl.Profile("Loop").ImportProfile("loop").Build()).
		Build()

	r, err := espalier.New("", espalier.WithProfileLoader(loader), espalier.WithCatalogLoader(loader))
	require.NoError(t, err)
	return NewServer(r)
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestListProfiles(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleListProfiles(context.Background(), call("list_profiles", nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `["loop","low"]`, text(t, res))
}

func TestResolveProfile(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleResolve(ctx, call("resolve_profile", map[string]any{"profile_id": "low"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"id": "ac-2"`)
	assert.NotContains(t, text(t, res), `"ac-1"`)

	res, err = s.handleResolve(ctx, call("resolve_profile", map[string]any{"profile_id": "low", "format": "yaml"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "catalog:")

	res, err = s.handleResolve(ctx, call("resolve_profile", map[string]any{"profile_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "profile not found")

	res, err = s.handleResolve(ctx, call("resolve_profile", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "profile_id is required")
}

func TestValidateProfile(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleValidate(ctx, call("validate_profile", map[string]any{"profile_id": "low"}))
	require.NoError(t, err)
	var report ValidationReport
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &report))
	assert.Equal(t, ValidationReport{Profile: "low", Valid: true}, report)

	res, err = s.handleValidate(ctx, call("validate_profile", map[string]any{"profile_id": "loop"}))
	require.NoError(t, err)
	report = ValidationReport{}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &report))
	assert.False(t, report.Valid)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "loop -> loop")
}
