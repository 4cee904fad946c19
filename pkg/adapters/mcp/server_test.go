package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/session"
)

func newTestServer() *Server {
	return NewServer(session.NewManager(memory.NewStore()), nil)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestHandleRender(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	resp, err := s.handleRender(ctx, mcp.CallToolRequest{}, renderArgs{
		SessionID: "s1",
		Document:  "{type: ul, children: [{type: li, key: a, children: [A]}]}",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.Revision)
	assert.Equal(t, "<ul><li>A</li></ul>", resp.HTML)
	require.Len(t, resp.Mutations, 1)
	assert.Equal(t, domain.OpAppend, resp.Mutations[0].Op)

	resp, err = s.handleRender(ctx, mcp.CallToolRequest{}, renderArgs{
		SessionID: "s1",
		Document:  `{"type":"ul","children":[{"type":"li","key":"a","children":["A"]}]}`,
		Format:    "json",
	})
	require.NoError(t, err)
	assert.True(t, resp.Skipped)
	assert.Empty(t, resp.Mutations)
	assert.NotNil(t, resp.Mutations)
}

func TestHandleRender_Errors(t *testing.T) {
	s := newTestServer()

	_, err := s.handleRender(context.Background(), mcp.CallToolRequest{}, renderArgs{Document: "text: x"})
	assert.ErrorContains(t, err, "session_id is required")

	_, err = s.handleRender(context.Background(), mcp.CallToolRequest{}, renderArgs{SessionID: "x", Document: "type: ["})
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestHandleGetAndDelete(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	_, err := s.handleRender(ctx, mcp.CallToolRequest{}, renderArgs{SessionID: "s1", Document: "{type: p, text: hi}"})
	require.NoError(t, err)

	res, err := s.handleGet(ctx, callRequest(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"html":"<p>hi</p>"`)

	res, err = s.handleDelete(ctx, callRequest(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.Equal(t, "deleted s1", resultText(t, res))

	res, err = s.handleGet(ctx, callRequest(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "snapshot not found")
}
