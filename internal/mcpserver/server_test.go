package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mirelh/laguz/internal/cryptox"
	"github.com/mirelh/laguz/internal/noteservice"
	"github.com/mirelh/laguz/internal/testutil"
	"github.com/mirelh/laguz/internal/vault"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	_, root := testutil.TestVault(t)
	db := testutil.TestDB(t)

	strategy := vault.New(root)
	if err := strategy.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	box := cryptox.New(cryptox.Params{Time: 1, MemoryK: 8 * 1024, Threads: 1}, 0)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return New(noteservice.New(strategy, db, box, root, logger))
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so the tool
	// handler functions are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "enter_folder":
		result, err = srv.enterFolder(ctx, req)
	case "go_back":
		result, err = srv.goBack(ctx, req)
	case "current_path":
		result, err = srv.currentPath(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"label":   "Test",
		"content": "<p>Hello</p>",
	})
	text := resultText(r)
	if !strings.HasPrefix(text, "created: ") {
		t.Fatalf("create result = %q", text)
	}
	id := strings.TrimPrefix(text, "created: ")

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": id})
	if got := resultText(r); got != "<p>Hello</p>" {
		t.Errorf("read result = %q", got)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestListNotes(t *testing.T) {
	srv := testServer(t)

	if got := resultText(callTool(t, srv, "list_notes", map[string]interface{}{})); got != "directory is empty" {
		t.Errorf("empty list = %q", got)
	}

	_ = callTool(t, srv, "create_note", map[string]interface{}{"label": "A", "content": "a"})
	got := resultText(callTool(t, srv, "list_notes", map[string]interface{}{}))
	if !strings.Contains(got, "A") || !strings.Contains(got, "note") {
		t.Errorf("list = %q", got)
	}
}

func TestSearchNotes(t *testing.T) {
	srv := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{
		"label": "Groceries", "content": "<p>Milk and eggs</p>",
	})

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "Milk"})
	if got := resultText(r); !strings.Contains(got, "Groceries") {
		t.Errorf("search result = %q", got)
	}
}

func TestNavigation(t *testing.T) {
	srv := testServer(t)

	folder, err := srv.svc.CreateFolder(context.Background(), "Work")
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "enter_folder", map[string]interface{}{"id": folder.ID})
	if got := resultText(r); got != "entered: /Work" {
		t.Errorf("enter = %q", got)
	}
	if got := resultText(callTool(t, srv, "current_path", nil)); got != "/Work" {
		t.Errorf("path = %q", got)
	}
	if got := resultText(callTool(t, srv, "go_back", nil)); got != "now at: /" {
		t.Errorf("back = %q", got)
	}
}
