// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the note vault to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mirelh/laguz/internal/models"
	"github.com/mirelh/laguz/internal/noteservice"
)

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all vault tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and plaintext bodies. "+
			"Encrypted note bodies are not searchable; only their titles match."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes and folders in the current vault directory, most recently updated first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note in the current directory by id. "+
			"Encrypted notes return their sealed blob; decryption requires a password and is not exposed here."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id as shown by list_notes")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note in the current vault directory."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Display title for the note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body (HTML or plain text)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("enter_folder",
		mcp.WithDescription("Descend into a child folder of the current directory."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Folder id as shown by list_notes")),
	), s.enterFolder)

	s.mcp.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Ascend one level towards the vault root. A no-op at the root."),
	), s.goBack)

	s.mcp.AddTool(mcp.NewTool("current_path",
		mcp.WithDescription("Show the labels of the current position in the vault tree."),
	), s.currentPath)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, m := range metas {
		kind := "note"
		if m.IsFolder() {
			kind = "folder"
		}
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", m.ID, kind, m.Label))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("directory is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if note.IsEncrypted {
		return mcp.NewToolResultText(fmt.Sprintf("note %q is encrypted; content unavailable without password", note.Label)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	saved, err := s.svc.Create(ctx, models.Note{
		NoteMeta: models.NoteMeta{Label: label},
		Content:  content,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", saved.ID)), nil
}

func (s *Server) enterFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Enter(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc := s.svc.Location(ctx)
	return mcp.NewToolResultText("entered: /" + strings.Join(loc.Labels, "/")), nil
}

func (s *Server) goBack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.Back(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc := s.svc.Location(ctx)
	return mcp.NewToolResultText("now at: /" + strings.Join(loc.Labels, "/")), nil
}

func (s *Server) currentPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loc := s.svc.Location(ctx)
	return mcp.NewToolResultText("/" + strings.Join(loc.Labels, "/")), nil
}
