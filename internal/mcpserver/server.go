// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the publishing tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notepress/internal/apperr"
	"github.com/starford/notepress/internal/publishservice"
)

const (
	defaultSearchLimit = 20
	contractURI        = "notepress://note-format"
)

// Server wraps the MCP server with the publishing tools.
type Server struct {
	mcp *server.MCPServer
	svc *publishservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *publishservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notepress",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("publish_vault",
		mcp.WithDescription("Publish every configured vault folder as one batch. "+
			"Pages are rendered, the manifest is replaced and folder indexes are rebuilt. "+
			"Returns the published and skipped counts plus per-note errors."),
		mcp.WithString("session_id", mcp.Description("Optional session id; a new one is generated when empty")),
	), s.publishVault)

	s.mcp.AddTool(mcp.NewTool("get_manifest",
		mcp.WithDescription("Return the current site manifest: session, timestamps and every published page."),
	), s.getManifest)

	s.mcp.AddTool(mcp.NewTool("get_folder_index",
		mcp.WithDescription("Return the index document of one published folder (subfolders and pages)."),
		mcp.WithString("path", mcp.Description("Folder path such as /blog/travel (empty for the site root)")),
	), s.getFolderIndex)

	s.mcp.AddTool(mcp.NewTool("preview_note",
		mcp.WithDescription("Run one note through the publishing stages without saving it. "+
			"Shows its eligibility, detected assets, resolved links, route and HTML body."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault path of the note (e.g. Blog/My Note.md)")),
	), s.previewNote)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Search published pages by title, route and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the note format understood by the publisher: "+
			"frontmatter, embeds, wikilinks and publish rules."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format Contract",
			mcp.WithResourceDescription("Markdown note format understood by the publisher."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

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

func (s *Server) publishVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := ""
	if id, err := req.RequireString("session_id"); err == nil {
		sessionID = id
	}
	result, err := s.svc.Publish(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrPublishInProgress) {
			return mcp.NewToolResultError("a publish is already running, try again later"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("publish failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) getManifest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := s.svc.Manifest(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("nothing has been published yet"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(m)
}

func (s *Server) getFolderIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if p, err := req.RequireString("path"); err == nil {
		folder = p
	}
	doc, err := s.svc.Folder(ctx, folder)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("folder not found: %s", publishservice.CleanFolder(folder))), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) previewNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Preview(ctx, path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := defaultSearchLimit
	if n, err := req.RequireInt("limit"); err == nil && n > 0 {
		limit = n
	}
	results, err := s.svc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
