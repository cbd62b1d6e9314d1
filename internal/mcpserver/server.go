// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the directory to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/torlist/internal/admission"
	"github.com/starford/torlist/internal/apperr"
	"github.com/starford/torlist/internal/denylist"
	"github.com/starford/torlist/internal/directory"
	"github.com/starford/torlist/internal/models"
)

const guideURI = "torlist://submission-guide"

// Server wraps the MCP server with torlist tools.
type Server struct {
	mcp       *server.MCPServer
	admission *admission.Service
	directory *directory.Service
	denylist  *denylist.Service
}

// New creates a new MCP server with all tools registered. Denylist
// mutations are deliberately not exposed.
func New(adm *admission.Service, dir *directory.Service, deny *denylist.Service) *Server {
	s := &Server{admission: adm, directory: dir, denylist: deny}

	s.mcp = server.NewMCPServer(
		"torlist",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List every visible directory listing, oldest first."),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("list_entries_by_category",
		mcp.WithDescription("List visible listings filed under one category."),
		mcp.WithString("category", mcp.Required(), mcp.Description("One of: bch, ecommerce, info, eth, ipfs")),
	), s.listEntriesByCategory)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the categories a listing can be filed under."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("list_denylist",
		mcp.WithDescription("List moderation entries hiding listings."),
	), s.listDenylist)

	s.mcp.AddTool(mcp.NewTool("get_denylist_entry",
		mcp.WithDescription("Look up a moderation entry by listing hash or entry id."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Listing hash or entry _id")),
	), s.getDenylistEntry)

	s.mcp.AddTool(mcp.NewTool("submit_entry",
		mcp.WithDescription("Submit a signed listing. Read the submission guide first via "+
			"the get_submission_guide tool or the "+guideURI+" resource."),
		mcp.WithString("entry", mcp.Required(), mcp.Description("Site URL or onion address")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Short description")),
		mcp.WithString("slpAddress", mcp.Required(), mcp.Description("Owner BCH/SLP address")),
		mcp.WithString("signature", mcp.Required(), mcp.Description("Base64 signed message over entry")),
		mcp.WithString("category", mcp.Required(), mcp.Description("One of: bch, ecommerce, info, eth, ipfs")),
	), s.submitEntry)

	s.mcp.AddTool(mcp.NewTool("get_submission_guide",
		mcp.WithDescription("Returns the rules a listing must satisfy to be accepted."),
	), s.getSubmissionGuide)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Submission Guide",
			mcp.WithResourceDescription("How listings are signed, validated and moderated."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperr.Message(err))
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.directory.ListAll(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(entries), nil
}

func (s *Server) listEntriesByCategory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := s.directory.ListByCategory(ctx, category)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(entries), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) listDenylist(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.denylist.List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("denylist is empty"), nil
	}
	return jsonResult(entries), nil
}

func (s *Server) getDenylistEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.denylist.Resolve(ctx, key)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(entry), nil
}

func (s *Server) submitEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var c admission.Candidate
	fields := []struct {
		name string
		dst  *string
	}{
		{models.FieldEntry, &c.Entry},
		{models.FieldDescription, &c.Description},
		{models.FieldSLPAddress, &c.SLPAddress},
		{models.FieldSignature, &c.Signature},
		{models.FieldCategory, &c.Category},
	}
	for _, f := range fields {
		v, err := req.RequireString(f.name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		*f.dst = v
	}

	id, err := s.admission.Submit(ctx, c)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(map[string]string{"hash": id}), nil
}

func (s *Server) getSubmissionGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SubmissionGuide), nil
}

func (s *Server) readGuideResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     SubmissionGuide,
		},
	}, nil
}
