// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes ebi tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ebi/internal/query"
	"github.com/starford/ebi/internal/tagservice"
)

const grammarURI = "ebi://query-grammar"

// Server wraps the MCP server with ebi tools.
type Server struct {
	mcp *server.MCPServer
	svc *tagservice.Service
}

// New creates a new MCP server with all ebi tools registered.
func New(svc *tagservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"ebi",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	orderOpts := []mcp.ToolOption{
		mcp.WithString("order", mcp.Description("Ordering key"),
			mcp.Enum("name", "size", "modified", "created", "accessed", "unordered")),
		mcp.WithBoolean("desc", mcp.Description("Sort descending")),
		mcp.WithBoolean("dedup", mcp.Description("Keep one file per ordering key")),
	}

	s.mcp.AddTool(mcp.NewTool("query_files", append([]mcp.ToolOption{
		mcp.WithDescription("Find files with a boolean tag query such as " +
			`"a" AND NOT "b". Read the ebi://query-grammar resource for the syntax.`),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query expression")),
	}, orderOpts...)...), s.queryFiles)

	s.mcp.AddTool(mcp.NewTool("retrieve_tag", append([]mcp.ToolOption{
		mcp.WithDescription("List every file carrying a tag, directly or through a directory tag."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	}, orderOpts...)...), s.retrieveTag)

	s.mcp.AddTool(mcp.NewTool("attach_tag",
		mcp.WithDescription("Tag a single file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path, absolute or relative to the shelf root")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	), s.attachTag)

	s.mcp.AddTool(mcp.NewTool("detach_tag",
		mcp.WithDescription("Remove a tag from a file. Without a path, removes it from every file."),
		mcp.WithString("path", mcp.Description("File path; empty for every file")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	), s.detachTag)

	s.mcp.AddTool(mcp.NewTool("attach_dir_tag",
		mcp.WithDescription("Declare a directory tag: every file below the directory carries it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Directory path")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	), s.attachDirTag)

	s.mcp.AddTool(mcp.NewTool("detach_dir_tag",
		mcp.WithDescription("Withdraw a directory tag. Without a path, withdraws every declaration."),
		mcp.WithString("path", mcp.Description("Directory path; empty for every directory")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name")),
	), s.detachDirTag)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag in priority order."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("create_tag",
		mcp.WithDescription("Create a tag."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name")),
		mcp.WithNumber("priority", mcp.Description("Ordering priority, lower first")),
		mcp.WithString("parent", mcp.Description("Optional parent tag name")),
	), s.createTag)

	// Resource: query grammar.
	s.mcp.AddResource(
		mcp.NewResource(grammarURI, "Query Grammar",
			mcp.WithResourceDescription("Syntax and semantics of ebi tag queries."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGrammarResource,
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

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func (s *Server) order(req mcp.CallToolRequest) (query.Order, error) {
	o := s.svc.DefaultOrder()
	if v := optionalString(req, "order"); v != "" {
		k, err := query.ParseKey(v)
		if err != nil {
			return o, err
		}
		o.Key = k
	}
	if v, err := req.RequireBool("desc"); err == nil {
		o.Desc = v
	}
	if v, err := req.RequireBool("dedup"); err == nil {
		o.Dedup = v
	}
	return o, nil
}

func filesResult(items []tagservice.FileItem) *mcp.CallToolResult {
	if len(items) == 0 {
		return mcp.NewToolResultText("no files found")
	}
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n"))
}

func changeResult(changed bool, yes, no string) *mcp.CallToolResult {
	if changed {
		return mcp.NewToolResultText(yes)
	}
	return mcp.NewToolResultText(no)
}

func (s *Server) queryFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	order, err := s.order(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.Query(ctx, q, order)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return filesResult(items), nil
}

func (s *Server) retrieveTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	order, err := s.order(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.Retrieve(ctx, name, order)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return filesResult(items), nil
}

func (s *Server) attachTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := s.svc.Attach(ctx, path, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(changed,
		fmt.Sprintf("tagged %s with %q", path, name),
		fmt.Sprintf("%s already tagged with %q", path, name)), nil
}

func (s *Server) detachTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := optionalString(req, "path")
	changed, err := s.svc.Detach(ctx, path, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(changed,
		fmt.Sprintf("removed %q", name),
		fmt.Sprintf("%q was not attached", name)), nil
}

func (s *Server) attachDirTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	changed, err := s.svc.AttachDir(ctx, path, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(changed,
		fmt.Sprintf("declared %q on %s", name, path),
		fmt.Sprintf("%s already declares %q", path, name)), nil
}

func (s *Server) detachDirTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := optionalString(req, "path")
	changed, err := s.svc.DetachDir(ctx, path, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return changeResult(changed,
		fmt.Sprintf("withdrew %q", name),
		fmt.Sprintf("%q was not declared", name)), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.ListTags(ctx), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var priority uint64
	if v, err := req.RequireFloat("priority"); err == nil && v > 0 {
		priority = uint64(v)
	}
	t, err := s.svc.CreateTag(ctx, name, priority, optionalString(req, "parent"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (id %d)", t.Name, t.ID)), nil
}

func (s *Server) readGrammarResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      grammarURI,
			MIMEType: "text/markdown",
			Text:     QueryGrammar,
		},
	}, nil
}
