// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the marquee content operations over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/marquee/internal/contentservice"
	"github.com/starford/marquee/internal/images"
	"github.com/starford/marquee/internal/models"
)

const cellFormatURI = "marquee://cell-format"

// Server wraps the MCP server with marquee tools.
type Server struct {
	mcp *server.MCPServer
	svc *contentservice.Service
}

// New creates a new MCP server with all marquee tools registered.
func New(svc *contentservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Marquee",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("fetch_cells",
		mcp.WithDescription("List every display cell, ranked by display order."),
	), s.fetchCells)

	s.mcp.AddTool(mcp.NewTool("fetch_cell",
		mcp.WithDescription("Read one display cell by ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Cell ID, e.g. cell_1700000000000")),
	), s.fetchCell)

	s.mcp.AddTool(mcp.NewTool("set_cell",
		mcp.WithDescription("Create or replace a display cell. Leave id empty to create. "+
			"Read the cell format first via the "+cellFormatURI+" resource."),
		mcp.WithString("id", mcp.Description("Existing cell ID; empty creates a new cell")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Cell title")),
		mcp.WithString("description", mcp.Description("Free text, or exactly one [image='name'] tag")),
		mcp.WithBoolean("display", mcp.Description("Show the cell on the display (default true)")),
	), s.setCell)

	s.mcp.AddTool(mcp.NewTool("delete_cell",
		mcp.WithDescription("Delete a display cell. An image owned by the cell is deleted too."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Cell ID")),
	), s.deleteCell)

	s.mcp.AddTool(mcp.NewTool("exchange_orders",
		mcp.WithDescription("Swap the display positions of two cells."),
		mcp.WithString("a", mcp.Required(), mcp.Description("First cell ID")),
		mcp.WithString("b", mcp.Required(), mcp.Description("Second cell ID")),
	), s.exchangeOrders)

	s.mcp.AddTool(mcp.NewTool("save_image",
		mcp.WithDescription("Copy an image file from this machine into the image store. "+
			"Returns the stored name and the tag to put in a cell description."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of a jpg, jpeg, png, gif, bmp or webp file")),
	), s.saveImage)

	s.mcp.AddTool(mcp.NewTool("save_image_data",
		mcp.WithDescription("Store an image passed inline as a base64 data URI."),
		mcp.WithString("data", mcp.Required(), mcp.Description("data:image/png;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Preferred file name; derived from the MIME type when empty")),
	), s.saveImageData)

	s.mcp.AddTool(mcp.NewTool("get_config",
		mcp.WithDescription("Read a config document such as styleConfig.json or mainCellConfig.json."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Document name ending in .json")),
	), s.getConfig)

	s.mcp.AddTool(mcp.NewTool("set_config",
		mcp.WithDescription("Set one key of a config document. The value is parsed as JSON "+
			"when possible (18, true, \"text\") and stored as a plain string otherwise."),
		mcp.WithString("file", mcp.Required(), mcp.Description("Document name ending in .json")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Key to set")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.setConfig)

	s.mcp.AddResource(
		mcp.NewResource(cellFormatURI, "Cell Format",
			mcp.WithResourceDescription("How cells, IDs and image tags are written."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCellFormatResource,
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

func (s *Server) fetchCells(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.FetchCells(ctx).Sorted())
}

func (s *Server) fetchCell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cell := s.svc.FetchCell(ctx, id)
	if cell == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(cell)
}

func (s *Server) setCell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cell := models.Cell{
		Title:       title,
		Description: req.GetString("description", ""),
		Display:     req.GetBool("display", true),
	}
	return resultOf(s.svc.SetCell(ctx, req.GetString("id", ""), cell))
}

func (s *Server) deleteCell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultOf(s.svc.DeleteCell(ctx, id))
}

func (s *Server) exchangeOrders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := req.RequireString("a")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := req.RequireString("b")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultOf(s.svc.ExchangeOrders(ctx, a, b))
}

func (s *Server) saveImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.SaveImage(ctx, images.PathPicker(path))
	if !res.Success {
		return mcp.NewToolResultError(fmt.Sprintf("save image failed: %v", res.Err)), nil
	}
	return imageResultText(res.Name)
}

func (s *Server) getConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.GetConfig(ctx, file))
}

func (s *Server) setConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultOf(s.svc.SetConfig(ctx, file, key, parseValue(raw)))
}

func (s *Server) readCellFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      cellFormatURI,
			MIMEType: "text/markdown",
			Text:     CellFormatContract,
		},
	}, nil
}

// parseValue reads raw as a JSON literal, falling back to the raw string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// resultOf renders a soft result; failures are flagged as tool errors but
// still carry the result body.
func resultOf(res models.Result) (*mcp.CallToolResult, error) {
	out, _ := json.Marshal(res)
	if !res.Success {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", out, res.Err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
