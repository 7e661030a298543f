package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type catalogSummary struct {
	Internships int      `json:"internships"`
	Sectors     []string `json:"sectors"`
	Locations   []string `json:"locations"`
	Model       string   `json:"model,omitempty"`
}

func (t *tools) registerListSectors(s *server.MCPServer) {
	tool := mcp.NewTool("list_sectors",
		mcp.WithDescription("List the sectors and locations present in the internship catalog"),
	)
	s.AddTool(tool, t.listSectors)
}

func (t *tools) listSectors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec := t.Recommenders.Load()
	cat := rec.Catalog()
	out := catalogSummary{
		Internships: cat.Len(),
		Sectors:     cat.Sectors(),
		Locations:   cat.Locations(),
	}
	if b := rec.Bundle(); b != nil {
		out.Model = b.Name
	}
	if out.Sectors == nil {
		out.Sectors = []string{}
	}
	if out.Locations == nil {
		out.Locations = []string{}
	}
	return jsonResult(out)
}
