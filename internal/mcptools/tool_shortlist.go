package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type shortlistEntry struct {
	ID           int64  `json:"id"`
	InternshipID string `json:"internship_id,omitempty"`
	Title        string `json:"title"`
	Company      string `json:"company,omitempty"`
	Sector       string `json:"sector,omitempty"`
	Location     string `json:"location,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Stipend      string `json:"stipend,omitempty"`
	SavedAt      string `json:"saved_at"`
}

func (t *tools) registerListShortlist(s *server.MCPServer) {
	tool := mcp.NewTool("list_shortlist",
		mcp.WithDescription("List the internships a user has saved"),
	)
	tool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"username": map[string]interface{}{"type": "string", "description": "Account name"},
		},
		Required: []string{"username"},
	}
	s.AddTool(tool, t.listShortlist)
}

func (t *tools) listShortlist(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	user, errResult := t.lookupUser(ctx, args)
	if errResult != nil {
		return errResult, nil
	}
	items, err := t.Store.ListShortlisted(ctx, user.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list shortlist: %v", err)), nil
	}
	out := make([]shortlistEntry, 0, len(items))
	for _, it := range items {
		out = append(out, shortlistEntry{
			ID:           it.ID,
			InternshipID: it.InternshipID,
			Title:        it.Title,
			Company:      it.Company,
			Sector:       it.Sector,
			Location:     it.Location,
			Duration:     it.Duration,
			Stipend:      it.Stipend,
			SavedAt:      it.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return jsonResult(out)
}

func (t *tools) registerRemoveShortlisted(s *server.MCPServer) {
	tool := mcp.NewTool("remove_shortlisted",
		mcp.WithDescription("Remove one saved internship from a user's shortlist"),
	)
	tool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"username": map[string]interface{}{"type": "string", "description": "Account name"},
			"id":       map[string]interface{}{"type": "integer", "description": "Shortlist entry id (see list_shortlist)"},
		},
		Required: []string{"username", "id"},
	}
	s.AddTool(tool, t.removeShortlisted)
}

func (t *tools) removeShortlisted(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	user, errResult := t.lookupUser(ctx, args)
	if errResult != nil {
		return errResult, nil
	}
	v, ok := args["id"].(float64)
	if !ok || v <= 0 {
		return mcp.NewToolResultError("id is required"), nil
	}
	id := int64(v)

	removed, err := t.Store.RemoveShortlisted(ctx, user.ID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("remove_shortlisted failed: %v", err)), nil
	}
	if !removed {
		return mcp.NewToolResultText(fmt.Sprintf("No shortlist entry %d for %s.", id, user.Username)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed shortlist entry %d for %s.", id, user.Username)), nil
}
