package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/tracker"
)

func (t *tools) registerApplyShortlistBatch(s *server.MCPServer) {
	tool := mcp.NewTool("apply_shortlist_batch",
		mcp.WithDescription("Create an application tracker for every internship in a user's shortlist"),
	)
	tool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"username": map[string]interface{}{"type": "string", "description": "Account name"},
			"limit":    map[string]interface{}{"type": "integer", "description": "Max shortlist entries to process (default: all)"},
			"dry_run":  map[string]interface{}{"type": "boolean", "description": "If true, do not create files"},
		},
		Required: []string{"username"},
	}
	s.AddTool(tool, t.applyShortlistBatch)
}

func (t *tools) applyShortlistBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	user, errResult := t.lookupUser(ctx, args)
	if errResult != nil {
		return errResult, nil
	}
	limit := 0
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	dryRun := false
	if v, ok := args["dry_run"].(bool); ok {
		dryRun = v
	}

	items, err := t.Store.ListShortlisted(ctx, user.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list shortlist: %v", err)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No saved internships for %s.", user.Username)), nil
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	cat := t.Recommenders.Load().Catalog()
	var created, failed []string
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("apply_shortlist_batch cancelled: %v", err)), nil
		}
		if dryRun {
			created = append(created, it.Title)
			continue
		}
		app := tracker.Application{
			InternshipID: it.InternshipID,
			Applicant:    user.Username,
			Company:      it.Company,
			Position:     it.Title,
			Sector:       it.Sector,
			Location:     it.Location,
			Duration:     it.Duration,
			Stipend:      it.Stipend,
			Date:         t.Now(),
		}
		if full, ok := cat.Find(it.InternshipID); ok {
			app.Skills = full.RequiredSkills
		}
		path, err := tracker.Create(t.ApplicationsDir, app)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", it.Title, err))
			continue
		}
		t.Logger.Info("Wrote application tracker", zap.String("path", path))
		created = append(created, path)
	}

	var summary strings.Builder
	summary.WriteString(fmt.Sprintf("Processed %d saved internships for %s (dry_run=%v).\n", len(items), user.Username, dryRun))
	if len(created) > 0 {
		summary.WriteString(fmt.Sprintf("Created: %d\n", len(created)))
		for _, c := range created {
			summary.WriteString("- " + c + "\n")
		}
	}
	if len(failed) > 0 {
		summary.WriteString(fmt.Sprintf("Failed: %d\n", len(failed)))
		for _, f := range failed {
			summary.WriteString("- " + f + "\n")
		}
	}
	return mcp.NewToolResultText(summary.String()), nil
}
