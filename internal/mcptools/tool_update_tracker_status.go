package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/your-org/internmatch/internal/tracker"
)

// DefaultTrackerStatus is applied when update_tracker_status gets no status.
const DefaultTrackerStatus = "Interview"

func (t *tools) registerUpdateTrackerStatus(s *server.MCPServer) {
	tool := mcp.NewTool("update_tracker_status",
		mcp.WithDescription("Update tracker frontmatter status (default: "+DefaultTrackerStatus+")"),
	)
	tool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"tracker_path": map[string]interface{}{"type": "string", "description": "Path to tracker markdown file"},
			"status":       map[string]interface{}{"type": "string", "description": "New status value (default: " + DefaultTrackerStatus + ")"},
			"dry_run":      map[string]interface{}{"type": "boolean", "description": "If true, do not write file"},
		},
		Required: []string{"tracker_path"},
	}
	s.AddTool(tool, t.updateTrackerStatus)
}

func (t *tools) updateTrackerStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	trackerPath, _ := args["tracker_path"].(string)
	if strings.TrimSpace(trackerPath) == "" {
		return mcp.NewToolResultError("tracker_path is required"), nil
	}
	status := DefaultTrackerStatus
	if v, ok := args["status"].(string); ok && strings.TrimSpace(v) != "" {
		status = strings.TrimSpace(v)
	}
	dryRun := false
	if v, ok := args["dry_run"].(bool); ok {
		dryRun = v
	}

	path := t.resolvePath(strings.TrimSpace(trackerPath))
	if err := tracker.UpdateStatus(path, status, dryRun); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("update_tracker_status failed: %v", err)), nil
	}
	if dryRun {
		return mcp.NewToolResultText(fmt.Sprintf("Dry run: would update status to %q in %s", status, path)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated status to %q in %s", status, path)), nil
}
