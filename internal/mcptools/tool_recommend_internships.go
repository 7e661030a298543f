package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/your-org/internmatch/internal/recommend"
)

func (t *tools) registerRecommendInternships(s *server.MCPServer) {
	tool := mcp.NewTool("recommend_internships",
		mcp.WithDescription("Predict a sector from free-text preferences and return a shuffled batch of internships from it"),
	)
	tool.InputSchema = mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"education":         map[string]interface{}{"type": "string", "description": "Education level (School, College, Post Graduation)"},
			"skills":            map[string]interface{}{"type": "string", "description": "Comma separated skills"},
			"sector_interest":   map[string]interface{}{"type": "string", "description": "Preferred sector (optional)"},
			"location_interest": map[string]interface{}{"type": "string", "description": "Preferred location (optional)"},
			"limit":             map[string]interface{}{"type": "integer", "description": "Max internships to return (default: 5)"},
		},
	}
	s.AddTool(tool, t.recommendInternships)
}

func (t *tools) recommendInternships(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	var prefs recommend.Preferences
	prefs.Education, _ = args["education"].(string)
	prefs.Skills, _ = args["skills"].(string)
	prefs.Sector, _ = args["sector_interest"].(string)
	prefs.Location, _ = args["location_interest"].(string)
	limit := 0
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	res, err := t.Recommenders.Load().RecommendN(ctx, prefs, limit)
	if errors.Is(err, recommend.ErrUnavailable) {
		return mcp.NewToolResultError("Model or data not loaded. Cannot make recommendations."), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("recommend_internships failed: %v", err)), nil
	}
	return jsonResult(res)
}
