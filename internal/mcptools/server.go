// Package mcptools exposes recommendations, shortlists and application
// trackers as MCP tools over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/config"
	"github.com/your-org/internmatch/internal/recommend"
	"github.com/your-org/internmatch/internal/store"
)

// ServerName is reported to MCP clients.
const ServerName = "internmatch"

// Deps are the services the tools operate on.
type Deps struct {
	Store        store.Store
	Recommenders *recommend.Holder
	// BaseDir resolves relative tracker paths.
	BaseDir         string
	ApplicationsDir string
	Logger          *zap.Logger
	Now             func() time.Time
}

type tools struct {
	Deps
}

// NewServer returns an MCP server with every tool registered.
func NewServer(deps Deps, version string) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Recommenders == nil {
		deps.Recommenders = recommend.NewHolder(nil)
	}
	t := &tools{Deps: deps}

	s := server.NewMCPServer(ServerName, version)
	t.registerRecommendInternships(s)
	t.registerListSectors(s)
	t.registerListShortlist(s)
	t.registerRemoveShortlisted(s)
	t.registerApplyShortlistBatch(s)
	t.registerUpdateTrackerStatus(s)
	return s
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// lookupUser resolves the username argument or returns a tool error result.
func (t *tools) lookupUser(ctx context.Context, args map[string]interface{}) (store.User, *mcp.CallToolResult) {
	username, _ := args["username"].(string)
	username = strings.TrimSpace(username)
	if username == "" {
		return store.User{}, mcp.NewToolResultError("username is required")
	}
	user, err := t.Store.FindUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, mcp.NewToolResultError(fmt.Sprintf("unknown user %q", username))
	}
	if err != nil {
		return store.User{}, mcp.NewToolResultError(fmt.Sprintf("Failed to look up user: %v", err))
	}
	return user, nil
}

func (t *tools) resolvePath(p string) string {
	p = config.ExpandHome(p)
	if filepath.IsAbs(p) || t.BaseDir == "" {
		return p
	}
	return filepath.Join(t.BaseDir, p)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
