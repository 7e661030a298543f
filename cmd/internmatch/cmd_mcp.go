package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/your-org/internmatch/internal/mcptools"
	"github.com/your-org/internmatch/internal/recommend"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve recommendation and shortlist tools over MCP stdio",
	Long: `Runs an MCP server on stdin/stdout exposing recommend_internships,
list_sectors, list_shortlist, remove_shortlisted, apply_shortlist_batch and
update_tracker_status. Logs go to stderr.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) (err error) {
	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeAll(st); cerr != nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	rec, err := recommenderSource().Load()
	if err != nil {
		return err
	}

	s := mcptools.NewServer(mcptools.Deps{
		Store:           st,
		Recommenders:    recommend.NewHolder(rec),
		BaseDir:         cfg.Root(),
		ApplicationsDir: cfg.ApplicationsDir(),
		Logger:          logger.Named("mcp"),
	}, version)

	if err := mcptools.ServeStdio(s); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
