package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/internmatch/internal/recommend"
	"github.com/your-org/internmatch/internal/session"
	"github.com/your-org/internmatch/internal/web"
)

const sessionSweepInterval = 10 * time.Minute

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web application",
	Long: `Serves registration, login, preference search, the one-at-a-time
recommendation flow and the shortlist. The model bundle and catalog are
reloaded automatically when the files change (recommend.watch).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr from config)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeAll(st); cerr != nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	src := recommenderSource()
	rec, err := src.Load()
	if err != nil {
		return err
	}
	holder := recommend.NewHolder(rec)
	if !rec.Available() {
		logger.Warn("Recommendations unavailable until a model and catalog are in place; run \"internmatch train\"",
			zap.String("model", src.ModelPath), zap.String("catalog", src.CatalogPath))
	}

	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}
	sessions := session.NewManager(st,
		session.WithTTL(ttl),
		session.WithSecureCookies(cfg.Server.SecureCookies),
		session.WithLogger(logger.Named("session")),
	)

	srv, err := web.New(web.Options{
		Store:           st,
		Sessions:        sessions,
		Recommenders:    holder,
		ApplicationsDir: cfg.ApplicationsDir(),
		WriteTrackers:   cfg.Applications.WriteTrackers,
		Logger:          logger.Named("web"),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return web.ListenAndServe(gctx, addr, srv, logger)
	})
	g.Go(func() error {
		return sessions.RunJanitor(gctx, sessionSweepInterval)
	})
	if cfg.Recommend.Watch {
		w := recommend.NewWatcher(holder, src, logger.Named("watcher"))
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
