package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docversions/internal/logfields"
	"git.home.luguber.info/inful/docversions/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags `embed:""`

	Debounce time.Duration `help:"Quiet period before a rebuild (overrides watch.debounce)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	s, err := newSession(cfg, &w.BuildFlags)
	if err != nil {
		return err
	}
	if w.Debounce > 0 {
		cfg.Watch.Debounce = w.Debounce
	}

	ctx := g.ctx()
	if _, err := s.run(ctx, !w.SkipInstall); err != nil {
		if ctx.Err() != nil {
			return err
		}
		slog.Error("Initial build failed; waiting for changes", logfields.Error(err))
	}

	watcher := watch.New(s.watchPaths(), s.ignoredPaths(), cfg.Watch.Debounce)
	return watcher.Run(ctx, func(ctx context.Context) error {
		slog.Info("Rebuilding after changes", logfields.Versions(s.versions))
		_, err := s.run(ctx, false)
		return err
	})
}

func (s *session) watchPaths() []string {
	paths := make([]string, 0, len(s.cfg.Watch.Paths))
	for _, p := range s.cfg.Watch.Paths {
		paths = append(paths, s.orch.Path(p))
	}
	return paths
}

// ignoredPaths are written by every run and must not trigger another one.
func (s *session) ignoredPaths() []string {
	ignored := []string{
		s.orch.Path(s.cfg.Output.Directory),
		s.orch.Path(s.cfg.Output.Staging),
		s.orch.Path(s.cfg.Output.Runs),
		s.orch.Path(s.cfg.Files.Redirects),
		s.orch.Path(s.cfg.Files.SiteConfig),
	}
	if s.cfg.Metrics.Textfile != "" {
		ignored = append(ignored, s.orch.Path(s.cfg.Metrics.Textfile))
	}
	return ignored
}
