// Command ripplescan indexes the music library without starting playback.
// Sources come from the arguments, or from the config file when none are
// given.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/ripple/internal/config"
	"github.com/llehouerou/ripple/internal/library"
	"github.com/llehouerou/ripple/internal/logging"
	"github.com/llehouerou/ripple/internal/state"
)

var errNoSources = errors.New("no library sources given")

func main() {
	app := &cli.Command{
		Name:      "ripplescan",
		Usage:     "Index the music library",
		ArgsUsage: "[source ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "full",
				Usage: "Rescan every file, ignoring modification times",
			},
		},
		Action: scan,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		logging.New(os.Stderr, "info").Error("scan failed", "err", err)
		os.Exit(1)
	}
}

func scan(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.GetLogLevel())

	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		sources = cfg.LibrarySources
	}
	if len(sources) == 0 {
		return errNoSources
	}

	stateMgr, err := state.Open(cfg.StatePath)
	if err != nil {
		return err
	}
	defer stateMgr.Close()

	lib := library.New(stateMgr.DB(), logger)

	progress := make(chan library.ScanProgress)
	done := make(chan error, 1)
	go func() {
		if cmd.Bool("full") {
			done <- lib.FullRefresh(ctx, sources, progress)
			return
		}
		done <- lib.Refresh(ctx, sources, progress)
	}()

	for p := range progress {
		switch p.Phase {
		case "scanning":
			logger.Debug("scanning", "found", p.Current, "file", p.CurrentFile)
		case "processing":
			logger.Debug("processing", "done", p.Current, "total", p.Total, "file", p.CurrentFile)
		case "done":
			report(logger, p.Stats)
		}
	}
	if err := <-done; err != nil {
		return err
	}

	count, err := lib.TrackCount(ctx)
	if err != nil {
		return err
	}
	logger.Info("scan complete", "tracks", count)
	return nil
}

func report(logger *log.Logger, stats *library.ScanStats) {
	if stats == nil {
		return
	}
	sources := make([]string, 0, len(stats.BySource))
	for src := range stats.BySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		s := stats.BySource[src]
		logger.Info("source",
			"path", src,
			"added", len(s.Added),
			"updated", len(s.Updated),
			"removed", len(s.Removed),
		)
	}
}
