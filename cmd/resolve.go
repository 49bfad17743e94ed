package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"linkgrab/internal/config"
	"linkgrab/internal/download"
	"linkgrab/internal/history"
	"linkgrab/internal/httputil"
	"linkgrab/internal/imageconv"
	"linkgrab/internal/media"
	"linkgrab/internal/player"
	"linkgrab/internal/provider"
	"linkgrab/internal/ui"
)

func resolveRun(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		var err error
		text, err = ui.Input("Paste a share link")
		if err != nil {
			return err
		}
	}

	a := newApp(cfg)
	res, err := a.resolve(cmd.Context(), text)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), ui.Card(res))
	}

	var local string
	if flagDownload || cfg.AutoDownload {
		report, err := a.download(cmd.Context(), res)
		if err != nil {
			return err
		}
		if report.Single != nil {
			local = report.Single.Path
		}
	}
	if flagPlay {
		return a.play(cmd.Context(), res, local)
	}
	return nil
}

// app is the set of components one invocation works with.
type app struct {
	cfg     *config.Config
	fetcher httputil.Fetcher
	router  *provider.Router
	log     *zap.SugaredLogger
}

func newApp(c *config.Config) *app {
	f := httputil.NewFetcher(c.TimeoutDuration())
	return &app{
		cfg:     c,
		fetcher: f,
		router: provider.NewRouter(provider.Options{
			Fetcher:         f,
			Logger:          zap.S().Named("provider"),
			BilibiliQuality: c.BilibiliQuality,
		}),
		log: zap.S().Named("cli"),
	}
}

func (a *app) resolve(ctx context.Context, text string) (*media.Result, error) {
	res, err := a.router.Resolve(ctx, text)
	switch {
	case err == nil:
		return res, nil
	case httputil.IsTransport(err):
		return nil, fmt.Errorf("network error: %w", err)
	case errors.Is(err, provider.ErrNoURL):
		return nil, errors.New("no link found in the input")
	case errors.Is(err, provider.ErrUnsupportedPlatform):
		return nil, errors.New("unsupported platform; expected a Douyin, Xiaohongshu, Kuaishou or Bilibili link")
	default:
		return nil, err
	}
}

// download stores res under the configured directory and records the
// outcome in history when enabled.
func (a *app) download(ctx context.Context, res *media.Result) (*download.Report, error) {
	root, err := a.cfg.ExpandDownloadDir()
	if err != nil {
		return nil, fmt.Errorf("resolving download dir: %w", err)
	}

	var listener download.Listener = ui.NewPlain(os.Stderr)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		listener = ui.NewProgress(os.Stderr)
	}

	m := download.NewManager(download.Options{
		Fetcher:   a.fetcher,
		Converter: imageconv.JPEG{Quality: imageconv.DefaultQuality},
		Listener:  listener,
		Logger:    zap.S().Named("download"),

		TitleFileNames: a.cfg.TitleFileNames,
	})

	report, dlErr := m.Dispatch(ctx, res, root)

	if a.cfg.History {
		if err := a.record(ctx, res, report, dlErr); err != nil {
			a.log.Warnw("history not saved", "error", err)
		}
	}
	if dlErr != nil {
		return nil, dlErr
	}
	if report.Batch != nil && report.Batch.Failed > 0 {
		return report, fmt.Errorf("%d of %d images failed: %w",
			report.Batch.Failed, len(report.Batch.Items), report.Batch.Err())
	}
	return report, nil
}

// play opens the video in the configured player, preferring a downloaded
// copy at local over the remote URL.
func (a *app) play(ctx context.Context, res *media.Result, local string) error {
	if res.Kind != media.Video {
		return errors.New("only videos can be played; use --download for image sets")
	}
	t := player.Target{
		Location:  res.VideoURL,
		Title:     res.Title,
		Referer:   provider.RefererFor(res.VideoURL),
		UserAgent: httputil.MobileUA,
	}
	if local != "" {
		t.Location = local
	}

	p := player.New(a.cfg.Player)
	a.log.Debugw("playing", "player", p.Name(), "location", t.Location)
	return p.Play(ctx, t)
}

func (a *app) record(ctx context.Context, res *media.Result, report *download.Report, dlErr error) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	// context may already be cancelled; the record should still land
	ctx = context.WithoutCancel(ctx)
	return store.Save(ctx, historyEntry(res, report, dlErr))
}

func historyEntry(res *media.Result, report *download.Report, dlErr error) *history.Entry {
	e := &history.Entry{
		SourceURL: res.SourceURL,
		Title:     res.Title,
		Platform:  res.Platform,
		Kind:      res.Kind,
		Status:    history.StatusCompleted,
	}
	if report != nil {
		e.TargetDir = report.TargetDir()
		if report.Single != nil {
			e.Path = report.Single.Path
		}
		if b := report.Batch; b != nil {
			e.Succeeded, e.Skipped, e.Failed = b.Succeeded, b.Skipped, b.Failed
			if b.Failed > 0 {
				e.Status = history.StatusPartial
				e.Err = b.Err().Error()
			}
		}
	}
	if dlErr != nil {
		e.Status = history.StatusFailed
		e.Err = dlErr.Error()
	}
	return e
}
