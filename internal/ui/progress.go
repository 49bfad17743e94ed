package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"linkgrab/internal/download"
)

// Progress draws one progressbar per running task from download events.
type Progress struct {
	mu   sync.Mutex
	out  io.Writer
	bars map[string]*progressbar.ProgressBar
}

// NewProgress creates a Progress writing to out, usually stderr.
func NewProgress(out io.Writer) *Progress {
	return &Progress{out: out, bars: make(map[string]*progressbar.ProgressBar)}
}

func (p *Progress) Notify(e download.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := e.(type) {
	case download.Started:
		p.bars[ev.ID] = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("视频"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
		)

	case download.Progress:
		if bar, ok := p.bars[ev.ID]; ok {
			if int64(bar.GetMax()) != ev.Total {
				bar.ChangeMax(int(ev.Total))
			}
			_ = bar.Set64(ev.Received)
		}

	case download.Completed:
		if bar, ok := p.bars[ev.ID]; ok {
			_ = bar.Finish()
			delete(p.bars, ev.ID)
		}
		if ev.Existed {
			fmt.Fprintf(p.out, "already downloaded: %s\n", ev.FilePath)
			return
		}
		fmt.Fprintf(p.out, "saved %s\n", ev.FilePath)

	case download.Failed:
		p.drop(ev.ID)
		fmt.Fprintf(p.out, "download failed: %v\n", ev.Err)

	case download.BatchStarted:
		p.bars[ev.ID] = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(ev.Title),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.out) }),
		)

	case download.BatchProgress:
		if bar, ok := p.bars[ev.ID]; ok {
			_ = bar.Set(ev.Current)
		}

	case download.BatchCompleted:
		if bar, ok := p.bars[ev.ID]; ok {
			_ = bar.Finish()
			delete(p.bars, ev.ID)
		}
		fmt.Fprintf(p.out, "saved %d, skipped %d, failed %d in %s\n",
			ev.Succeeded, ev.Skipped, ev.Failed, ev.TargetDir)

	case download.BatchFailed:
		p.drop(ev.ID)
		fmt.Fprintf(p.out, "batch failed: %v\n", ev.Err)
	}
}

func (p *Progress) drop(id string) {
	if bar, ok := p.bars[id]; ok {
		_ = bar.Clear()
		delete(p.bars, id)
	}
}

// Plain writes one line per lifecycle event, for output that is not a terminal.
type Plain struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlain creates a Plain writing to out.
func NewPlain(out io.Writer) *Plain { return &Plain{out: out} }

func (p *Plain) Notify(e download.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := e.(type) {
	case download.Started:
		fmt.Fprintf(p.out, "downloading %s\n", ev.FilePath)
	case download.Completed:
		if ev.Existed {
			fmt.Fprintf(p.out, "already downloaded: %s\n", ev.FilePath)
			return
		}
		fmt.Fprintf(p.out, "saved %s\n", ev.FilePath)
	case download.Failed:
		fmt.Fprintf(p.out, "download failed: %v\n", ev.Err)
	case download.BatchStarted:
		fmt.Fprintf(p.out, "downloading %d items to %s\n", ev.Total, ev.TargetDir)
	case download.BatchCompleted:
		fmt.Fprintf(p.out, "saved %d, skipped %d, failed %d in %s\n",
			ev.Succeeded, ev.Skipped, ev.Failed, ev.TargetDir)
	case download.BatchFailed:
		fmt.Fprintf(p.out, "batch failed: %v\n", ev.Err)
	}
}
