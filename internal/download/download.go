// Package download stores resolved media on disk. Re-running a download
// for files that already exist performs no network requests; partial files
// are never left at a final path.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
	"linkgrab/internal/provider"
)

// imageLimit caps a single image body.
const imageLimit = 64 * 1024 * 1024

var errWrongKind = errors.New("result kind does not match download type")

// Converter normalizes downloaded image bytes.
type Converter interface {
	Convert(data []byte) ([]byte, error)
}

// Options configures a Manager.
type Options struct {
	Fetcher   httputil.Fetcher
	Converter Converter
	Registry  *Registry
	Listener  Listener
	Logger    *zap.SugaredLogger

	// TitleFileNames names video files after the title instead of the
	// fixed per-platform name.
	TitleFileNames bool
}

// Manager downloads results and reports their progress as events.
// Its methods may be called from several goroutines at once.
type Manager struct {
	fetcher   httputil.Fetcher
	converter Converter
	registry  *Registry
	listener  Listener
	log       *zap.SugaredLogger

	titleNames bool
	imageLimit int64
}

// NewManager creates a Manager. A nil Registry, Listener or Logger is replaced
// with a fresh registry, Discard, and the global logger.
func NewManager(o Options) *Manager {
	m := &Manager{
		fetcher:   o.Fetcher,
		converter: o.Converter,
		registry:  o.Registry,
		listener:  o.Listener,
		log:       o.Logger,

		titleNames: o.TitleFileNames,
		imageLimit: imageLimit,
	}
	if m.registry == nil {
		m.registry = NewRegistry()
	}
	if m.listener == nil {
		m.listener = Discard
	}
	if m.log == nil {
		m.log = zap.S().Named("download")
	}
	return m
}

// Registry returns the registry the manager updates.
func (m *Manager) Registry() *Registry { return m.registry }

// emit records the event before listeners see it, so a listener reading the
// registry observes the new state.
func (m *Manager) emit(e Event) {
	m.registry.Apply(e)
	m.listener.Notify(e)
}

// Outcome describes a finished single-file download.
type Outcome struct {
	ID        string
	Path      string
	TargetDir string
	// Existed is set when the file was already present and nothing was fetched.
	Existed bool
}

// DownloadVideo stores a video result as <root>/[tag]<short title>/[tag]视频文件.mp4.
func (m *Manager) DownloadVideo(ctx context.Context, res *media.Result, root string) (*Outcome, error) {
	if res.Kind != media.Video {
		return nil, fmt.Errorf("%w: %s is not a video", errWrongKind, res.Title)
	}

	tag := platformTag(res, res.VideoURL)
	dir, err := targetDir(root, tag, res.Title)
	if err != nil {
		return nil, err
	}
	name := VideoFileName(tag)
	if m.titleNames {
		name = SafeFileName(res.Title, dir, ".mp4")
	}
	path, err := httputil.SafeDownloadPath(dir, name)
	if err != nil {
		return nil, fmt.Errorf("invalid output path: %w", err)
	}

	out := &Outcome{ID: res.VideoURL, Path: path, TargetDir: dir}
	if exists(path) {
		m.log.Infow("already downloaded", "path", path)
		out.Existed = true
		m.emit(Completed{ID: out.ID, FilePath: path, TargetDir: dir, Existed: true})
		return out, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, m.fail(out.ID, fmt.Errorf("creating output directory: %w", err))
	}
	m.emit(Started{ID: out.ID, Title: res.Title, FilePath: path, TargetDir: dir})
	m.log.Infow("downloading video", "url", res.VideoURL, "path", path)

	header := http.Header{}
	header.Set("User-Agent", httputil.MobileUA)
	if ref := provider.RefererFor(res.VideoURL); ref != "" {
		header.Set("Referer", ref)
	}

	last := -1
	err = writeAtomic(ctx, path, func(w io.Writer) error {
		resp, err := m.fetcher.Fetch(ctx, &httputil.Request{
			URL:    res.VideoURL,
			Header: header,
			Sink:   w,
			OnProgress: func(received, total int64) {
				if total <= 0 {
					return
				}
				pct := int(received * 100 / total)
				if pct <= last {
					return
				}
				last = pct
				m.emit(Progress{ID: out.ID, Received: received, Total: total, Percent: pct})
			},
		})
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, res.VideoURL)
		}
		return nil
	})
	if err != nil {
		return nil, m.fail(out.ID, err)
	}

	m.emit(Completed{ID: out.ID, FilePath: path, TargetDir: dir})
	m.log.Infow("download complete", "path", path)
	return out, nil
}

func (m *Manager) fail(id string, err error) error {
	m.log.Errorw("download failed", "id", id, "error", err)
	m.emit(Failed{ID: id, Err: err})
	return err
}

// Report summarizes a Dispatch call; exactly one of Single and Batch is set.
type Report struct {
	Single *Outcome
	Batch  *BatchResult
}

// TargetDir returns the directory the files went to.
func (r *Report) TargetDir() string {
	if r.Batch != nil {
		return r.Batch.TargetDir
	}
	return r.Single.TargetDir
}

// Dispatch downloads res as a single video or an image batch according to its kind.
func (m *Manager) Dispatch(ctx context.Context, res *media.Result, root string) (*Report, error) {
	if res.Kind == media.ImageSet {
		b, err := m.DownloadImages(ctx, res, root)
		if err != nil {
			return nil, err
		}
		return &Report{Batch: b}, nil
	}
	o, err := m.DownloadVideo(ctx, res, root)
	if err != nil {
		return nil, err
	}
	return &Report{Single: o}, nil
}

func newBatchID() string {
	return "batch_" + uuid.NewString()
}

// platformTag prefers the tag the extractor set and falls back to the URL's domain.
func platformTag(res *media.Result, url string) string {
	if res.Platform != "" && res.Platform != media.TagUnknown {
		return res.Platform
	}
	return provider.Classify(url).Tag()
}

func targetDir(root, tag, title string) (string, error) {
	if root == "" {
		return "", errors.New("download directory is not set")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving download directory: %w", err)
	}
	dir, err := httputil.SafeDownloadPath(absRoot, FolderName(tag, title))
	if err != nil {
		return "", fmt.Errorf("invalid target directory: %w", err)
	}
	return dir, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeAtomic fills a temp file in the destination directory and renames it
// into place, so a failed or cancelled write never leaves a file at path.
func writeAtomic(ctx context.Context, path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".partial-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

func writeFileAtomic(ctx context.Context, path string, data []byte) error {
	return writeAtomic(ctx, path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
