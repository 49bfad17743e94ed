package download

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
	"linkgrab/internal/provider"
)

// ItemStatus is the outcome of one image in a batch.
type ItemStatus int

const (
	ItemDownloaded ItemStatus = iota
	ItemSkipped
	ItemFailed
)

func (s ItemStatus) String() string {
	switch s {
	case ItemDownloaded:
		return "downloaded"
	case ItemSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// ItemOutcome records what happened to one image.
type ItemOutcome struct {
	Index  int
	URL    string
	Path   string
	Status ItemStatus
	Err    error
}

// BatchResult lists per-image outcomes in image order.
type BatchResult struct {
	ID        string
	TargetDir string
	TextPath  string
	Items     []ItemOutcome

	Succeeded int
	Skipped   int
	Failed    int
}

// Err aggregates the failures of individual images, or returns nil.
func (b *BatchResult) Err() error {
	var result error
	for _, it := range b.Items {
		if it.Status == ItemFailed {
			result = multierror.Append(result, fmt.Errorf("image %d: %w", it.Index+1, it.Err))
		}
	}
	return result
}

func (b *BatchResult) record(it ItemOutcome) {
	b.Items = append(b.Items, it)
	switch it.Status {
	case ItemDownloaded:
		b.Succeeded++
	case ItemSkipped:
		b.Skipped++
	default:
		b.Failed++
	}
}

// DownloadImages stores an image set as numbered JPEGs next to a text file
// holding the title, author and body.
//
// Images are processed one at a time in order. A failed image is recorded
// and the batch moves on; the returned error is non-nil only when the batch
// could not be set up or the context was cancelled. Inspect the result's
// counts or Err for per-image failures.
func (m *Manager) DownloadImages(ctx context.Context, res *media.Result, root string) (*BatchResult, error) {
	if res.Kind != media.ImageSet || len(res.Images) == 0 {
		return nil, fmt.Errorf("%w: %s is not an image set", errWrongKind, res.Title)
	}

	id := newBatchID()
	tag := platformTag(res, res.Images[0])

	dir, err := targetDir(root, tag, res.Title)
	if err != nil {
		return nil, m.failBatch(id, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, m.failBatch(id, fmt.Errorf("creating output directory: %w", err))
	}

	textPath, err := httputil.SafeDownloadPath(dir, TextFileName(tag))
	if err != nil {
		return nil, m.failBatch(id, fmt.Errorf("invalid text path: %w", err))
	}
	if !exists(textPath) {
		if err := writeFileAtomic(ctx, textPath, []byte(textContent(res))); err != nil {
			return nil, m.failBatch(id, fmt.Errorf("writing text file: %w", err))
		}
		m.log.Infow("text saved", "path", textPath)
	}

	result := &BatchResult{ID: id, TargetDir: dir, TextPath: textPath}
	total := len(res.Images) + 1
	current := 1

	m.log.Infow("downloading images", "id", id, "count", len(res.Images), "dir", dir)
	m.emit(BatchStarted{
		ID:        id,
		Title:     ShortTitle(res.Title, TitleBudget),
		TargetDir: dir,
		Thumbnail: res.Images[0],
		Total:     total,
	})
	m.emit(BatchProgress{ID: id, Current: current, Total: total, Message: "text saved"})

	for i, u := range res.Images {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(res.Images); j++ {
				result.record(ItemOutcome{Index: j, URL: res.Images[j], Status: ItemFailed, Err: err})
			}
			return result, m.failBatch(id, err)
		}

		it := m.downloadImage(ctx, dir, i, u)
		result.record(it)
		current++

		msg := fmt.Sprintf("image %d/%d %s", i+1, len(res.Images), it.Status)
		if it.Status == ItemFailed {
			m.log.Warnw("image failed", "id", id, "index", i+1, "url", u, "error", it.Err)
		}
		m.emit(BatchProgress{ID: id, Current: current, Total: total, Message: msg})
	}

	m.emit(BatchCompleted{
		ID:        id,
		TargetDir: dir,
		Succeeded: result.Succeeded,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Total:     len(res.Images),
	})
	m.log.Infow("batch complete", "id", id,
		"succeeded", result.Succeeded, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (m *Manager) downloadImage(ctx context.Context, dir string, i int, u string) ItemOutcome {
	it := ItemOutcome{Index: i, URL: u}

	path, err := httputil.SafeDownloadPath(dir, ImageFileName(i))
	if err != nil {
		it.Status, it.Err = ItemFailed, err
		return it
	}
	it.Path = path

	if exists(path) {
		it.Status = ItemSkipped
		return it
	}

	resp, err := m.fetcher.Fetch(ctx, &httputil.Request{
		URL:      u,
		Header:   httputil.ImageHeaders(provider.RefererFor(u)),
		MaxBytes: m.imageLimit,
	})
	if err != nil {
		it.Status, it.Err = ItemFailed, err
		return it
	}
	if !resp.OK() {
		it.Status, it.Err = ItemFailed, fmt.Errorf("unexpected status %d", resp.StatusCode)
		return it
	}

	data := resp.Body
	if m.converter != nil {
		if data, err = m.converter.Convert(resp.Body); err != nil {
			it.Status, it.Err = ItemFailed, fmt.Errorf("converting image: %w", err)
			return it
		}
	}

	if err := writeFileAtomic(ctx, path, data); err != nil {
		it.Status, it.Err = ItemFailed, err
		return it
	}
	it.Status = ItemDownloaded
	return it
}

func (m *Manager) failBatch(id string, err error) error {
	m.log.Errorw("batch failed", "id", id, "error", err)
	m.emit(BatchFailed{ID: id, Err: err})
	return err
}

func textContent(res *media.Result) string {
	body := res.Description
	if body == "" {
		body = res.Title
	}
	return fmt.Sprintf("标题：%s\n作者：%s\n\n内容：\n%s", res.Title, res.Author, body)
}
