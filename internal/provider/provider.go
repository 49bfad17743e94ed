// Package provider resolves share links from the supported platforms into
// media results. Each platform is one Extractor; the Router picks the
// Extractor by the link's domain.
package provider

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
)

// Extractor is the interface every platform implements.
type Extractor interface {
	// Platform identifies which links the extractor is registered for.
	Platform() Platform

	// Extract resolves a link into a result. Format problems are reported
	// with the errors in errors.go; network failures as *httputil.TransportError.
	Extract(ctx context.Context, link string) (*media.Result, error)
}

// Options configures the extractors built by NewRouter.
type Options struct {
	Fetcher httputil.Fetcher
	Logger  *zap.SugaredLogger

	// BilibiliQuality is the qn value requested from the playurl API.
	BilibiliQuality int
}

func (o Options) logger() *zap.SugaredLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.S().Named("provider")
}

// client wraps the fetcher with the request shapes shared by extractors.
type client struct {
	fetcher httputil.Fetcher
	log     *zap.SugaredLogger
}

func newClient(o Options, p Platform) client {
	return client{
		fetcher: o.Fetcher,
		log:     o.logger().With("platform", p.String()),
	}
}

// canonical follows one redirect hop by hand. Share links are short links
// whose Location is the page that carries the payload.
func (c client) canonical(ctx context.Context, link string) (string, error) {
	resp, err := c.fetcher.Fetch(ctx, &httputil.Request{
		URL:      link,
		Header:   http.Header{"User-Agent": {httputil.MobileUA}},
		Redirect: httputil.Manual,
		MaxBytes: httputil.PageLimit,
	})
	if err != nil {
		return "", err
	}
	if resp.IsRedirect() && resp.FinalURL != "" {
		c.log.Debugw("redirected", "from", link, "to", resp.FinalURL)
		return resp.FinalURL, nil
	}
	c.log.Debugw("no redirect, using original link", "link", link, "status", resp.StatusCode)
	return link, nil
}

// page fetches an HTML document, requiring a 2xx status.
func (c client) page(ctx context.Context, url string, header http.Header) (string, error) {
	resp, err := c.fetcher.Fetch(ctx, &httputil.Request{
		URL:      url,
		Header:   header,
		MaxBytes: httputil.PageLimit,
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", statusError(url, resp.StatusCode)
	}
	return string(resp.Body), nil
}

// getJSON fetches a JSON API endpoint, requiring exactly 200.
func (c client) getJSON(ctx context.Context, url string, header http.Header, v any) error {
	resp, err := c.fetcher.Fetch(ctx, &httputil.Request{
		URL:      url,
		Header:   header,
		MaxBytes: httputil.PageLimit,
	})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(url, resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return parseError(err)
	}
	return nil
}

// urlList is the {"url_list": [...]} shape used by short-video payloads.
type urlList struct {
	URLList []string `json:"url_list"`
}

func (u *urlList) first() string {
	if u == nil || len(u.URLList) == 0 {
		return ""
	}
	return u.URLList[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
