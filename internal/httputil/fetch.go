package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RedirectMode selects whether 3xx responses are followed.
type RedirectMode int

const (
	Follow RedirectMode = iota
	// Manual returns the 3xx response itself; FinalURL holds its Location.
	Manual
)

// Request describes a single fetch.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Redirect RedirectMode

	// OnProgress is called after each chunk when the server sent a
	// Content-Length. total is that length.
	OnProgress func(received, total int64)

	// Sink receives the body instead of Response.Body when set.
	Sink io.Writer

	// MaxBytes caps the body read. A longer body fails with ErrBodyTooLarge.
	// Zero means unlimited.
	MaxBytes int64
}

// Response is the result of a fetch. Body is empty when the request had a Sink.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string
	Redirected bool
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect reports whether the status is 3xx.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// Fetcher performs HTTP requests. Extractors and the download manager only
// see this interface, so tests can serve fixtures from memory.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// ErrBodyTooLarge is returned when a body exceeds Request.MaxBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// TransportError marks a failure below the HTTP layer: DNS, connect, TLS,
// timeout, or a broken body stream.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err carries a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// HTTPFetcher is the net/http implementation of Fetcher.
type HTTPFetcher struct {
	client *http.Client
	manual *http.Client
}

// NewFetcher creates an HTTPFetcher on top of a hardened client.
func NewFetcher(timeout time.Duration) *HTTPFetcher {
	return NewFetcherWithClient(NewClient(timeout))
}

// NewFetcherWithClient wraps an existing client.
func NewFetcherWithClient(client *http.Client) *HTTPFetcher {
	manual := *client
	manual.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &HTTPFetcher{client: client, manual: &manual}
}

// Fetch issues the request and reads the whole body.
func (f *HTTPFetcher) Fetch(ctx context.Context, r *Request) (*Response, error) {
	if err := ValidateURL(r.URL); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := f.client
	if r.Redirect == Manual {
		client = f.manual
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: r.URL, Err: err}
	}
	defer resp.Body.Close()

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		FinalURL:   resp.Request.URL.String(),
	}
	out.Redirected = out.FinalURL != r.URL

	if r.Redirect == Manual && out.IsRedirect() {
		if loc, err := resp.Location(); err == nil {
			out.FinalURL = loc.String()
			out.Redirected = true
		}
		return out, nil
	}

	var body io.Reader = resp.Body
	if r.MaxBytes > 0 {
		body = &capReader{r: io.LimitReader(body, r.MaxBytes+1), max: r.MaxBytes}
	}
	if r.OnProgress != nil && resp.ContentLength > 0 {
		body = &progressReader{r: body, total: resp.ContentLength, fn: r.OnProgress}
	}

	if r.Sink != nil {
		sink := &sinkWriter{w: r.Sink}
		if _, err := io.Copy(sink, body); err != nil {
			if errors.Is(err, ErrBodyTooLarge) {
				return nil, fmt.Errorf("%s: %w", r.URL, err)
			}
			if sink.err != nil {
				return nil, fmt.Errorf("writing body: %w", sink.err)
			}
			return nil, &TransportError{URL: r.URL, Err: err}
		}
		return out, nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return nil, fmt.Errorf("%s: %w", r.URL, err)
		}
		return nil, &TransportError{URL: r.URL, Err: err}
	}
	out.Body = buf.Bytes()
	return out, nil
}

// capReader reads at most max bytes and fails if the source has more.
type capReader struct {
	r   io.Reader
	n   int64
	max int64
}

func (c *capReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	if c.n > c.max {
		return n - int(c.n-c.max), ErrBodyTooLarge
	}
	return n, err
}

type progressReader struct {
	r        io.Reader
	received int64
	total    int64
	fn       func(received, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.received += int64(n)
		p.fn(p.received, p.total)
	}
	return n, err
}

// sinkWriter remembers write errors so they are not reported as transport failures.
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(b []byte) (int, error) {
	n, err := s.w.Write(b)
	if err != nil {
		s.err = err
	}
	return n, err
}
