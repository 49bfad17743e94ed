package provider

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"linkgrab/internal/httputil"
)

// fakeRoute is a canned response. A route with a location redirects.
type fakeRoute struct {
	status   int
	body     string
	location string
}

// fakeFetcher serves canned responses by exact URL; unknown URLs get a 404.
type fakeFetcher struct {
	mu     sync.Mutex
	routes map[string]fakeRoute
	calls  []*httputil.Request
	err    error
}

func newFakeFetcher(routes map[string]fakeRoute) *fakeFetcher {
	return &fakeFetcher{routes: routes}
}

func (f *fakeFetcher) Fetch(ctx context.Context, r *httputil.Request) (*httputil.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, r)
	rt, ok := f.routes[r.URL]
	err := f.err
	f.mu.Unlock()

	if err != nil {
		return nil, &httputil.TransportError{URL: r.URL, Err: err}
	}
	if !ok {
		return &httputil.Response{StatusCode: http.StatusNotFound, FinalURL: r.URL}, nil
	}
	if rt.location != "" {
		if r.Redirect == httputil.Manual {
			return &httputil.Response{StatusCode: http.StatusFound, FinalURL: rt.location, Redirected: true}, nil
		}
		next := *r
		next.URL = rt.location
		resp, err := f.Fetch(ctx, &next)
		if resp != nil {
			resp.Redirected = true
		}
		return resp, err
	}

	status := rt.status
	if status == 0 {
		status = http.StatusOK
	}
	return &httputil.Response{StatusCode: status, Body: []byte(rt.body), FinalURL: r.URL}, nil
}

func (f *fakeFetcher) requested(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.URL == url {
			return true
		}
	}
	return false
}

var errNetworkDown = errors.New("network is unreachable")

func testOptions(f httputil.Fetcher) Options {
	return Options{Fetcher: f, Logger: zap.NewNop().Sugar()}
}
