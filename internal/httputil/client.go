// Package httputil provides a security-hardened HTTP client, the Fetcher
// transport used by extractors and downloads, and path sanitization helpers.
package httputil

import (
	"crypto/tls"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// PageLimit caps HTML and JSON bodies read by the extractors.
const PageLimit = 10 * 1024 * 1024

const (
	MobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	DesktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// NewClient creates a hardened HTTP client with secure defaults.
// A zero timeout selects DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			DisableCompression:  false,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// PageHeaders returns browser-like headers for fetching an HTML page.
func PageHeaders(ua string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", ua)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// DesktopPageHeaders extends PageHeaders with the client hints a desktop
// Chrome navigation sends. Some note pages serve an interstitial without them.
func DesktopPageHeaders() http.Header {
	h := PageHeaders(DesktopUA)
	h.Set("Cache-Control", "max-age=0")
	h.Set("Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	return h
}

// JSONHeaders returns headers for a JSON API call made on behalf of origin.
func JSONHeaders(origin string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", DesktopUA)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9")
	if origin != "" {
		h.Set("Referer", origin+"/")
		h.Set("Origin", origin)
	}
	return h
}

// ImageHeaders returns headers for fetching an image from a CDN.
func ImageHeaders(referer string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", DesktopUA)
	h.Set("Accept", "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9")
	h.Set("Sec-Fetch-Dest", "image")
	h.Set("Sec-Fetch-Mode", "no-cors")
	h.Set("Sec-Fetch-Site", "cross-site")
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}
