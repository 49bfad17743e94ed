package httputil

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid HTTPS", "https://example.com/path", false},
		{"HTTP share link", "http://xhslink.com/a/AbC123", false},
		{"javascript scheme rejected", "javascript:alert(1)", true},
		{"data scheme rejected", "data:text/html,<h1>Hi</h1>", true},
		{"FTP rejected", "ftp://example.com/file", true},
		{"empty string", "", true},
		{"no host", "https://", true},
		{"valid with port", "https://example.com:8080/path", false},
		{"valid with query", "https://example.com/path?q=test&a=b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal filename", "movie.mp4", "movie.mp4"},
		{"platform folder", "[抖音]今天天气真好", "[抖音]今天天气真好"},
		{"path traversal", "../../etc/passwd", "____etc_passwd"},
		{"directory components", "/home/user/secret.txt", "_home_user_secret.txt"},
		{"null bytes", "movie\x00.mp4", "movie.mp4"},
		{"Windows special chars", "movie<>:\"|?*.mp4", "movie_______.mp4"},
		{"double dots", "movie..mp4", "movie_mp4"},
		{"empty string", "", "untitled"},
		{"just dots", "..", "_"},
		{"just dot", ".", "untitled"},
		{"backslash traversal", "..\\..\\windows\\system32", "____windows_system32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSafeDownloadPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		filename string
	}{
		{"normal", "[B站]视频文件.mp4"},
		{"path traversal attempt", "../../etc/passwd"},
		{"shell injection", "$(whoami).mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := SafeDownloadPath(dir, tt.filename)
			if err != nil {
				t.Fatalf("SafeDownloadPath(%q) error = %v", tt.filename, err)
			}
			if filepath.Dir(path) != dir {
				t.Errorf("SafeDownloadPath(%q) = %q, escapes %q", tt.filename, path, dir)
			}
		})
	}
}

func TestBuildURL(t *testing.T) {
	got := BuildURL("https://api.example.com/x/view", url.Values{"bvid": {"BV1aaAAA1111"}})
	if got != "https://api.example.com/x/view?bvid=BV1aaAAA1111" {
		t.Errorf("BuildURL() = %q", got)
	}

	got = BuildURL("https://api.example.com/x?a=1", url.Values{"b": {"2"}})
	if !strings.HasSuffix(got, "?a=1&b=2") {
		t.Errorf("BuildURL() with existing query = %q", got)
	}

	if got := BuildURL("https://a", nil); got != "https://a" {
		t.Errorf("BuildURL() without params = %q", got)
	}
}
