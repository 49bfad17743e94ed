package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
)

// Platform is a supported content platform.
type Platform int

const (
	Unknown Platform = iota
	Douyin
	Xiaohongshu
	Kuaishou
	Bilibili
)

func (p Platform) String() string {
	switch p {
	case Douyin:
		return "douyin"
	case Xiaohongshu:
		return "xiaohongshu"
	case Kuaishou:
		return "kuaishou"
	case Bilibili:
		return "bilibili"
	default:
		return "unknown"
	}
}

// Tag is the label used in folder and file names.
func (p Platform) Tag() string {
	switch p {
	case Douyin:
		return media.TagDouyin
	case Xiaohongshu:
		return media.TagXiaohongshu
	case Kuaishou:
		return media.TagKuaishou
	case Bilibili:
		return media.TagBilibili
	default:
		return media.TagUnknown
	}
}

// Origin is the platform's web origin, sent as Referer with media fetches.
func (p Platform) Origin() string {
	switch p {
	case Douyin:
		return "https://www.douyin.com"
	case Xiaohongshu:
		return "https://www.xiaohongshu.com"
	case Kuaishou:
		return "https://www.kuaishou.com"
	case Bilibili:
		return "https://www.bilibili.com"
	default:
		return ""
	}
}

// aliases lists every domain a platform serves pages, short links and media from.
var aliases = []struct {
	platform Platform
	domains  []string
}{
	{Douyin, []string{"douyin.com", "iesdouyin.com", "aweme.snssdk.com", "snssdk.com", "douyinvod.com"}},
	{Xiaohongshu, []string{"xiaohongshu.com", "xhslink.com", "xhscdn.com"}},
	{Kuaishou, []string{"kuaishou.com", "kwcdn.com", "kwimgs.com", "kwaicdn.com", "yximgs.com"}},
	{Bilibili, []string{"bilibili.com", "b23.tv", "bilivideo.com", "hdslb.com"}},
}

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)
	bvPattern  = regexp.MustCompile(`BV[a-zA-Z0-9]{10}`)
)

// ExtractURL returns the first http(s) URL in text, up to the next whitespace.
func ExtractURL(text string) (string, error) {
	u := urlPattern.FindString(text)
	if u == "" {
		return "", ErrNoURL
	}
	return u, nil
}

// Classify maps a URL to its platform by domain substring.
func Classify(rawURL string) Platform {
	for _, a := range aliases {
		for _, d := range a.domains {
			if strings.Contains(rawURL, d) {
				return a.platform
			}
		}
	}
	if bvPattern.MatchString(rawURL) {
		return Bilibili
	}
	return Unknown
}

// RefererFor returns the Referer to send when fetching media from rawURL,
// or "" when the URL belongs to no known platform.
func RefererFor(rawURL string) string {
	if o := Classify(rawURL).Origin(); o != "" {
		return o + "/"
	}
	return ""
}

// Router dispatches links to the registered Extractor of their platform.
type Router struct {
	extractors map[Platform]Extractor
	log        *zap.SugaredLogger
}

// NewRouter creates a Router with the four platform extractors registered.
func NewRouter(o Options) *Router {
	r := NewEmptyRouter(o.logger())
	r.MustRegister(NewDouyin(o))
	r.MustRegister(NewXiaohongshu(o))
	r.MustRegister(NewKuaishou(o))
	r.MustRegister(NewBilibili(o))
	return r
}

// NewEmptyRouter creates a Router with no extractors.
func NewEmptyRouter(log *zap.SugaredLogger) *Router {
	if log == nil {
		log = zap.S().Named("provider")
	}
	return &Router{
		extractors: make(map[Platform]Extractor),
		log:        log,
	}
}

// Register adds an extractor. Each platform has at most one.
func (r *Router) Register(e Extractor) error {
	p := e.Platform()
	if p == Unknown {
		return fmt.Errorf("%w: cannot register for unknown platform", ErrUnsupportedPlatform)
	}
	if _, ok := r.extractors[p]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, p)
	}
	r.extractors[p] = e
	return nil
}

// MustRegister wraps Register but panics if there is an error.
func (r *Router) MustRegister(e Extractor) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Resolve finds the first URL in text and resolves it with the matching extractor.
//
// Transport failures are returned unchanged. Every other failure is logged
// with its reason and returned wrapped in ErrResolutionFailed, so callers only
// need to tell "network problem" from "could not resolve".
func (r *Router) Resolve(ctx context.Context, text string) (*media.Result, error) {
	link, err := ExtractURL(text)
	if err != nil {
		return nil, r.fail(text, err)
	}

	p := Classify(link)
	e, ok := r.extractors[p]
	if !ok {
		return nil, r.fail(link, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, link))
	}

	r.log.Debugw("resolving", "platform", p.String(), "link", link)
	res, err := e.Extract(ctx, link)
	if err != nil {
		if httputil.IsTransport(err) {
			return nil, err
		}
		return nil, r.fail(link, err)
	}

	if res.SourceURL == "" {
		res.SourceURL = link
	}
	return res, nil
}

func (r *Router) fail(input string, reason error) error {
	r.log.Warnw("resolution failed", "input", input, "reason", reason)
	return fmt.Errorf("%w: %w", ErrResolutionFailed, reason)
}
