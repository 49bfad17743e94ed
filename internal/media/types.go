// Package media defines the normalized result shared by every platform extractor.
package media

import (
	"errors"
	"strings"
)

// Kind distinguishes a single video from an ordered image set.
type Kind int

const (
	Video Kind = iota
	ImageSet
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case ImageSet:
		return "images"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	if s == "images" {
		return ImageSet
	}
	return Video
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Platform tags as they appear in folder and file names.
const (
	TagDouyin      = "抖音"
	TagXiaohongshu = "小红书"
	TagKuaishou    = "快手"
	TagBilibili    = "B站"
	TagUnknown     = "未知"
)

// Placeholders used when a platform omits metadata.
const (
	DefaultTitle  = "无标题"
	DefaultAuthor = "未知作者"
)

var (
	errNoVideoURL = errors.New("video result requires a URL")
	errNoImages   = errors.New("image set requires at least one image")
)

// Result is the normalized description of a resolved link.
// Exactly one of VideoURL and Images is populated, matching Kind.
type Result struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description,omitempty"`
	Kind        Kind     `json:"kind"`
	VideoURL    string   `json:"video_url,omitempty"`
	Images      []string `json:"images,omitempty"`
	Cover       string   `json:"cover,omitempty"`
	Platform    string   `json:"platform"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// Meta carries the optional fields shared by both result kinds.
type Meta struct {
	Title       string
	Author      string
	Description string
	Cover       string
	Platform    string
	SourceURL   string
}

// NewVideo builds a video result.
func NewVideo(m Meta, videoURL string) (*Result, error) {
	if strings.TrimSpace(videoURL) == "" {
		return nil, errNoVideoURL
	}
	r := fromMeta(m)
	r.Kind = Video
	r.VideoURL = videoURL
	return r, nil
}

// NewImageSet builds an image-set result. Empty entries are dropped;
// the remaining order is kept.
func NewImageSet(m Meta, images []string) (*Result, error) {
	var kept []string
	for _, img := range images {
		if strings.TrimSpace(img) != "" {
			kept = append(kept, img)
		}
	}
	if len(kept) == 0 {
		return nil, errNoImages
	}
	r := fromMeta(m)
	r.Kind = ImageSet
	r.Images = kept
	return r, nil
}

func fromMeta(m Meta) *Result {
	r := &Result{
		Title:       strings.TrimSpace(m.Title),
		Author:      strings.TrimSpace(m.Author),
		Description: m.Description,
		Cover:       m.Cover,
		Platform:    m.Platform,
		SourceURL:   m.SourceURL,
	}
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.Author == "" {
		r.Author = DefaultAuthor
	}
	if r.Platform == "" {
		r.Platform = TagUnknown
	}
	return r
}

// Count returns the number of files the result downloads to, not counting
// the text artifact of an image set.
func (r *Result) Count() int {
	if r.Kind == ImageSet {
		return len(r.Images)
	}
	return 1
}
