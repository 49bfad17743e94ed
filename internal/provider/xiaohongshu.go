package provider

import (
	"context"
	"encoding/json"

	"linkgrab/internal/extract"
	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
)

const (
	xiaohongshuMarker = "window.__INITIAL_STATE__"
	xhsVideoCDN       = "https://sns-video-bd.xhscdn.com/"
)

var xiaohongshuChallenges = []string{"验证码", "captcha"}

// XiaohongshuExtractor reads the initial state of a note page.
type XiaohongshuExtractor struct {
	client
}

// NewXiaohongshu creates a XiaohongshuExtractor.
func NewXiaohongshu(o Options) *XiaohongshuExtractor {
	return &XiaohongshuExtractor{client: newClient(o, Xiaohongshu)}
}

func (x *XiaohongshuExtractor) Platform() Platform { return Xiaohongshu }

type xhsState struct {
	Note *struct {
		NoteDetailMap json.RawMessage `json:"noteDetailMap"`
	} `json:"note"`
	NoteData *struct {
		Data struct {
			NoteData *xhsNote `json:"noteData"`
			Note     *xhsNote `json:"note"`
		} `json:"data"`
	} `json:"noteData"`
}

type xhsStream struct {
	H264 []struct {
		MasterURL string `json:"masterUrl"`
	} `json:"h264"`
	H265 []struct {
		MasterURL string `json:"masterUrl"`
	} `json:"h265"`
}

func (s *xhsStream) h264() string {
	if s == nil || len(s.H264) == 0 {
		return ""
	}
	return s.H264[0].MasterURL
}

func (s *xhsStream) h265() string {
	if s == nil || len(s.H265) == 0 {
		return ""
	}
	return s.H265[0].MasterURL
}

type xhsNote struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Type  string `json:"type"`
	User  struct {
		NickName string `json:"nickName"`
		Nickname string `json:"nickname"`
		Name     string `json:"name"`
	} `json:"user"`
	Video *struct {
		Media struct {
			Stream *xhsStream `json:"stream"`
		} `json:"media"`
		Consumer struct {
			OriginVideoKey string `json:"originVideoKey"`
		} `json:"consumer"`
	} `json:"video"`
	ImageList []struct {
		URLDefault string `json:"urlDefault"`
		URL        string `json:"url"`
		InfoList   []struct {
			URL string `json:"url"`
		} `json:"infoList"`
		Stream *xhsStream `json:"stream"`
	} `json:"imageList"`
}

func (x *XiaohongshuExtractor) Extract(ctx context.Context, link string) (*media.Result, error) {
	html, err := x.page(ctx, link, httputil.DesktopPageHeaders())
	if err != nil {
		return nil, err
	}
	if extract.IsChallenge(html, xiaohongshuChallenges...) {
		return nil, ErrChallenge
	}
	if !extract.HasMarker(html, xiaohongshuMarker) {
		return nil, ErrMarkerNotFound
	}

	raw := extract.NormalizeJSLiterals(extract.EmbeddedJSON(html, xiaohongshuMarker))
	var state xhsState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, parseError(err)
	}

	note, err := x.findNote(&state)
	if err != nil {
		return nil, err
	}

	title := firstNonEmpty(note.Desc, note.Title)
	if title == "" {
		title = extract.PageTitle(html, " - 小红书")
	}
	meta := media.Meta{
		Title:       title,
		Author:      firstNonEmpty(note.User.NickName, note.User.Nickname, note.User.Name),
		Description: note.Desc,
		Platform:    media.TagXiaohongshu,
		SourceURL:   link,
	}

	if note.Type == "video" {
		if note.Video == nil {
			return nil, schemaError("video note has no video object")
		}
		u := firstNonEmpty(note.Video.Media.Stream.h265(), note.Video.Media.Stream.h264())
		if u == "" && note.Video.Consumer.OriginVideoKey != "" {
			u = xhsVideoCDN + note.Video.Consumer.OriginVideoKey
		}
		if u == "" {
			return nil, schemaError("video note has no stream")
		}
		return media.NewVideo(meta, u)
	}

	images := make([]string, 0, len(note.ImageList))
	for _, img := range note.ImageList {
		u := firstNonEmpty(img.URLDefault, img.URL)
		if u == "" && len(img.InfoList) > 0 {
			u = img.InfoList[0].URL
		}
		if u == "" {
			u = firstNonEmpty(img.Stream.h264(), img.Stream.h265())
		}
		images = append(images, u)
	}
	res, err := media.NewImageSet(meta, images)
	if err != nil {
		return nil, schemaError("note type %q: %v", note.Type, err)
	}
	x.log.Debugw("resolved note", "images", len(res.Images))
	return res, nil
}

// findNote prefers the first entry of note.noteDetailMap and falls back to
// the older noteData.data layout.
func (x *XiaohongshuExtractor) findNote(state *xhsState) (*xhsNote, error) {
	if state.Note != nil && !extract.IsNull(state.Note.NoteDetailMap) {
		fields, err := extract.OrderedFields(state.Note.NoteDetailMap)
		if err != nil {
			return nil, parseError(err)
		}
		if len(fields) == 0 {
			return nil, schemaError("noteDetailMap is empty")
		}
		var detail struct {
			Note *xhsNote `json:"note"`
		}
		if err := json.Unmarshal(fields[0].Value, &detail); err != nil {
			return nil, parseError(err)
		}
		if detail.Note == nil {
			return nil, schemaError("noteDetailMap[%s] has no note", fields[0].Key)
		}
		return detail.Note, nil
	}

	if state.NoteData != nil {
		if n := state.NoteData.Data.NoteData; n != nil {
			return n, nil
		}
		if n := state.NoteData.Data.Note; n != nil {
			return n, nil
		}
	}
	return nil, schemaError("no note object in state")
}
