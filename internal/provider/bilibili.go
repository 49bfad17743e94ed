package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"linkgrab/internal/extract"
	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
)

const (
	DefaultBilibiliAPI     = "https://api.bilibili.com"
	DefaultBilibiliQuality = 80
)

// BilibiliExtractor resolves a BV identifier through the public web API.
type BilibiliExtractor struct {
	client

	// APIBase is the scheme and host of the API, without a trailing slash.
	APIBase string
	Quality int
}

// NewBilibili creates a BilibiliExtractor.
func NewBilibili(o Options) *BilibiliExtractor {
	q := o.BilibiliQuality
	if q <= 0 {
		q = DefaultBilibiliQuality
	}
	return &BilibiliExtractor{
		client:  newClient(o, Bilibili),
		APIBase: DefaultBilibiliAPI,
		Quality: q,
	}
}

func (b *BilibiliExtractor) Platform() Platform { return Bilibili }

type biliEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type biliView struct {
	Aid   int64  `json:"aid"`
	Cid   int64  `json:"cid"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Pic   string `json:"pic"`
	Owner struct {
		Name string `json:"name"`
	} `json:"owner"`
	Pages []struct {
		Cid  int64  `json:"cid"`
		Page int    `json:"page"`
		Part string `json:"part"`
	} `json:"pages"`
}

type biliPlay struct {
	Durl []struct {
		URL string `json:"url"`
	} `json:"durl"`
	Dash json.RawMessage `json:"dash"`
}

func (b *BilibiliExtractor) Extract(ctx context.Context, link string) (*media.Result, error) {
	bvid := bvPattern.FindString(link)
	if bvid == "" {
		if strings.Contains(link, "b23.tv") {
			return nil, fmt.Errorf("%w: %s", ErrShortLink, link)
		}
		return nil, schemaError("no BV identifier in %s", link)
	}

	var view biliView
	viewURL := httputil.BuildURL(b.APIBase+"/x/web-interface/view", url.Values{"bvid": {bvid}})
	if err := b.call(ctx, viewURL, &view); err != nil {
		return nil, err
	}
	if view.Aid == 0 || view.Cid == 0 {
		return nil, schemaError("view of %s has no aid/cid", bvid)
	}
	b.log.Debugw("video info", "bvid", bvid, "title", view.Title, "pages", len(view.Pages))

	var play biliPlay
	playURL := httputil.BuildURL(b.APIBase+"/x/player/playurl", url.Values{
		"avid":  {strconv.FormatInt(view.Aid, 10)},
		"cid":   {strconv.FormatInt(view.Cid, 10)},
		"qn":    {strconv.Itoa(b.Quality)},
		"fnval": {"0"},
		"fourk": {"1"},
	})
	if err := b.call(ctx, playURL, &play); err != nil {
		return nil, err
	}

	var video string
	if len(play.Durl) > 0 {
		video = play.Durl[0].URL
	}
	if video == "" {
		if !extract.IsNull(play.Dash) {
			return nil, ErrUnsupportedDelivery
		}
		return nil, schemaError("playurl for %s has no durl", bvid)
	}

	return media.NewVideo(media.Meta{
		Title:       view.Title,
		Author:      view.Owner.Name,
		Description: view.Desc,
		Cover:       view.Pic,
		Platform:    media.TagBilibili,
		SourceURL:   "https://www.bilibili.com/video/" + bvid,
	}, video)
}

// call performs one API request and decodes its data member into v.
func (b *BilibiliExtractor) call(ctx context.Context, endpoint string, v any) error {
	var env biliEnvelope
	if err := b.getJSON(ctx, endpoint, httputil.JSONHeaders(Bilibili.Origin()), &env); err != nil {
		return err
	}
	if env.Code != 0 || extract.IsNull(env.Data) {
		return &APIError{Endpoint: endpoint, Code: env.Code, Message: env.Message}
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return parseError(err)
	}
	return nil
}
