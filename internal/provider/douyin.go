package provider

import (
	"context"
	"encoding/json"
	"strings"

	"linkgrab/internal/extract"
	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
)

const douyinMarker = "window._ROUTER_DATA"

// DouyinExtractor reads the router state the mobile share page embeds.
type DouyinExtractor struct {
	client
}

// NewDouyin creates a DouyinExtractor.
func NewDouyin(o Options) *DouyinExtractor {
	return &DouyinExtractor{client: newClient(o, Douyin)}
}

func (d *DouyinExtractor) Platform() Platform { return Douyin }

type douyinRouterData struct {
	LoaderData json.RawMessage `json:"loaderData"`
}

type douyinPage struct {
	VideoInfoRes struct {
		ItemList []douyinItem `json:"item_list"`
	} `json:"videoInfoRes"`
}

type douyinItem struct {
	Desc   string `json:"desc"`
	Title  string `json:"title"`
	Author struct {
		Nickname string `json:"nickname"`
		NickName string `json:"nick_name"`
	} `json:"author"`
	Video struct {
		PlayAddr      *urlList `json:"play_addr"`
		PlayAddrCamel *urlList `json:"playAddr"`
		PlayAPI       string   `json:"playApi"`
		Cover         *urlList `json:"cover"`
	} `json:"video"`
	Images []urlList `json:"images"`
}

func (d *DouyinExtractor) Extract(ctx context.Context, link string) (*media.Result, error) {
	canonical, err := d.canonical(ctx, link)
	if err != nil {
		return nil, err
	}

	html, err := d.page(ctx, canonical, httputil.PageHeaders(httputil.MobileUA))
	if err != nil {
		return nil, err
	}
	if !extract.HasMarker(html, douyinMarker) {
		return nil, ErrMarkerNotFound
	}

	var state douyinRouterData
	if err := json.Unmarshal([]byte(extract.EmbeddedJSON(html, douyinMarker)), &state); err != nil {
		return nil, parseError(err)
	}
	if extract.IsNull(state.LoaderData) {
		return nil, schemaError("router data has no loaderData")
	}

	route, ok, err := extract.FirstField(state.LoaderData, func(k string) bool {
		return strings.Contains(k, "/page") && (strings.Contains(k, "video_") || strings.Contains(k, "note_"))
	})
	if err != nil {
		return nil, parseError(err)
	}
	if !ok {
		return nil, schemaError("no video or note page in loaderData")
	}
	isVideo := strings.Contains(route.Key, "video_")

	var page douyinPage
	if err := json.Unmarshal(route.Value, &page); err != nil {
		return nil, parseError(err)
	}
	if len(page.VideoInfoRes.ItemList) == 0 {
		return nil, schemaError("%s has no items", route.Key)
	}
	item := page.VideoInfoRes.ItemList[0]

	title := firstNonEmpty(item.Desc, item.Title)
	if title == "" {
		title = extract.PageTitle(html, " - 抖音")
	}
	meta := media.Meta{
		Title:     title,
		Author:    firstNonEmpty(item.Author.Nickname, item.Author.NickName),
		Cover:     item.Video.Cover.first(),
		Platform:  media.TagDouyin,
		SourceURL: canonical,
	}

	if isVideo {
		u := firstNonEmpty(item.Video.PlayAddr.first(), item.Video.PlayAddrCamel.first(), item.Video.PlayAPI)
		if u == "" {
			return nil, schemaError("video item has no play address")
		}
		d.log.Debugw("resolved video", "route", route.Key)
		return media.NewVideo(meta, unwatermark(u))
	}

	var images []string
	for _, img := range item.Images {
		images = append(images, img.first())
	}
	res, err := media.NewImageSet(meta, images)
	if err != nil {
		return nil, schemaError("note: %v", err)
	}
	d.log.Debugw("resolved note", "route", route.Key, "images", len(res.Images))
	return res, nil
}

// unwatermark swaps the watermarked play endpoint for the plain one and asks
// for the higher resolution rendition.
func unwatermark(u string) string {
	u = strings.Replace(u, "playwm", "play", 1)
	return strings.Replace(u, "720p", "1080p", 1)
}
