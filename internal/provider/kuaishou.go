package provider

import (
	"context"
	"encoding/json"
	"strings"

	"linkgrab/internal/extract"
	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
)

const (
	kuaishouMarker = "window.INIT_STATE"

	// kuaishouKeyPrefix starts the generated key that holds the photo object.
	kuaishouKeyPrefix = "tusjoh.0sftu0xe0vhI6Bqq0qipup0tjnqmf0jogp@lqo"
)

// KuaishouExtractor reads the initial state of the mobile share page.
type KuaishouExtractor struct {
	client
}

// NewKuaishou creates a KuaishouExtractor.
func NewKuaishou(o Options) *KuaishouExtractor {
	return &KuaishouExtractor{client: newClient(o, Kuaishou)}
}

func (k *KuaishouExtractor) Platform() Platform { return Kuaishou }

type kuaishouState struct {
	Photo *struct {
		Caption    string `json:"caption"`
		UserName   string `json:"userName"`
		CoverURL   string `json:"coverUrl"`
		PhotoURL   string `json:"photoUrl"`
		MainMvURLs []struct {
			URL string `json:"url"`
		} `json:"mainMvUrls"`
		ExtParams struct {
			Atlas *struct {
				CDN  []string `json:"cdn"`
				List []string `json:"list"`
			} `json:"atlas"`
		} `json:"ext_params"`
	} `json:"photo"`
}

func (k *KuaishouExtractor) Extract(ctx context.Context, link string) (*media.Result, error) {
	canonical, err := k.canonical(ctx, link)
	if err != nil {
		return nil, err
	}

	html, err := k.page(ctx, canonical, httputil.PageHeaders(httputil.MobileUA))
	if err != nil {
		return nil, err
	}
	if !extract.HasMarker(html, kuaishouMarker) {
		return nil, ErrMarkerNotFound
	}

	field, ok, err := extract.FirstField([]byte(extract.EmbeddedJSON(html, kuaishouMarker)), func(key string) bool {
		return strings.HasPrefix(key, kuaishouKeyPrefix)
	})
	if err != nil {
		return nil, parseError(err)
	}
	if !ok {
		return nil, schemaError("no photo state key")
	}

	var state kuaishouState
	if err := json.Unmarshal(field.Value, &state); err != nil {
		return nil, parseError(err)
	}
	photo := state.Photo
	if photo == nil {
		return nil, schemaError("state has no photo")
	}

	meta := media.Meta{
		Title:     photo.Caption,
		Author:    photo.UserName,
		Cover:     photo.CoverURL,
		Platform:  media.TagKuaishou,
		SourceURL: canonical,
	}

	var video string
	if len(photo.MainMvURLs) > 0 {
		video = photo.MainMvURLs[0].URL
	}
	if video == "" && photo.ExtParams.Atlas == nil {
		video = photo.PhotoURL
	}
	if video != "" {
		return media.NewVideo(meta, video)
	}

	atlas := photo.ExtParams.Atlas
	if atlas == nil || len(atlas.CDN) == 0 {
		return nil, schemaError("photo has neither video nor atlas")
	}
	images := make([]string, 0, len(atlas.List))
	for _, item := range atlas.List {
		images = append(images, "https://"+atlas.CDN[0]+item)
	}
	res, err := media.NewImageSet(meta, images)
	if err != nil {
		return nil, schemaError("atlas: %v", err)
	}
	k.log.Debugw("resolved atlas", "images", len(res.Images))
	return res, nil
}
