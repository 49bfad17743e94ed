package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkgrab/internal/httputil"
	"linkgrab/internal/media"
)

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{"plain", "https://v.douyin.com/iRNBho6u/", "https://v.douyin.com/iRNBho6u/", false},
		{"share text", "7.43 复制打开抖音，看看【小明的作品】 https://v.douyin.com/iRNBho6u/ CuF:/ 08/19", "https://v.douyin.com/iRNBho6u/", false},
		{"query kept", "look http://xhslink.com/a/Ab1?x=1&y=2 now", "http://xhslink.com/a/Ab1?x=1&y=2", false},
		{"first of two", "https://a.example/1 https://b.example/2", "https://a.example/1", false},
		{"no url", "no link here", "", true},
		{"scheme only", "https:// nothing", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractURL(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://v.douyin.com/abc/", Douyin},
		{"https://www.iesdouyin.com/share/video/1/", Douyin},
		{"https://aweme.snssdk.com/aweme/v1/play/?video_id=1", Douyin},
		{"https://v26.douyinvod.com/x.mp4", Douyin},
		{"https://www.xiaohongshu.com/explore/66ab", Xiaohongshu},
		{"http://xhslink.com/a/Ab1", Xiaohongshu},
		{"https://sns-webpic.xhscdn.com/1", Xiaohongshu},
		{"https://v.kuaishou.com/abc", Kuaishou},
		{"https://v2.kwcdn.com/a.mp4", Kuaishou},
		{"https://www.bilibili.com/video/BV1aaAAA1111", Bilibili},
		{"https://b23.tv/xyz", Bilibili},
		{"https://upos.bilivideo.com/v.mp4", Bilibili},
		{"https://i0.hdslb.com/p.jpg", Bilibili},
		{"https://m.example.com/BV1aaAAA1111", Bilibili},
		{"https://example.com/video/1", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url))
		})
	}
}

func TestPlatformTagsAndReferers(t *testing.T) {
	assert.Equal(t, media.TagDouyin, Douyin.Tag())
	assert.Equal(t, media.TagXiaohongshu, Xiaohongshu.Tag())
	assert.Equal(t, media.TagKuaishou, Kuaishou.Tag())
	assert.Equal(t, media.TagBilibili, Bilibili.Tag())
	assert.Equal(t, media.TagUnknown, Unknown.Tag())

	assert.Equal(t, "https://www.douyin.com/", RefererFor("https://v26.douyinvod.com/x.mp4"))
	assert.Equal(t, "https://www.xiaohongshu.com/", RefererFor("https://sns-webpic.xhscdn.com/1"))
	assert.Equal(t, "https://www.bilibili.com/", RefererFor("https://upos.bilivideo.com/v.mp4"))
	assert.Equal(t, "https://www.kuaishou.com/", RefererFor("https://v2.kwcdn.com/a.mp4"))
	assert.Equal(t, "https://www.kuaishou.com/", RefererFor("https://txmov2.a.kwaicdn.com/upic/a.mp4"))
	assert.Equal(t, "https://www.kuaishou.com/", RefererFor("https://p2.a.yximgs.com/upic/a.jpg"))
	assert.Empty(t, RefererFor("https://cdn.example.com/a.jpg"))
}

func TestResolveFailures(t *testing.T) {
	r := NewRouter(testOptions(newFakeFetcher(nil)))

	_, err := r.Resolve(context.Background(), "no link")
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorIs(t, err, ErrNoURL)

	_, err = r.Resolve(context.Background(), "see https://example.com/v/1")
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestResolvePropagatesTransportErrors(t *testing.T) {
	f := newFakeFetcher(nil)
	f.err = errNetworkDown
	r := NewRouter(testOptions(f))

	_, err := r.Resolve(context.Background(), "https://v.douyin.com/abc/")
	require.Error(t, err)
	assert.True(t, httputil.IsTransport(err))
	assert.False(t, errors.Is(err, ErrResolutionFailed))
	assert.ErrorIs(t, err, errNetworkDown)
}

type stubExtractor struct {
	platform Platform
	res      *media.Result
}

func (s stubExtractor) Platform() Platform { return s.platform }

func (s stubExtractor) Extract(context.Context, string) (*media.Result, error) {
	return s.res, nil
}

func TestRegister(t *testing.T) {
	r := NewEmptyRouter(zap.NewNop().Sugar())
	res, err := media.NewVideo(media.Meta{Platform: media.TagKuaishou}, "https://v/1.mp4")
	require.NoError(t, err)

	require.NoError(t, r.Register(stubExtractor{platform: Kuaishou, res: res}))
	assert.ErrorIs(t, r.Register(stubExtractor{platform: Kuaishou}), ErrDuplicate)
	assert.ErrorIs(t, r.Register(stubExtractor{platform: Unknown}), ErrUnsupportedPlatform)

	got, err := r.Resolve(context.Background(), "分享 https://v.kuaishou.com/xyz 给你")
	require.NoError(t, err)
	assert.Equal(t, "https://v.kuaishou.com/xyz", got.SourceURL)

	_, err = r.Resolve(context.Background(), "https://v.douyin.com/abc/")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}
