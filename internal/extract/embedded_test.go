package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedJSON(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		marker string
		want   string
	}{
		{
			name:   "simple assignment",
			page:   `<script>window._ROUTER_DATA = {"a":1}</script>`,
			marker: "window._ROUTER_DATA",
			want:   `{"a":1}`,
		},
		{
			name:   "bracket spelling",
			page:   `<script>window["_ROUTER_DATA"] = {"b":{"c":2}};</script>`,
			marker: "window._ROUTER_DATA",
			want:   `{"b":{"c":2}}`,
		},
		{
			name:   "bounded by first closing script tag",
			page:   `<script>window.INIT_STATE = {"x":1}</script><script>var y = {"z":2}</script>`,
			marker: "window.INIT_STATE",
			want:   `{"x":1}`,
		},
		{
			name:   "no closing script tag",
			page:   `window.__INITIAL_STATE__={"n":[1,2]}`,
			marker: "window.__INITIAL_STATE__",
			want:   `{"n":[1,2]}`,
		},
		{
			name:   "marker absent",
			page:   `<script>window.other = {"a":1}</script>`,
			marker: "window._ROUTER_DATA",
			want:   Empty,
		},
		{
			name:   "no opening brace",
			page:   `<script>window._ROUTER_DATA = null</script>`,
			marker: "window._ROUTER_DATA",
			want:   Empty,
		},
		{
			name:   "closing brace before opening brace",
			page:   `<script>window._ROUTER_DATA } = {</script>`,
			marker: "window._ROUTER_DATA",
			want:   Empty,
		},
		{
			name:   "trailing statement with braces is included",
			page:   `<script>window.INIT_STATE = {"a":1}; function f(){}</script>`,
			marker: "window.INIT_STATE",
			want:   `{"a":1}; function f(){}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmbeddedJSON(tt.page, tt.marker))
		})
	}
}

func TestEmbeddedJSONTrailingStatementFailsToDecode(t *testing.T) {
	raw := EmbeddedJSON(`<script>window.INIT_STATE = {"a":1}; function f(){}</script>`, "window.INIT_STATE")
	var v map[string]any
	assert.Error(t, json.Unmarshal([]byte(raw), &v))
}

func TestHasMarker(t *testing.T) {
	assert.True(t, HasMarker(`x window._ROUTER_DATA = {}`, "window._ROUTER_DATA"))
	assert.True(t, HasMarker(`x window["_ROUTER_DATA"] = {}`, "window._ROUTER_DATA"))
	assert.False(t, HasMarker(`x window.ROUTER = {}`, "window._ROUTER_DATA"))
}

func TestNormalizeJSLiterals(t *testing.T) {
	in := `{"a":undefined,"b":[undefined,undefined],"c":"keep undefined here","d": undefined }`
	out := NormalizeJSLiterals(in)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Nil(t, v["a"])
	assert.Equal(t, []any{nil, nil}, v["b"])
	assert.Equal(t, "keep undefined here", v["c"])
	assert.Nil(t, v["d"])
}

func TestIsChallenge(t *testing.T) {
	assert.True(t, IsChallenge("<title>请输入验证码</title>", "验证码", "captcha"))
	assert.True(t, IsChallenge("load captcha.js", "验证码", "captcha"))
	assert.False(t, IsChallenge("<html>ok</html>", "验证码", "captcha"))
	assert.False(t, IsChallenge("anything", ""))
}
