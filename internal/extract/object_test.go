package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedFields(t *testing.T) {
	raw := []byte(`{"zeta":1,"alpha":{"n":[1,2]},"mid":"s"}`)

	fields, err := OrderedFields(raw)
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, "zeta", fields[0].Key)
	assert.Equal(t, "alpha", fields[1].Key)
	assert.JSONEq(t, `{"n":[1,2]}`, string(fields[1].Value))
	assert.Equal(t, "mid", fields[2].Key)
}

func TestOrderedFieldsRejectsNonObject(t *testing.T) {
	_, err := OrderedFields([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = OrderedFields([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestFirstField(t *testing.T) {
	raw := []byte(`{"layout":{},"note_(id)/page":{"n":1},"video_(id)/page":{"v":1}}`)

	f, ok, err := FirstField(raw, func(k string) bool {
		return strings.Contains(k, "/page")
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "note_(id)/page", f.Key)

	_, ok, err = FirstField(raw, func(k string) bool { return k == "missing" })
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull([]byte(" null ")))
	assert.False(t, IsNull([]byte(`{}`)))
}
