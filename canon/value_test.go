package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name   string
	Count  int
	Tags   []string
	Nested *testPayload
}

func TestNormalizeStructFlattensExportedFields(t *testing.T) {
	v, err := Normalize(testPayload{Name: "x", Count: 3, Tags: []string{"a", "b"}})
	require.NoError(t, err)
	require.Equal(t, KindMap, v.Kind)
	assert.Equal(t, "x", v.Map["Name"].Text)
	assert.Equal(t, int64(3), v.Map["Count"].Int)
	assert.Equal(t, KindArray, v.Map["Tags"].Kind)
	assert.Len(t, v.Map["Tags"].Array, 2)
}

func TestNormalizeNilPointerIsNull(t *testing.T) {
	v, err := Normalize(testPayload{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, KindNull, v.Map["Nested"].Kind)
}

func TestNormalizeRoundTripsThroughCanonicalize(t *testing.T) {
	v, err := Normalize(testPayload{Name: "x", Count: 1, Tags: []string{"z"}})
	require.NoError(t, err)
	b, err := Canonicalize(v.Interface())
	require.NoError(t, err)
	assert.NotEmpty(t, b)
}

func TestNormalizeRejectsFloat(t *testing.T) {
	_, err := Normalize(1.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNormalizeRejectsNonStringMapKey(t *testing.T) {
	_, err := Normalize(map[int]string{1: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNormalizeByteSlice(t *testing.T) {
	v, err := Normalize([]byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, KindBytes, v.Kind)
	assert.Equal(t, []byte{0x01, 0x02}, v.Bytes)
}
