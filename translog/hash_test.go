package translog

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyRootIsHashOfEmptyString(t *testing.T) {
	// SHA256("") per RFC 6962 §2.1.
	want, err := hex.DecodeString("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855")
	require.NoError(t, err)
	assert.Equal(t, want, EmptyRoot())
}

func TestMTHSingleLeafIsItsLeafHash(t *testing.T) {
	lh := LeafHash([]byte("entry-0"))
	assert.Equal(t, lh, MTH([][]byte{lh}))
}

func TestMTHTwoLeaves(t *testing.T) {
	l0 := LeafHash([]byte("a"))
	l1 := LeafHash([]byte("b"))
	want := NodeHash(l0, l1)
	assert.Equal(t, want, MTH([][]byte{l0, l1}))
}

func TestMTHThreeLeavesSplitsAtPowerOfTwo(t *testing.T) {
	l0 := LeafHash([]byte("a"))
	l1 := LeafHash([]byte("b"))
	l2 := LeafHash([]byte("c"))
	// RFC 6962: n=3 splits at k=2: MTH({l0,l1,l2}) = node(MTH({l0,l1}), MTH({l2}))
	want := NodeHash(NodeHash(l0, l1), l2)
	assert.Equal(t, want, MTH([][]byte{l0, l1, l2}))
}

func TestSplitPoint(t *testing.T) {
	cases := map[int]int{2: 1, 3: 2, 4: 2, 5: 4, 7: 4, 8: 4, 9: 8}
	for n, want := range cases {
		assert.Equal(t, want, splitPoint(n), "n=%d", n)
	}
}
