package translog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeCacheAppendAndRoot(t *testing.T) {
	c := newTreeCache()
	assert.Equal(t, EmptyRoot(), c.root())

	h0 := LeafHash([]byte("a"))
	c.append(h0)
	assert.Equal(t, h0, c.root())

	h1 := LeafHash([]byte("b"))
	c.append(h1)
	assert.Equal(t, NodeHash(h0, h1), c.root())
	assert.Equal(t, int64(2), c.size())
}

func TestTreeCacheProofMatchesStandaloneAuditPath(t *testing.T) {
	c := newTreeCache()
	ls := leaves(6)
	for _, l := range ls {
		c.append(l)
	}
	proof, err := c.proof(3)
	require.NoError(t, err)
	want, err := AuditPath(3, ls)
	require.NoError(t, err)
	assert.Equal(t, want, proof.AuditPath)
	assert.Equal(t, int64(6), proof.TreeSize)
}

func TestTreeCacheLoadAll(t *testing.T) {
	c := newTreeCache()
	ls := leaves(4)
	c.loadAll(ls)
	assert.Equal(t, int64(4), c.size())
	assert.Equal(t, MTH(ls), c.root())
}
