package trie

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrie(n int) (*Trie, [][2][]byte) {
	var kvs [][2][]byte
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%03d", i))
		value := []byte(fmt.Sprintf("value-%d", i))
		if i%3 == 0 {
			// long enough to need a hashed leaf
			value = bytes.Repeat([]byte{byte(i)}, 40+i)
		}
		kvs = append(kvs, [2][]byte{key, value})
	}
	return FromPairs(kvs), kvs
}

func TestLeafEncoding(t *testing.T) {
	small := leaf(bytes.Repeat([]byte{0xaa}, 32), []byte{1, 2, 3})
	require.Len(t, small, NodeSize)
	assert.Equal(t, byte(0b01|3<<2), small[0])
	k, v, embedded, err := decodeLeaf(small)
	require.NoError(t, err)
	assert.True(t, embedded)
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 31), k)
	assert.Equal(t, []byte{1, 2, 3}, v)

	big := leaf([]byte{1}, bytes.Repeat([]byte{9}, 33))
	assert.Equal(t, byte(0b11), big[0])
	_, v, embedded, err = decodeLeaf(big)
	require.NoError(t, err)
	assert.False(t, embedded)
	assert.Equal(t, computeHash(bytes.Repeat([]byte{9}, 33)), v)

	bad := append([]byte{}, small...)
	bad[0] = 0b01 | 40<<2
	_, _, _, err = decodeLeaf(bad)
	assert.ErrorIs(t, err, ErrInvalidNode)
}

func TestBranchClearsFirstBit(t *testing.T) {
	left := bytes.Repeat([]byte{0xff}, 32)
	right := bytes.Repeat([]byte{0x11}, 32)
	b := branch(left, right)
	assert.Equal(t, byte(0xfe), b[0])
	assert.False(t, isLeaf(b))
	assert.Equal(t, right, b[32:])
}

func TestBitOrder(t *testing.T) {
	k := []byte{0b0000_0010, 0x80}
	assert.False(t, bit(k, 0))
	assert.True(t, bit(k, 1))
	assert.True(t, bit(k, 15))
	assert.False(t, bit(k, 99))
}

func TestEmptyRoot(t *testing.T) {
	tr := New()
	assert.Equal(t, common.Hash{}, tr.Root())
	v, found, err := CheckProof(tr.Root(), []byte("x"), nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestRootIndependentOfInsertOrder(t *testing.T) {
	a, kvs := sampleTrie(20)
	b := New()
	for i := len(kvs) - 1; i >= 0; i-- {
		b.Insert(kvs[i][0], kvs[i][1])
	}
	assert.Equal(t, a.Root(), b.Root())

	b.Insert([]byte("extra"), []byte("v"))
	assert.NotEqual(t, a.Root(), b.Root())
	b.Delete([]byte("extra"))
	assert.Equal(t, a.Root(), b.Root())
}

func TestProveAndCheck(t *testing.T) {
	tr, kvs := sampleTrie(50)
	root := tr.Root()
	for _, kv := range kvs {
		proof := tr.Prove(kv[0])
		v, found, err := CheckProof(root, kv[0], proof)
		require.NoError(t, err, "%s", kv[0])
		assert.True(t, found)
		assert.Equal(t, kv[1], v)
	}
}

func TestAbsenceProof(t *testing.T) {
	tr, _ := sampleTrie(30)
	missing := []byte("not-there")
	proof := tr.Prove(missing)
	require.NotEmpty(t, proof)
	_, found, err := CheckProof(tr.Root(), missing, proof)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSingleLeafTrie(t *testing.T) {
	tr := New()
	tr.Insert([]byte("only"), []byte("one"))
	proof := tr.Prove([]byte("only"))
	require.Len(t, proof, 1)
	v, found, err := CheckProof(tr.Root(), []byte("only"), proof)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("one"), v)
}

func TestTamperedProofFails(t *testing.T) {
	tr, kvs := sampleTrie(16)
	root := tr.Root()
	for _, kv := range kvs {
		proof := tr.Prove(kv[0])
		for i := range proof {
			for _, pos := range []int{0, len(proof[i]) / 2, len(proof[i]) - 1} {
				tampered := make([][]byte, len(proof))
				for j := range proof {
					tampered[j] = append([]byte{}, proof[j]...)
				}
				tampered[i][pos] ^= 0x01
				v, found, err := CheckProof(root, kv[0], tampered)
				if err == nil {
					// must never prove the original value from altered nodes
					assert.False(t, found && bytes.Equal(v, kv[1]), "item %d byte %d", i, pos)
				}
			}
		}
	}
}

func TestMissingNodeIsIncomplete(t *testing.T) {
	tr, kvs := sampleTrie(8)
	proof := tr.Prove(kvs[0][0])
	require.True(t, len(proof) > 1)
	_, _, err := CheckProof(tr.Root(), kvs[0][0], proof[:1])
	assert.ErrorIs(t, err, ErrIncompleteProof)

	_, _, err = CheckProof(tr.Root(), kvs[0][0], proof[1:])
	assert.ErrorIs(t, err, ErrRootMismatch)
}

func TestCommitAndProveFromStore(t *testing.T) {
	ps, err := storage.NewMemoryPersistenceStore()
	require.NoError(t, err)
	defer ps.Close()

	tr, kvs := sampleTrie(25)
	root, err := tr.Commit(ps)
	require.NoError(t, err)
	assert.Equal(t, tr.Root(), root)

	for _, kv := range kvs {
		proof, err := ProveFromStore(ps, root, kv[0])
		require.NoError(t, err)
		assert.Equal(t, tr.Prove(kv[0]), proof)
	}

	_, err = ProveFromStore(ps, common.Blake2Hash([]byte("unknown root")), kvs[0][0])
	assert.ErrorIs(t, err, ErrIncompleteProof)
}
