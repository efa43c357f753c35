package trie

import (
	"bytes"
	"fmt"

	"github.com/colorfulnotion/sidechain/common"
)

type proofNode struct {
	hash    []byte
	encoded []byte
}

// CheckProof walks proof from root along the path of key and returns the
// value stored there. found is false when the proof shows the key is absent.
// A proof lacking a node on the path fails with ErrIncompleteProof.
func CheckProof(root common.Hash, key []byte, proof [][]byte) (value []byte, found bool, err error) {
	nodes := make(map[[HashSize]byte]proofNode, len(proof))
	preimages := make(map[[HashSize]byte][]byte, len(proof))
	for _, item := range proof {
		h := computeHash(item)
		var hk [HashSize]byte
		copy(hk[:], h)
		preimages[hk] = item
		if len(item) == NodeSize {
			nodes[maskedKey(h)] = proofNode{hash: h, encoded: item}
		}
	}

	path := KeyPath(key)
	cur := root.Bytes()
	// the root and right children are referenced by their full hash
	full := true
	for depth := 0; ; depth++ {
		if bytes.Equal(cur, zeroHash) {
			return nil, false, nil
		}
		n, ok := nodes[maskedKey(cur)]
		if !ok || (full && !bytes.Equal(n.hash, cur)) {
			if depth == 0 {
				return nil, false, fmt.Errorf("%w: root %x", ErrRootMismatch, cur)
			}
			return nil, false, fmt.Errorf("%w: node %x at depth %d", ErrIncompleteProof, cur, depth)
		}
		node := n.encoded
		if isLeaf(node) {
			k, v, embedded, err := decodeLeaf(node)
			if err != nil {
				return nil, false, err
			}
			if !bytes.Equal(k, path[:leafKeySize]) {
				return nil, false, nil
			}
			if embedded {
				return append([]byte{}, v...), true, nil
			}
			var hk [HashSize]byte
			copy(hk[:], v)
			preimage, ok := preimages[hk]
			if !ok {
				return nil, false, fmt.Errorf("%w: value preimage %x", ErrIncompleteProof, v)
			}
			return append([]byte{}, preimage...), true, nil
		}
		if depth >= 8*HashSize {
			return nil, false, fmt.Errorf("%w: path deeper than key", ErrInvalidNode)
		}
		if bit(path[:], depth) {
			cur, full = node[32:64], true
		} else {
			cur, full = node[0:32], false
		}
	}
}
