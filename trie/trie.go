package trie

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/colorfulnotion/sidechain/storage"
)

// Node represents a node in the built tree
type Node struct {
	Hash    []byte
	Encoded []byte
	Path    []byte
	Value   []byte
	Left    *Node
	Right   *Node
}

// Trie is a binary Patricia trie over storage keys. Each key is placed at
// path blake2_256(key); values are stored in the leaves.
type Trie struct {
	values map[[HashSize]byte][]byte
	root   *Node
	dirty  bool
}

func New() *Trie {
	return &Trie{values: make(map[[HashSize]byte][]byte)}
}

// FromPairs builds a trie over key/value pairs.
func FromPairs(kvs [][2][]byte) *Trie {
	t := New()
	for _, kv := range kvs {
		t.Insert(kv[0], kv[1])
	}
	return t
}

// KeyPath is the trie path of a storage key.
func KeyPath(key []byte) [HashSize]byte {
	return common.Blake2_256(key)
}

func (t *Trie) Insert(key, value []byte) {
	t.values[KeyPath(key)] = append([]byte{}, value...)
	t.dirty = true
}

func (t *Trie) Delete(key []byte) {
	path := KeyPath(key)
	if _, ok := t.values[path]; ok {
		delete(t.values, path)
		t.dirty = true
	}
}

func (t *Trie) Get(key []byte) ([]byte, bool) {
	v, ok := t.values[KeyPath(key)]
	return v, ok
}

func (t *Trie) Len() int {
	return len(t.values)
}

// Root returns the state root; the empty trie has the zero hash.
func (t *Trie) Root() common.Hash {
	t.build()
	if t.root == nil {
		return common.Hash{}
	}
	return common.BytesToHash(t.root.Hash)
}

func (t *Trie) build() {
	if !t.dirty && (t.root != nil || len(t.values) == 0) {
		return
	}
	t.dirty = false
	if len(t.values) == 0 {
		t.root = nil
		return
	}
	kvs := make([][2][]byte, 0, len(t.values))
	for path, v := range t.values {
		p := path
		kvs = append(kvs, [2][]byte{p[:], v})
	}
	sort.Slice(kvs, func(i, j int) bool { return bytes.Compare(kvs[i][0], kvs[j][0]) < 0 })
	t.root = buildMerkleTree(kvs, 0)
}

// buildMerkleTree constructs the tree from path-value pairs
func buildMerkleTree(kvs [][2][]byte, i int) *Node {
	if len(kvs) == 0 {
		return &Node{Hash: zeroHash}
	}
	if len(kvs) == 1 {
		encoded := leaf(kvs[0][0], kvs[0][1])
		return &Node{Hash: computeHash(encoded), Encoded: encoded, Path: kvs[0][0], Value: kvs[0][1]}
	}
	var l, r [][2][]byte
	for _, kv := range kvs {
		if bit(kv[0], i) {
			r = append(r, kv)
		} else {
			l = append(l, kv)
		}
	}
	left := buildMerkleTree(l, i+1)
	right := buildMerkleTree(r, i+1)
	encoded := branch(left.Hash, right.Hash)
	return &Node{Hash: computeHash(encoded), Encoded: encoded, Left: left, Right: right}
}

// Prove returns the nodes on the path of key from the root, followed by the
// value when it does not fit in its leaf. The same proof shows absence when
// the key is not present.
func (t *Trie) Prove(key []byte) [][]byte {
	t.build()
	path := KeyPath(key)
	var proof [][]byte
	n := t.root
	for depth := 0; n != nil && n.Encoded != nil; depth++ {
		proof = append(proof, n.Encoded)
		if n.Left == nil && n.Right == nil {
			if bytes.Equal(n.Path, path[:]) && len(n.Value) > maxEmbedded {
				proof = append(proof, n.Value)
			}
			break
		}
		if bit(path[:], depth) {
			n = n.Right
		} else {
			n = n.Left
		}
	}
	return proof
}

const (
	nodePrefix  = 'n'
	valuePrefix = 'v'
)

// Commit writes every node under its masked hash and every hashed leaf value
// under its hash, so proofs can later be served from the store alone.
func (t *Trie) Commit(ps *storage.PersistenceStore) (common.Hash, error) {
	root := t.Root()
	batch := ps.NewBatch()
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil || n.Encoded == nil {
			return
		}
		mk := maskedKey(n.Hash)
		batch.Put(append([]byte{nodePrefix}, mk[:]...), n.Encoded)
		if n.Left == nil && n.Right == nil && len(n.Value) > maxEmbedded {
			batch.Put(append([]byte{valuePrefix}, computeHash(n.Value)...), n.Value)
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(t.root)
	if err := ps.Write(batch); err != nil {
		return common.Hash{}, fmt.Errorf("trie commit: %w", err)
	}
	return root, nil
}

// ProveFromStore builds the proof for key under root from nodes written by Commit.
func ProveFromStore(ps *storage.PersistenceStore, root common.Hash, key []byte) ([][]byte, error) {
	path := KeyPath(key)
	var proof [][]byte
	cur := root.Bytes()
	for depth := 0; ; depth++ {
		if bytes.Equal(cur, zeroHash) {
			return proof, nil
		}
		mk := maskedKey(cur)
		node, ok, err := ps.Get(append([]byte{nodePrefix}, mk[:]...))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: node %x at depth %d", ErrIncompleteProof, cur, depth)
		}
		proof = append(proof, node)
		if isLeaf(node) {
			k, v, embedded, err := decodeLeaf(node)
			if err != nil {
				return nil, err
			}
			if !embedded && bytes.Equal(k, path[:leafKeySize]) {
				value, ok, err := ps.Get(append([]byte{valuePrefix}, v...))
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, fmt.Errorf("%w: value %x", ErrIncompleteProof, v)
				}
				proof = append(proof, value)
			}
			return proof, nil
		}
		if depth >= 8*HashSize {
			return nil, fmt.Errorf("%w: path deeper than key", ErrInvalidNode)
		}
		if bit(path[:], depth) {
			cur = node[32:64]
		} else {
			cur = node[0:32]
		}
	}
}
