package trie

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

/*
Branch Node (64 bytes)
+-------------------------------------------------+
|    First 255 bits of left child node hash       |
+-------------------------------------------------+
|    Full 256 bits of right child node hash       |
+-------------------------------------------------+

Embedded-Value Leaf Node (64 bytes), value <= 32 bytes
+--------+------------------------------------------+
|  2 bits | 6 bits (value size) | 31 bytes (key)    |
+--------+------------------------------------------+
|              32 bytes (embedded value)            |
+---------------------------------------------------+

Regular Leaf Node (64 bytes), value > 32 bytes
+--------+------------------------------------------+
|  2 bits | 6 bits (0s) | 31 bytes (key)            |
+--------+------------------------------------------+
|               32 bytes (hash of value)            |
+---------------------------------------------------+
*/

const (
	NodeSize    = 64
	HashSize    = 32
	leafKeySize = 31
	maxEmbedded = 32
)

var (
	ErrInvalidNode     = errors.New("invalid trie node")
	ErrIncompleteProof = errors.New("proof is missing a node on the path")
	ErrRootMismatch    = errors.New("proof does not reconstruct the state root")
)

var zeroHash = make([]byte, HashSize)

// computeHash hashes the data using Blake2b-256
func computeHash(data []byte) []byte {
	h := blake2b.Sum256(data)
	return h[:]
}

// branch concatenates the left and right node hashes with a modified head
func branch(left, right []byte) []byte {
	if len(left) != HashSize || len(right) != HashSize {
		panic("branch: input hashes must be 32 bytes")
	}
	out := make([]byte, 0, NodeSize)
	out = append(out, left[0]&0xfe) // LSB of the first byte marks a branch
	out = append(out, left[1:]...)
	return append(out, right...)
}

// leaf encodes a key-value pair into a leaf node
func leaf(k, v []byte) []byte {
	out := make([]byte, NodeSize)
	copy(out[1:32], k) // truncated to 31 bytes
	if len(v) <= maxEmbedded {
		out[0] = byte(0b01 | (len(v) << 2))
		copy(out[32:], v)
	} else {
		out[0] = 0b11
		copy(out[32:], computeHash(v))
	}
	return out
}

func isLeaf(node []byte) bool {
	return node[0]&0b1 == 1
}

// decodeLeaf decodes a leaf node into its key and value/hash
func decodeLeaf(node []byte) (k []byte, v []byte, isEmbedded bool, err error) {
	if len(node) != NodeSize {
		return nil, nil, false, fmt.Errorf("%w: leaf length %d", ErrInvalidNode, len(node))
	}

	head := node[0]
	key := node[1:32]
	switch head & 0b11 {
	case 0b01:
		valueSize := int(head >> 2)
		if valueSize > maxEmbedded {
			return nil, nil, false, fmt.Errorf("%w: embedded size %d", ErrInvalidNode, valueSize)
		}
		return key, node[32 : 32+valueSize], true, nil
	case 0b11:
		if head>>2 != 0 {
			return nil, nil, false, fmt.Errorf("%w: regular leaf header %08b", ErrInvalidNode, head)
		}
		return key, node[32:64], false, nil
	}
	return nil, nil, false, fmt.Errorf("%w: leaf header %08b", ErrInvalidNode, head)
}

// bit returns bit i of k, least significant bit first within each byte
func bit(k []byte, i int) bool {
	byteIndex := i / 8
	if byteIndex >= len(k) {
		return false
	}
	mask := byte(1 << (i % 8))
	return k[byteIndex]&mask != 0
}

// maskedKey is the lookup key of a node hash as referenced from a branch,
// with the first byte LSB cleared.
func maskedKey(h []byte) [HashSize]byte {
	var out [HashSize]byte
	copy(out[:], h)
	out[0] &= 0xfe
	return out
}
