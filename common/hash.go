package common

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// ComputeHash computes the BLAKE2b-256 hash of the given data
func ComputeHash(data []byte) []byte {
	hash := blake2b.Sum256(data)
	return hash[:]
}

func Uint64ToBytes(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, val)
	return bytes
}

func Uint32ToBytes(val uint32) []byte {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, val)
	return bytes
}

func Blake2Hash(data []byte) Hash {
	return BytesToHash(ComputeHash(data))
}

// Blake2_256 is Blake2Hash returning the raw array.
func Blake2_256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

func Blake2_128(data []byte) [16]byte {
	var out [16]byte
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	copy(out[:], h.Sum(nil))
	return out
}

func Blake2_128Concat(data []byte) []byte {
	h := Blake2_128(data)
	out := make([]byte, 0, 16+len(data))
	out = append(out, h[:]...)
	return append(out, data...)
}

// Twox64 is xxhash64 with seed 0, little endian.
func Twox64(data []byte) [8]byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], xxhashSeeded(data, 0))
	return out
}

// Twox128 concatenates xxhash64 of data under seeds 0 and 1.
func Twox128(data []byte) [16]byte {
	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:8], xxhashSeeded(data, 0))
	binary.LittleEndian.PutUint64(out[8:16], xxhashSeeded(data, 1))
	return out
}

func Twox64Concat(data []byte) []byte {
	h := Twox64(data)
	out := make([]byte, 0, 8+len(data))
	out = append(out, h[:]...)
	return append(out, data...)
}

func xxhashSeeded(data []byte, seed uint64) uint64 {
	d := xxhash.NewWithSeed(seed)
	d.Write(data)
	return d.Sum64()
}

func Keccak256(data []byte) Hash {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	h := hash.Sum(nil)
	return BytesToHash(h)
}

func IsNilHash(h Hash) bool {
	return h == Hash{}
}
