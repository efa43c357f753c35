package common

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/sidechain/codec"
)

// StorageHasher names the hash applied to a map key before it is appended
// to the storage prefix.
type StorageHasher uint8

const (
	Blake2_128Hasher StorageHasher = iota
	Blake2_256Hasher
	Blake2_128ConcatHasher
	Twox128Hasher
	Twox256Hasher
	Twox64ConcatHasher
	IdentityHasher
)

func (h StorageHasher) String() string {
	switch h {
	case Blake2_128Hasher:
		return "Blake2_128"
	case Blake2_256Hasher:
		return "Blake2_256"
	case Blake2_128ConcatHasher:
		return "Blake2_128Concat"
	case Twox128Hasher:
		return "Twox128"
	case Twox256Hasher:
		return "Twox256"
	case Twox64ConcatHasher:
		return "Twox64Concat"
	case IdentityHasher:
		return "Identity"
	}
	return fmt.Sprintf("StorageHasher(%d)", uint8(h))
}

// ParseStorageHasher maps a hasher name back to its value.
func ParseStorageHasher(s string) (StorageHasher, error) {
	for h := Blake2_128Hasher; h <= IdentityHasher; h++ {
		if h.String() == s {
			return h, nil
		}
	}
	return 0, fmt.Errorf("unknown storage hasher %q", s)
}

// Hash applies the hasher to already encoded key material.
func (h StorageHasher) Hash(data []byte) []byte {
	switch h {
	case Blake2_128Hasher:
		out := Blake2_128(data)
		return out[:]
	case Blake2_256Hasher:
		out := Blake2_256(data)
		return out[:]
	case Blake2_128ConcatHasher:
		return Blake2_128Concat(data)
	case Twox128Hasher:
		out := Twox128(data)
		return out[:]
	case Twox256Hasher:
		out := make([]byte, 32)
		for seed := uint64(0); seed < 4; seed++ {
			binary.LittleEndian.PutUint64(out[seed*8:], xxhashSeeded(data, seed))
		}
		return out
	case Twox64ConcatHasher:
		return Twox64Concat(data)
	}
	return append([]byte{}, data...)
}

// StorageValueKey is twox128(pallet) ++ twox128(item).
func StorageValueKey(pallet, item string) []byte {
	p := Twox128([]byte(pallet))
	i := Twox128([]byte(item))
	out := make([]byte, 0, 32)
	out = append(out, p[:]...)
	return append(out, i[:]...)
}

// StorageMapKey appends hasher(encode(key)) to the value key of pallet/item.
func StorageMapKey(pallet, item string, key interface{}, hasher StorageHasher) []byte {
	out := StorageValueKey(pallet, item)
	return append(out, hasher.Hash(codec.MustMarshal(key))...)
}

// StorageDoubleMapKey appends both hashed keys in order.
func StorageDoubleMapKey(pallet, item string, key1 interface{}, hasher1 StorageHasher, key2 interface{}, hasher2 StorageHasher) []byte {
	out := StorageMapKey(pallet, item, key1, hasher1)
	return append(out, hasher2.Hash(codec.MustMarshal(key2))...)
}
