package common

import (
	"encoding/json"
	"fmt"

	ethereumCommon "github.com/ethereum/go-ethereum/common"
)

// Hash is a 32-byte storage root, call hash, shard or runtime hash.
type Hash ethereumCommon.Hash

// Address is a 20-byte EVM address.
type Address ethereumCommon.Address

func BytesToHash(b []byte) Hash { return Hash(ethereumCommon.BytesToHash(b)) }

// HexToHash parses a 0x prefixed hash, left padding short input.
func HexToHash(s string) Hash { return Hash(ethereumCommon.HexToHash(s)) }

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) Hex() string    { return ethereumCommon.Hash(h).Hex() }
func (h Hash) String() string { return h.Hex() }

// String_short keeps the first and last two bytes, for log lines.
func (h Hash) String_short() string {
	s := h.Hex()
	return fmt.Sprintf("%s..%s", s[2:6], s[62:66])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = HexToHash(s)
	return nil
}

func BytesToAddress(b []byte) Address { return Address(ethereumCommon.BytesToAddress(b)) }

// String is the EIP-55 checksummed form.
func (a Address) String() string { return ethereumCommon.Address(a).Hex() }

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// Bytes2Hex is the 0x prefixed hex form of d.
func Bytes2Hex(d []byte) string {
	return "0x" + ethereumCommon.Bytes2Hex(d)
}

// FromHex decodes hex with or without the 0x prefix; odd length is left padded.
func FromHex(s string) []byte {
	return ethereumCommon.FromHex(s)
}
