package evm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/colorfulnotion/sidechain/common"
	"github.com/holiman/uint256"
)

// U256 is an EVM word, SCALE encoded as 32 little endian bytes.
type U256 uint256.Int

func NewU256(v uint64) U256 {
	return U256(*uint256.NewInt(v))
}

func (u U256) Int() *uint256.Int {
	v := uint256.Int(u)
	return &v
}

func (u U256) IsZero() bool { return u.Int().IsZero() }

func (u U256) String() string { return u.Int().Dec() }

func (u U256) MarshalSCALE() ([]byte, error) {
	out := make([]byte, 32)
	for i, limb := range uint256.Int(u) {
		binary.LittleEndian.PutUint64(out[i*8:], limb)
	}
	return out, nil
}

func (u *U256) UnmarshalSCALE(r io.Reader) error {
	var raw [32]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return fmt.Errorf("U256: %w", err)
	}
	var v uint256.Int
	for i := range v {
		v[i] = binary.LittleEndian.Uint64(raw[i*8:])
	}
	*u = U256(v)
	return nil
}

// Balance narrows the word to a native balance.
func (u U256) Balance() (common.Balance, error) {
	if u.Int().BitLen() > 128 {
		return common.Balance{}, ErrValueOverflow
	}
	return common.Balance(u), nil
}

// AccessListItem pre-declares the storage slots a transaction touches.
type AccessListItem struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// AccountOf is the substrate account backing an EVM address:
// blake2_256("evm:" ++ address).
func AccountOf(addr common.Address) common.AccountId {
	return common.AccountId(common.Blake2_256(append([]byte("evm:"), addr[:]...)))
}

// AddressOf truncates a substrate account to the EVM address it controls.
func AddressOf(who common.AccountId) common.Address {
	return common.BytesToAddress(who[:20])
}
