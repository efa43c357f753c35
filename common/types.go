package common

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/holiman/uint256"
)

// AccountId is a 32 byte public-key derived identity.
type AccountId [32]byte

func (a AccountId) Bytes() []byte {
	return a[:]
}

func (a AccountId) Hex() string {
	return Bytes2Hex(a[:])
}

func (a AccountId) String() string {
	return a.Hex()
}

// Short renders the first and last two bytes, for logs.
func (a AccountId) Short() string {
	h := a.Hex()
	return fmt.Sprintf("%s..%s", h[2:6], h[len(h)-4:])
}

func (a AccountId) IsZero() bool {
	return a == AccountId{}
}

func BytesToAccountId(b []byte) AccountId {
	var a AccountId
	if len(b) > len(a) {
		b = b[len(b)-len(a):]
	}
	copy(a[len(a)-len(b):], b)
	return a
}

func HexToAccountId(s string) AccountId {
	return BytesToAccountId(FromHex(s))
}

func (a AccountId) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

func (a *AccountId) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	*a = HexToAccountId(hexStr)
	return nil
}

// MrEnclave identifies the enclave build.
type MrEnclave [32]byte

func (m MrEnclave) MarshalJSON() ([]byte, error) {
	return json.Marshal(Bytes2Hex(m[:]))
}

func (m *MrEnclave) UnmarshalJSON(data []byte) error {
	var h Hash
	if err := h.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = MrEnclave(h)
	return nil
}

// ShardIdentifier names a state partition.
type ShardIdentifier = Hash

const balanceBytes = 16

var maxBalance = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// Balance is an unsigned 128 bit amount, SCALE encoded as 16 little endian bytes.
type Balance uint256.Int

func NewBalance(v uint64) Balance {
	return Balance(*uint256.NewInt(v))
}

// ParseBalance parses a decimal amount.
func ParseBalance(s string) (Balance, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Balance{}, fmt.Errorf("ParseBalance %q: %w", s, err)
	}
	if v.Gt(maxBalance) {
		return Balance{}, fmt.Errorf("ParseBalance %q: exceeds u128", s)
	}
	return Balance(*v), nil
}

func (b Balance) Int() *uint256.Int {
	v := uint256.Int(b)
	return &v
}

// Add returns b+o and whether the sum exceeds u128.
func (b Balance) Add(o Balance) (Balance, bool) {
	sum, overflow := new(uint256.Int).AddOverflow(b.Int(), o.Int())
	if overflow || sum.Gt(maxBalance) {
		return b, true
	}
	return Balance(*sum), false
}

// Sub returns b-o and whether it underflows.
func (b Balance) Sub(o Balance) (Balance, bool) {
	if b.Int().Lt(o.Int()) {
		return b, true
	}
	return Balance(*new(uint256.Int).Sub(b.Int(), o.Int())), false
}

func (b Balance) Cmp(o Balance) int {
	return b.Int().Cmp(o.Int())
}

func (b Balance) Lt(o Balance) bool {
	return b.Int().Lt(o.Int())
}

func (b Balance) IsZero() bool {
	return b.Int().IsZero()
}

func (b Balance) Uint64() uint64 {
	return b.Int().Uint64()
}

func (b Balance) String() string {
	return b.Int().Dec()
}

func (b Balance) MarshalSCALE() ([]byte, error) {
	out := make([]byte, balanceBytes)
	binary.LittleEndian.PutUint64(out[0:8], b[0])
	binary.LittleEndian.PutUint64(out[8:16], b[1])
	return out, nil
}

func (b *Balance) UnmarshalSCALE(r io.Reader) error {
	buf := make([]byte, balanceBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("Balance: %w", err)
	}
	*b = Balance{binary.LittleEndian.Uint64(buf[0:8]), binary.LittleEndian.Uint64(buf[8:16])}
	return nil
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseBalance(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}
