package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
	"strconv"
)

// Fixed is a signed 64.64 fixed point number. It encodes as a little endian
// i128: the fractional word first, then the signed integer word.
type Fixed struct {
	Lo uint64
	Hi int64
}

const twoPow64 = 18446744073709551616.0

func FixedFromInt(v int64) Fixed {
	return Fixed{Hi: v}
}

// FixedFromFloat rounds toward negative infinity at 2^-64 resolution.
func FixedFromFloat(f float64) Fixed {
	hi := math.Floor(f)
	frac := (f - hi) * twoPow64
	var lo uint64
	if frac >= twoPow64 {
		lo = math.MaxUint64
	} else if frac > 0 {
		lo = uint64(frac)
	}
	return Fixed{Lo: lo, Hi: int64(hi)}
}

// ParseFixed accepts a decimal number such as "12.5".
func ParseFixed(s string) (Fixed, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Fixed{}, fmt.Errorf("ParseFixed %q: %w", s, err)
	}
	return FixedFromFloat(f), nil
}

func (f Fixed) Float64() float64 {
	return float64(f.Hi) + float64(f.Lo)/twoPow64
}

func (f Fixed) IsZero() bool {
	return f.Lo == 0 && f.Hi == 0
}

func (f Fixed) IsNegative() bool {
	return f.Hi < 0
}

// Add returns f+o and whether it overflowed.
func (f Fixed) Add(o Fixed) (Fixed, bool) {
	lo, carry := bits.Add64(f.Lo, o.Lo, 0)
	hiU, _ := bits.Add64(uint64(f.Hi), uint64(o.Hi), carry)
	hi := int64(hiU)
	overflow := (f.Hi >= 0) == (o.Hi >= 0) && (hi >= 0) != (f.Hi >= 0)
	return Fixed{Lo: lo, Hi: hi}, overflow
}

// Sub returns f-o and whether it overflowed.
func (f Fixed) Sub(o Fixed) (Fixed, bool) {
	lo, borrow := bits.Sub64(f.Lo, o.Lo, 0)
	hiU, _ := bits.Sub64(uint64(f.Hi), uint64(o.Hi), borrow)
	hi := int64(hiU)
	overflow := (f.Hi >= 0) != (o.Hi >= 0) && (hi >= 0) != (f.Hi >= 0)
	return Fixed{Lo: lo, Hi: hi}, overflow
}

func (f Fixed) Cmp(o Fixed) int {
	switch {
	case f.Hi < o.Hi:
		return -1
	case f.Hi > o.Hi:
		return 1
	case f.Lo < o.Lo:
		return -1
	case f.Lo > o.Lo:
		return 1
	}
	return 0
}

func (f Fixed) String() string {
	return strconv.FormatFloat(f.Float64(), 'f', -1, 64)
}

func (f Fixed) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Fixed) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseFixed(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// BalanceType is a community currency amount.
type BalanceType = Fixed

// Demurrage is the per-block decay rate of a community currency.
type Demurrage = Fixed

// Degree is a latitude or longitude.
type Degree = Fixed
