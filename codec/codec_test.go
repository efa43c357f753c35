package codec

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactVectors(t *testing.T) {
	testCases := []struct {
		value   uint64
		encoded []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x04}},
		{63, []byte{0xfc}},
		{64, []byte{0x01, 0x01}},
		{16383, []byte{0xfd, 0xff}},
		{16384, []byte{0x02, 0x00, 0x01, 0x00}},
		{1 << 30, []byte{0x03, 0x00, 0x00, 0x00, 0x40}},
		{1 << 32, []byte{0x07, 0x00, 0x00, 0x00, 0x00, 0x01}},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d", tc.value), func(t *testing.T) {
			assert.Equal(t, tc.encoded, EncodeCompact(tc.value))
			got, err := DecodeCompact(bytes.NewReader(tc.encoded))
			require.NoError(t, err)
			assert.Equal(t, tc.value, got)
		})
	}
}

func TestCompactRejectsNonCanonical(t *testing.T) {
	// 1 encoded in two-byte mode
	_, err := DecodeCompact(bytes.NewReader([]byte{0x05, 0x00}))
	assert.ErrorIs(t, err, ErrU16OutOfRange)

	_, err = DecodeCompact(bytes.NewReader([]byte{0x02, 0x01}))
	assert.Error(t, err)
}

type phase uint8

type sample struct {
	Who     [4]byte
	Amount  uint32
	Offset  int32
	Note    []byte
	Label   string
	Flag    bool
	Phase   phase
	Index   *uint64
	Entries []uint16
	skipped int
}

func TestStructRoundTrip(t *testing.T) {
	idx := uint64(7)
	in := sample{
		Who:     [4]byte{1, 2, 3, 4},
		Amount:  0x01020304,
		Offset:  -2,
		Note:    []byte("hi"),
		Label:   "cid",
		Flag:    true,
		Phase:   2,
		Index:   &idx,
		Entries: []uint16{1, 2},
	}
	b, err := Encode(in)
	require.NoError(t, err)
	expected := []byte{
		1, 2, 3, 4,
		0x04, 0x03, 0x02, 0x01,
		0xfe, 0xff, 0xff, 0xff,
		0x08, 'h', 'i',
		0x0c, 'c', 'i', 'd',
		0x01,
		0x02,
		0x01, 7, 0, 0, 0, 0, 0, 0, 0,
		0x08, 1, 0, 2, 0,
	}
	assert.Equal(t, expected, b)

	var out sample
	require.NoError(t, UnmarshalExact(b, &out))
	assert.Equal(t, in, out)
}

func TestOptionNone(t *testing.T) {
	var none *uint32
	b, err := Marshal(none)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, b)

	var out *uint32
	require.NoError(t, Unmarshal(b, &out))
	assert.Nil(t, out)

	require.Error(t, Unmarshal([]byte{0x02}, &out))
}

func TestTrailingBytes(t *testing.T) {
	var v uint16
	err := UnmarshalExact([]byte{1, 0, 9}, &v)
	assert.ErrorIs(t, err, ErrTrailingBytes)
}

func TestShortInput(t *testing.T) {
	var v uint64
	assert.Error(t, Unmarshal([]byte{1, 2, 3}, &v))

	var arr [8]byte
	assert.Error(t, Unmarshal([]byte{1, 2, 3}, &arr))
}

type vote struct {
	Aye bool
}

type motion struct {
	index int
	value interface{}
}

func (m motion) IndexValue() (int, interface{}, error) {
	return m.index, m.value, nil
}

func (m *motion) ValueAt(index uint) (interface{}, error) {
	switch index {
	case 0:
		return uint32(0), nil
	case 1:
		return vote{}, nil
	}
	return nil, fmt.Errorf("no variant %d", index)
}

func (m *motion) SetValue(v interface{}) error {
	switch v.(type) {
	case uint32:
		m.index = 0
	case vote:
		m.index = 1
	default:
		return fmt.Errorf("unexpected %T", v)
	}
	m.value = v
	return nil
}

func TestVaryingDataType(t *testing.T) {
	b, err := Encode(motion{index: 1, value: vote{Aye: true}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x01}, b)

	var out motion
	require.NoError(t, UnmarshalExact(b, &out))
	assert.Equal(t, 1, out.index)
	assert.Equal(t, vote{Aye: true}, out.value)

	err = Unmarshal([]byte{0x09}, &out)
	assert.ErrorIs(t, err, ErrUnknownVaryingDataTypeValue)
}

func TestNilRejected(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

// stamp encodes itself byte-reversed.
type stamp [3]byte

func (s stamp) MarshalSCALE() ([]byte, error) {
	return []byte{s[2], s[1], s[0]}, nil
}

func (s *stamp) UnmarshalSCALE(r io.Reader) error {
	var b [3]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	*s = stamp{b[2], b[1], b[0]}
	return nil
}

type stamped struct {
	At *stamp
	N  uint8
}

func TestOptionOfMarshaler(t *testing.T) {
	none, err := Marshal(stamped{N: 5})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 5}, none)

	var out stamped
	require.NoError(t, UnmarshalExact(none, &out))
	assert.Nil(t, out.At)

	at := stamp{1, 2, 3}
	some, err := Marshal(stamped{At: &at, N: 5})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 3, 2, 1, 5}, some)

	require.NoError(t, UnmarshalExact(some, &out))
	require.NotNil(t, out.At)
	assert.Equal(t, at, *out.At)
	assert.Equal(t, uint8(5), out.N)

	var nilStamp *stamp
	b, err := Marshal(nilStamp)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, b)
}

func TestLengthPrefixDoesNotPreallocate(t *testing.T) {
	// claims 2^32-1 bytes and carries one
	in := []byte{0x03, 0xff, 0xff, 0xff, 0xff, 0x00}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	var out []byte
	err := Unmarshal(in, &out)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestLargeBytesRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte{0xab, 0xcd, 0xef}, maxPrealloc)
	b, err := Marshal(in)
	require.NoError(t, err)

	var out []byte
	require.NoError(t, UnmarshalExact(b, &out))
	assert.Equal(t, in, out)
}
