package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	ErrU16OutOfRange               = errors.New("uint16 out of range")
	ErrU32OutOfRange               = errors.New("uint32 out of range")
	ErrU64OutOfRange               = errors.New("uint64 out of range")
	ErrCompactUintPrefixUnknown    = errors.New("unknown prefix for compact uint")
	ErrUnsupportedCustomPrimitive  = errors.New("unsupported custom primitive")
	ErrUnsupportedDestination      = errors.New("unsupported destination type")
	ErrUnsupportedType             = errors.New("unsupported type")
	ErrUnknownVaryingDataTypeValue = errors.New("unknown varying data type value")
	ErrUnsupportedOption           = errors.New("unsupported option")
	ErrTrailingBytes               = errors.New("trailing bytes after decoding")
	errDecodeBool                  = errors.New("failed to decode bool")
)

// Marshaler is the interface for custom SCALE marshalling for a given type
type Marshaler interface {
	MarshalSCALE() ([]byte, error)
}

// Unmarshaler is the interface for custom SCALE decoding for a given type
type Unmarshaler interface {
	UnmarshalSCALE(io.Reader) error
}

// EncodeVaryingDataType is implemented by enums: the index is written as a
// single byte followed by the encoded value.
type EncodeVaryingDataType interface {
	IndexValue() (int, interface{}, error)
}

// VaryingDataType is the decoding side of EncodeVaryingDataType.
type VaryingDataType interface {
	ValueAt(index uint) (interface{}, error)
	SetValue(interface{}) error
}

// Compact forces compact encoding of an unsigned integer.
type Compact uint64

// Encode serializes the given object using SCALE rules.
func Encode(obj interface{}) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	encoder := NewEncoder(buffer)

	err := encoder.Encode(obj)
	if err != nil {
		return nil, fmt.Errorf("encoding failed: %w", err)
	}

	return buffer.Bytes(), nil
}

// UnmarshalExact decodes data into dst and fails if bytes are left over.
func UnmarshalExact(data []byte, dst interface{}) error {
	r := bytes.NewReader(data)
	d := NewDecoder(r)
	if err := d.Decode(dst); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, r.Len())
	}
	return nil
}

// EncodeCompact returns the compact encoding of v.
func EncodeCompact(v uint64) []byte {
	buffer := bytes.NewBuffer(nil)
	es := encodeState{Writer: buffer, fieldScaleIndicesCache: cache}
	_ = es.encodeUint(uint(v))
	return buffer.Bytes()
}

// DecodeCompact reads a compact encoded integer from r.
func DecodeCompact(r io.Reader) (uint64, error) {
	ds := decodeState{r}
	l, err := ds.decodeLength()
	return uint64(l), err
}
