package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
)

// indirect walks down v allocating pointers as needed, until it gets to a non-pointer.
func indirect(dstv reflect.Value) (elem reflect.Value) {
	dstv0 := dstv
	haveAddr := false
	for {
		if dstv.Kind() == reflect.Interface && !dstv.IsNil() {
			e := dstv.Elem()
			if e.Kind() == reflect.Ptr && !e.IsNil() && e.Elem().Kind() == reflect.Ptr {
				haveAddr = false
				dstv = e
				continue
			}
		}
		if dstv.Kind() != reflect.Ptr {
			break
		}
		if dstv.CanSet() {
			break
		}
		if dstv.Elem().Kind() == reflect.Interface && dstv.Elem().Elem() == dstv {
			dstv = dstv.Elem()
			break
		}
		if dstv.IsNil() {
			dstv.Set(reflect.New(dstv.Type().Elem()))
		}
		if haveAddr {
			dstv = dstv0
			haveAddr = false
		} else {
			dstv = dstv.Elem()
		}
	}
	elem = dstv
	return
}

// Unmarshal takes data and a destination pointer to unmarshal the data to.
func Unmarshal(data []byte, dst interface{}) (err error) {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		err = fmt.Errorf("%w: %T", ErrUnsupportedDestination, dst)
		return
	}

	ds := decodeState{bytes.NewBuffer(data)}
	return ds.unmarshal(indirect(dstv))
}

// Decoder is used to decode from an io.Reader
type Decoder struct {
	decodeState
}

// Decode accepts a pointer to a destination and decodes into the supplied destination
func (d *Decoder) Decode(dst interface{}) (err error) {
	dstv := reflect.ValueOf(dst)
	if dstv.Kind() != reflect.Ptr || dstv.IsNil() {
		err = fmt.Errorf("%w: %T", ErrUnsupportedDestination, dst)
		return
	}
	return d.unmarshal(indirect(dstv))
}

// NewDecoder is constructor for Decoder
func NewDecoder(r io.Reader) (d *Decoder) {
	d = &Decoder{
		decodeState{r},
	}
	return
}

type decodeState struct {
	io.Reader
}

func (ds *decodeState) unmarshal(dstv reflect.Value) (err error) {
	if dstv.CanAddr() {
		addr := dstv.Addr().Interface()
		if u, ok := addr.(Unmarshaler); ok {
			return u.UnmarshalSCALE(ds.Reader)
		}
		if vdt, ok := addr.(VaryingDataType); ok {
			return ds.decodeVaryingDataType(vdt)
		}
	}

	in := dstv.Interface()
	switch in.(type) {
	case int, uint, Compact:
		err = ds.decodeUint(dstv)
	case int8, uint8, int16, uint16, int32, uint32, int64, uint64:
		err = ds.decodeFixedWidthInt(dstv)
	case []byte:
		err = ds.decodeBytes(dstv)
	case string:
		err = ds.decodeBytes(dstv)
	case bool:
		err = ds.decodeBool(dstv)
	default:
		t := reflect.TypeOf(in)
		switch t.Kind() {
		case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16,
			reflect.Int32, reflect.Int64, reflect.String, reflect.Uint,
			reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			err = ds.decodeCustomPrimitive(dstv)
		case reflect.Ptr:
			err = ds.decodePointer(dstv)
		case reflect.Struct:
			err = ds.decodeStruct(dstv)
		case reflect.Array:
			err = ds.decodeArray(dstv)
		case reflect.Slice:
			err = ds.decodeSlice(dstv)
		default:
			err = fmt.Errorf("%w: %T", ErrUnsupportedType, in)
		}
	}
	return
}

var primitiveTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:   reflect.TypeOf(false),
	reflect.Int:    reflect.TypeOf(int(0)),
	reflect.Int8:   reflect.TypeOf(int8(0)),
	reflect.Int16:  reflect.TypeOf(int16(0)),
	reflect.Int32:  reflect.TypeOf(int32(0)),
	reflect.Int64:  reflect.TypeOf(int64(0)),
	reflect.String: reflect.TypeOf(""),
	reflect.Uint:   reflect.TypeOf(uint(0)),
	reflect.Uint8:  reflect.TypeOf(uint8(0)),
	reflect.Uint16: reflect.TypeOf(uint16(0)),
	reflect.Uint32: reflect.TypeOf(uint32(0)),
	reflect.Uint64: reflect.TypeOf(uint64(0)),
}

// decodeCustomPrimitive decodes named types whose underlying type is a primitive
func (ds *decodeState) decodeCustomPrimitive(dstv reflect.Value) (err error) {
	inType := dstv.Type()
	base, ok := primitiveTypes[inType.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, inType)
	}
	temp := reflect.New(base)
	if err = ds.unmarshal(temp.Elem()); err != nil {
		return
	}
	dstv.Set(temp.Elem().Convert(inType))
	return
}

func (ds *decodeState) ReadByte() (byte, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(ds.Reader, b)
	return b[0], err
}

func (ds *decodeState) readFull(buf []byte) error {
	_, err := io.ReadFull(ds.Reader, buf)
	if err == io.EOF && len(buf) > 0 {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (ds *decodeState) decodePointer(dstv reflect.Value) (err error) {
	var rb byte
	rb, err = ds.ReadByte()
	if err != nil {
		return
	}
	switch rb {
	case 0x00:
		dstv.Set(reflect.Zero(dstv.Type()))
	case 0x01:
		elemType := dstv.Type().Elem()
		tempElem := reflect.New(elemType)
		err = ds.unmarshal(tempElem.Elem())
		if err != nil {
			return
		}
		dstv.Set(tempElem)
	default:
		err = fmt.Errorf("%w: value: %v", ErrUnsupportedOption, rb)
	}
	return
}

func (ds *decodeState) decodeVaryingDataType(vdt VaryingDataType) (err error) {
	var b byte
	b, err = ds.ReadByte()
	if err != nil {
		return
	}

	val, err := vdt.ValueAt(uint(b))
	if err != nil {
		err = fmt.Errorf("%w: for key %d %v", ErrUnknownVaryingDataTypeValue, uint(b), err)
		return
	}

	tempVal := reflect.New(reflect.TypeOf(val))
	tempVal.Elem().Set(reflect.ValueOf(val))
	err = ds.unmarshal(tempVal.Elem())
	if err != nil {
		return
	}
	err = vdt.SetValue(tempVal.Elem().Interface())
	return
}

func (ds *decodeState) decodeSlice(dstv reflect.Value) (err error) {
	l, err := ds.decodeLength()
	if err != nil {
		return
	}
	if l > math.MaxUint32 {
		return fmt.Errorf("slice length %d exceeds max value of uint32", l)
	}
	elemType := dstv.Type().Elem()
	temp := reflect.MakeSlice(dstv.Type(), 0, 0)
	for i := uint(0); i < l; i++ {
		tempElem := reflect.New(elemType).Elem()
		err = ds.unmarshal(tempElem)
		if err != nil {
			return
		}
		temp = reflect.Append(temp, tempElem)
	}
	dstv.Set(temp)
	return
}

func (ds *decodeState) decodeArray(dstv reflect.Value) (err error) {
	temp := reflect.New(dstv.Type()).Elem()
	if dstv.Type().Elem().Kind() == reflect.Uint8 {
		buf := make([]byte, temp.Len())
		if err = ds.readFull(buf); err != nil {
			return
		}
		reflect.Copy(temp, reflect.ValueOf(buf))
		dstv.Set(temp)
		return
	}
	for i := 0; i < temp.Len(); i++ {
		err = ds.unmarshal(temp.Index(i))
		if err != nil {
			return
		}
	}
	dstv.Set(temp)
	return
}

// FieldIndex represents an index of a field within a struct.
type FieldIndex struct {
	fieldIndex int
}

// fieldScaleIndicesCache resolves the encodable fields of a struct.
type fieldScaleIndicesCache struct{}

// fieldScaleIndices retrieves the indices of all exported fields in the struct.
func (c *fieldScaleIndicesCache) fieldScaleIndices(v interface{}) (reflect.Value, []FieldIndex, error) {
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("expected a struct, got %T", v)
	}

	typ := value.Type()
	var indices []FieldIndex
	for i := 0; i < value.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" || field.Tag.Get("scale") == "-" {
			continue
		}
		indices = append(indices, FieldIndex{fieldIndex: i})
	}
	return value, indices, nil
}

var cache = &fieldScaleIndicesCache{}

// decodeStruct decodes fields in declaration order
func (ds *decodeState) decodeStruct(dstv reflect.Value) (err error) {
	in := dstv.Interface()
	v, indices, err := cache.fieldScaleIndices(in)
	if err != nil {
		return fmt.Errorf("failed to get field indices: %w", err)
	}

	temp := reflect.New(v.Type()).Elem()
	for _, index := range indices {
		field := temp.Field(index.fieldIndex)
		if !field.CanInterface() {
			continue
		}
		err = ds.unmarshal(field)
		if err != nil {
			return fmt.Errorf("field %s: %w", v.Type().Field(index.fieldIndex).Name, err)
		}
	}
	dstv.Set(temp)
	return nil
}

func (ds *decodeState) decodeBool(dstv reflect.Value) (err error) {
	rb, err := ds.ReadByte()
	if err != nil {
		return
	}

	var b bool
	switch rb {
	case 0x00:
	case 0x01:
		b = true
	default:
		err = fmt.Errorf("%w", errDecodeBool)
	}
	dstv.Set(reflect.ValueOf(b))
	return
}

// decodeUint decodes a compact encoded unsigned integer and rejects non-canonical forms
func (ds *decodeState) decodeUint(dstv reflect.Value) (err error) {
	const maxUint32 = ^uint32(0)
	prefix, err := ds.ReadByte()
	if err != nil {
		return fmt.Errorf("reading byte: %w", err)
	}

	mode := prefix % 4
	var value uint64
	switch mode {
	case 0:
		value = uint64(prefix >> 2)
	case 1:
		buf, err := ds.ReadByte()
		if err != nil {
			return fmt.Errorf("reading byte: %w", err)
		}
		value = uint64(binary.LittleEndian.Uint16([]byte{prefix, buf}) >> 2)
		if value <= 0b0011_1111 || value > 0b0111_1111_1111_1111 {
			return fmt.Errorf("%w: %d (%b)", ErrU16OutOfRange, value, value)
		}
	case 2:
		buf := make([]byte, 3)
		if err = ds.readFull(buf); err != nil {
			return fmt.Errorf("reading bytes: %w", err)
		}
		value = uint64(binary.LittleEndian.Uint32(append([]byte{prefix}, buf...)) >> 2)
		if value <= 0b0011_1111_1111_1111 || value > uint64(maxUint32>>2) {
			return fmt.Errorf("%w: %d (%b)", ErrU32OutOfRange, value, value)
		}
	case 3:
		byteLen := int(prefix>>2) + 4
		if byteLen > 8 {
			return fmt.Errorf("%w: %d", ErrCompactUintPrefixUnknown, prefix)
		}
		buf := make([]byte, 8)
		if err = ds.readFull(buf[:byteLen]); err != nil {
			return fmt.Errorf("reading bytes: %w", err)
		}
		value = binary.LittleEndian.Uint64(buf)
		if value <= uint64(maxUint32>>2) || (byteLen > 4 && value>>((byteLen-1)*8) == 0) {
			return fmt.Errorf("%w: %d (%b)", ErrU64OutOfRange, value, value)
		}
	}
	dstv.Set(reflect.ValueOf(value).Convert(dstv.Type()))
	return
}

// decodeLength is helper method which calls decodeUint and casts to uint
func (ds *decodeState) decodeLength() (l uint, err error) {
	dstv := reflect.New(reflect.TypeOf(l))
	err = ds.decodeUint(dstv.Elem())
	if err != nil {
		return 0, fmt.Errorf("decoding uint: %w", err)
	}
	l = dstv.Elem().Interface().(uint)
	return
}

// decodeBytes is used to decode with a destination of []byte or string type
func (ds *decodeState) decodeBytes(dstv reflect.Value) (err error) {
	length, err := ds.decodeLength()
	if err != nil {
		return
	}

	// bytes length in encoded as Compact<u32>, so it can't be more than math.MaxUint32
	if length > math.MaxUint32 {
		return fmt.Errorf("byte array length %d exceeds max value of uint32", length)
	}

	b, err := ds.readBytes(length)
	if err != nil {
		return
	}

	dstv.Set(reflect.ValueOf(b).Convert(dstv.Type()))
	return
}

// maxPrealloc bounds what a length prefix can allocate before the bytes
// behind it have been read.
const maxPrealloc = 1 << 16

func (ds *decodeState) readBytes(length uint) ([]byte, error) {
	if length <= maxPrealloc {
		b := make([]byte, length)
		if length > 0 {
			if err := ds.readFull(b); err != nil {
				return nil, err
			}
		}
		return b, nil
	}
	b := make([]byte, 0, maxPrealloc)
	for uint(len(b)) < length {
		n := min(length-uint(len(b)), maxPrealloc)
		start := len(b)
		b = append(b, make([]byte, n)...)
		if err := ds.readFull(b[start:]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// decodeFixedWidthInt decodes fixed width little endian integers
func (ds *decodeState) decodeFixedWidthInt(dstv reflect.Value) (err error) {
	in := dstv.Interface()
	var out interface{}
	switch in.(type) {
	case int8:
		var b byte
		b, err = ds.ReadByte()
		out = int8(b)
	case uint8:
		var b byte
		b, err = ds.ReadByte()
		out = b
	case int16:
		buf := make([]byte, 2)
		err = ds.readFull(buf)
		out = int16(binary.LittleEndian.Uint16(buf))
	case uint16:
		buf := make([]byte, 2)
		err = ds.readFull(buf)
		out = binary.LittleEndian.Uint16(buf)
	case int32:
		buf := make([]byte, 4)
		err = ds.readFull(buf)
		out = int32(binary.LittleEndian.Uint32(buf))
	case uint32:
		buf := make([]byte, 4)
		err = ds.readFull(buf)
		out = binary.LittleEndian.Uint32(buf)
	case int64:
		buf := make([]byte, 8)
		err = ds.readFull(buf)
		out = int64(binary.LittleEndian.Uint64(buf))
	case uint64:
		buf := make([]byte, 8)
		err = ds.readFull(buf)
		out = binary.LittleEndian.Uint64(buf)
	default:
		err = fmt.Errorf("invalid type: %T", in)
	}
	if err != nil {
		return
	}
	dstv.Set(reflect.ValueOf(out))
	return
}
