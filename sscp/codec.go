package sscp

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Encode encodes value as the fixed-width big-endian representation of t.
//
// The value can be a bool, any Go integer or float type, or a numeric string.
// Integers that don't fit into t fail with ErrValueOutOfRange; they are never truncated.
func Encode(t VariableType, value any) ([]byte, error) {
	return AppendValue(make([]byte, 0, t.Size()), t, value)
}

// AppendValue appends the encoded value of type t to dst and returns the extended buffer.
func AppendValue(dst []byte, t VariableType, value any) ([]byte, error) {
	if !t.Valid() {
		return dst, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(t))
	}

	num, err := toNumber(value)
	if err != nil {
		return dst, fmt.Errorf("%w: %v as %s", err, value, t)
	}

	switch t {
	case TypeBool:
		if num.isZero() {
			return append(dst, 0), nil
		}
		return append(dst, 1), nil

	case TypeReal:
		f := num.float()
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return dst, fmt.Errorf("%w: %v as %s", ErrValueOutOfRange, value, t)
		}
		return binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(f))), nil

	case TypeLreal:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(num.float())), nil
	}

	bits, err := integerBits(t, num)
	if err != nil {
		return dst, fmt.Errorf("%w: %v as %s", err, value, t)
	}

	switch t.Size() {
	case 1:
		return append(dst, byte(bits)), nil
	case 2:
		return binary.BigEndian.AppendUint16(dst, uint16(bits)), nil
	case 4:
		return binary.BigEndian.AppendUint32(dst, uint32(bits)), nil
	default:
		return binary.BigEndian.AppendUint64(dst, bits), nil
	}
}

// Decode decodes data as a value of type t.
//
// len(data) must be exactly t.Size(), otherwise ErrInvalidPayloadLength is returned.
//
// The returned Go types are:
//   - BOOL: bool
//   - BYTE: uint8
//   - WORD, UINT: uint16
//   - INT: int16
//   - DINT: int32
//   - UDINT: uint32
//   - LINT: int64
//   - REAL: float32
//   - LREAL: float64
func Decode(t VariableType, data []byte) (any, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(t))
	}

	if len(data) != t.Size() {
		return nil, fmt.Errorf("%w: %s expects %d bytes, got %d", ErrInvalidPayloadLength, t, t.Size(), len(data))
	}

	switch t {
	case TypeBool:
		return data[0] != 0, nil
	case TypeByte:
		return data[0], nil
	case TypeWord, TypeUint:
		return binary.BigEndian.Uint16(data), nil
	case TypeInt:
		return int16(binary.BigEndian.Uint16(data)), nil //nolint:gosec
	case TypeDint:
		return int32(binary.BigEndian.Uint32(data)), nil //nolint:gosec
	case TypeUdint:
		return binary.BigEndian.Uint32(data), nil
	case TypeLint:
		return int64(binary.BigEndian.Uint64(data)), nil //nolint:gosec
	case TypeReal:
		return math.Float32frombits(binary.BigEndian.Uint32(data)), nil
	default: // TypeLreal
		return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
	}
}

type numKind uint8

const (
	signedNum numKind = iota
	unsignedNum
	floatNum
)

// number holds a caller value normalized to one of three numeric kinds.
type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func (n number) isZero() bool {
	switch n.kind {
	case signedNum:
		return n.i == 0
	case unsignedNum:
		return n.u == 0
	default:
		return n.f == 0
	}
}

func (n number) float() float64 {
	switch n.kind {
	case signedNum:
		return float64(n.i)
	case unsignedNum:
		return float64(n.u)
	default:
		return n.f
	}
}

func toNumber(value any) (number, error) {
	switch v := value.(type) {
	case bool:
		if v {
			return number{kind: unsignedNum, u: 1}, nil
		}
		return number{kind: unsignedNum}, nil
	case int:
		return number{kind: signedNum, i: int64(v)}, nil
	case int8:
		return number{kind: signedNum, i: int64(v)}, nil
	case int16:
		return number{kind: signedNum, i: int64(v)}, nil
	case int32:
		return number{kind: signedNum, i: int64(v)}, nil
	case int64:
		return number{kind: signedNum, i: v}, nil
	case uint:
		return number{kind: unsignedNum, u: uint64(v)}, nil
	case uint8:
		return number{kind: unsignedNum, u: uint64(v)}, nil
	case uint16:
		return number{kind: unsignedNum, u: uint64(v)}, nil
	case uint32:
		return number{kind: unsignedNum, u: uint64(v)}, nil
	case uint64:
		return number{kind: unsignedNum, u: v}, nil
	case float32:
		return number{kind: floatNum, f: float64(v)}, nil
	case float64:
		return number{kind: floatNum, f: v}, nil
	case string:
		return parseNumber(v)
	default:
		return number{}, ErrInvalidValue
	}
}

func parseNumber(s string) (number, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return number{kind: signedNum, i: i}, nil
	}
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return number{kind: unsignedNum, u: u}, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return number{kind: floatNum, f: f}, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return toNumber(b)
	}

	return number{}, ErrInvalidValue
}

// integerBits range-checks n against the integer type t and returns its two's complement bits.
func integerBits(t VariableType, n number) (uint64, error) {
	if n.kind == floatNum {
		f := n.f
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, ErrInvalidValue
		}
		switch {
		case f < 0 && f >= math.MinInt64:
			n = number{kind: signedNum, i: int64(f)}
		case f >= 0 && f < math.MaxUint64:
			n = number{kind: unsignedNum, u: uint64(f)}
		default:
			return 0, ErrValueOutOfRange
		}
	}

	bitSize := uint(t.Size() * 8)

	if t.IsSigned() {
		maxVal := int64(1)<<(bitSize-1) - 1
		minVal := -maxVal - 1
		if n.kind == unsignedNum {
			if n.u > uint64(maxVal) {
				return 0, ErrValueOutOfRange
			}
			return n.u, nil
		}
		if n.i < minVal || n.i > maxVal {
			return 0, ErrValueOutOfRange
		}
		return uint64(n.i), nil //nolint:gosec
	}

	maxVal := uint64(1)<<bitSize - 1
	if n.kind == signedNum {
		if n.i < 0 {
			return 0, ErrValueOutOfRange
		}
		n = number{kind: unsignedNum, u: uint64(n.i)}
	}
	if n.u > maxVal {
		return 0, ErrValueOutOfRange
	}

	return n.u, nil
}
