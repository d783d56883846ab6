package sscp

import (
	"fmt"
	"strconv"
	"strings"
)

// VariableType identifies the fixed-width scalar kind of a PLC variable.
type VariableType uint8

// Variable types supported by the codec.
const (
	TypeBool VariableType = iota + 1
	TypeByte
	TypeWord
	TypeInt
	TypeUint
	TypeDint
	TypeUdint
	TypeLint
	TypeReal
	TypeLreal
)

type typeInfo struct {
	name   string
	size   int
	signed bool
	float  bool
}

var typeInfos = map[VariableType]typeInfo{
	TypeBool:  {name: "BOOL", size: 1},
	TypeByte:  {name: "BYTE", size: 1},
	TypeWord:  {name: "WORD", size: 2},
	TypeInt:   {name: "INT", size: 2, signed: true},
	TypeUint:  {name: "UINT", size: 2},
	TypeDint:  {name: "DINT", size: 4, signed: true},
	TypeUdint: {name: "UDINT", size: 4},
	TypeLint:  {name: "LINT", size: 8, signed: true},
	TypeReal:  {name: "REAL", size: 4, signed: true, float: true},
	TypeLreal: {name: "LREAL", size: 8, signed: true, float: true},
}

// Valid reports whether t is a known variable type.
func (t VariableType) Valid() bool {
	_, ok := typeInfos[t]
	return ok
}

// Size returns the fixed wire width of t in bytes, or 0 for an unknown type.
func (t VariableType) Size() int {
	return typeInfos[t].size
}

// IsSigned reports whether t holds signed values. Floating point types are signed.
func (t VariableType) IsSigned() bool {
	return typeInfos[t].signed
}

// IsFloat reports whether t is an IEEE754 type.
func (t VariableType) IsFloat() bool {
	return typeInfos[t].float
}

// String returns the PLC name of the type, e.g. "UDINT".
func (t VariableType) String() string {
	if info, ok := typeInfos[t]; ok {
		return info.name
	}

	return "TYPE_" + strconv.Itoa(int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t VariableType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *VariableType) UnmarshalText(text []byte) error {
	vt, err := ParseVariableType(string(text))
	if err != nil {
		return err
	}
	*t = vt

	return nil
}

// ParseVariableType parses a type name such as "dint" or "$REAL".
//
// The match is case-insensitive, and the '$' decoration used by project variable lists is ignored.
func ParseVariableType(name string) (VariableType, error) {
	key := strings.ToUpper(strings.Trim(strings.TrimSpace(name), "$"))
	for t, info := range typeInfos {
		if info.name == key {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// Variable describes a PLC project variable addressed by its UID.
//
// Offset and Length form the optional sub-addressing qualifier. An Offset of 0 means
// the qualifier is absent and Length is not sent.
type Variable struct {
	UID    uint32
	Offset uint32
	Length uint32
	Type   VariableType
}

// HasQualifier reports whether the offset/length qualifier is sent on the wire.
func (v Variable) HasQualifier() bool {
	return v.Offset != 0
}

func (v Variable) flags() byte {
	if v.HasQualifier() {
		return FlagQualifier
	}

	return 0
}

// String returns a short representation used in logs.
func (v Variable) String() string {
	if v.HasQualifier() {
		return fmt.Sprintf("uid=%d offset=%d length=%d type=%s", v.UID, v.Offset, v.Length, v.Type)
	}

	return fmt.Sprintf("uid=%d type=%s", v.UID, v.Type)
}

// ParseStationAddress parses a station address written as hex, with or without the "0x" prefix.
func ParseStationAddress(s string) (byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, ErrInvalidStationAddress
	}

	val, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStationAddress, s)
	}

	return byte(val), nil
}
