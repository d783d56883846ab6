package sscp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		description string       // test case description
		varType     VariableType // variable type
		input       any          // value passed to Encode
		expected    any          // value returned by Decode
		expectedHex []byte       // expected result from Encode
	}{
		{"BOOL false", TypeBool, false, false, []byte{0x00}},
		{"BOOL true", TypeBool, true, true, []byte{0x01}},
		{"BOOL from 0", TypeBool, 0, false, []byte{0x00}},
		{"BOOL from 1", TypeBool, 1, true, []byte{0x01}},
		{"BYTE min", TypeByte, 0, uint8(0), []byte{0x00}},
		{"BYTE max", TypeByte, 255, uint8(255), []byte{0xff}},
		{"WORD max", TypeWord, math.MaxUint16, uint16(math.MaxUint16), []byte{0xff, 0xff}},
		{"WORD value", TypeWord, uint16(0x1234), uint16(0x1234), []byte{0x12, 0x34}},
		{"INT min", TypeInt, math.MinInt16, int16(math.MinInt16), []byte{0x80, 0x00}},
		{"INT max", TypeInt, math.MaxInt16, int16(math.MaxInt16), []byte{0x7f, 0xff}},
		{"INT -1", TypeInt, -1, int16(-1), []byte{0xff, 0xff}},
		{"UINT max", TypeUint, uint32(math.MaxUint16), uint16(math.MaxUint16), []byte{0xff, 0xff}},
		{"DINT min", TypeDint, math.MinInt32, int32(math.MinInt32), []byte{0x80, 0, 0, 0}},
		{"DINT max", TypeDint, int64(math.MaxInt32), int32(math.MaxInt32), []byte{0x7f, 0xff, 0xff, 0xff}},
		{"UDINT max", TypeUdint, uint64(math.MaxUint32), uint32(math.MaxUint32), []byte{0xff, 0xff, 0xff, 0xff}},
		{"UDINT from string", TypeUdint, "1700000000", uint32(1700000000), []byte{0x65, 0x53, 0xf1, 0x00}},
		{
			"LINT min", TypeLint, int64(math.MinInt64), int64(math.MinInt64),
			[]byte{0x80, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			"LINT max", TypeLint, int64(math.MaxInt64), int64(math.MaxInt64),
			[]byte{0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		},
		{"REAL 1.5", TypeReal, 1.5, float32(1.5), []byte{0x3f, 0xc0, 0x00, 0x00}},
		{"REAL -0.25", TypeReal, float32(-0.25), float32(-0.25), []byte{0xbe, 0x80, 0x00, 0x00}},
		{"REAL +Inf", TypeReal, math.Inf(1), float32(math.Inf(1)), []byte{0x7f, 0x80, 0x00, 0x00}},
		{"REAL from int", TypeReal, 3, float32(3), []byte{0x40, 0x40, 0x00, 0x00}},
		{"LREAL pi", TypeLreal, math.Pi, math.Pi, []byte{0x40, 0x09, 0x21, 0xfb, 0x54, 0x44, 0x2d, 0x18}},
		{"LREAL -Inf", TypeLreal, math.Inf(-1), math.Inf(-1), []byte{0xff, 0xf0, 0, 0, 0, 0, 0, 0}},
		{"DINT from integral float", TypeDint, 42.0, int32(42), []byte{0, 0, 0, 0x2a}},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		encoded, err := Encode(test.varType, test.input)
		require.NoError(err)
		require.Equal(test.expectedHex, encoded)
		require.Len(encoded, test.varType.Size())

		decoded, err := Decode(test.varType, encoded)
		require.NoError(err)
		require.Equal(test.expected, decoded)
	}
}

func TestCodec_NaNPassThrough(t *testing.T) {
	require := require.New(t)

	encoded, err := Encode(TypeReal, math.NaN())
	require.NoError(err)
	require.Len(encoded, 4)

	decoded, err := Decode(TypeReal, encoded)
	require.NoError(err)
	require.True(math.IsNaN(float64(decoded.(float32))))

	encoded, err = Encode(TypeLreal, math.NaN())
	require.NoError(err)

	decoded, err = Decode(TypeLreal, encoded)
	require.NoError(err)
	require.True(math.IsNaN(decoded.(float64)))
}

func TestCodec_UnsignedWraparound(t *testing.T) {
	require := require.New(t)

	// the same bytes decode differently depending on the trusted type
	data := []byte{0xff, 0xff}

	val, err := Decode(TypeWord, data)
	require.NoError(err)
	require.Equal(uint16(65535), val)

	val, err = Decode(TypeInt, data)
	require.NoError(err)
	require.Equal(int16(-1), val)

	val, err = Decode(TypeUdint, []byte{0xff, 0xff, 0xff, 0xfe})
	require.NoError(err)
	require.Equal(uint32(math.MaxUint32-1), val)

	val, err = Decode(TypeDint, []byte{0xff, 0xff, 0xff, 0xfe})
	require.NoError(err)
	require.Equal(int32(-2), val)

	val, err = Decode(TypeBool, []byte{0x7f})
	require.NoError(err)
	require.Equal(true, val)
}

func TestCodec_OutOfRange(t *testing.T) {
	tests := []struct {
		description string
		varType     VariableType
		input       any
	}{
		{"BYTE 256", TypeByte, 256},
		{"BYTE -1", TypeByte, -1},
		{"WORD 65536", TypeWord, 65536},
		{"INT 32768", TypeInt, 32768},
		{"INT -32769", TypeInt, -32769},
		{"UINT -1", TypeUint, int8(-1)},
		{"DINT 2^31", TypeDint, int64(math.MaxInt32) + 1},
		{"UDINT 2^32", TypeUdint, uint64(math.MaxUint32) + 1},
		{"LINT MaxUint64", TypeLint, uint64(math.MaxUint64)},
		{"REAL beyond float32", TypeReal, math.MaxFloat64},
		{"INT float too large", TypeInt, 1e10},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		encoded, err := Encode(test.varType, test.input)
		require.ErrorIs(err, ErrValueOutOfRange)
		require.ErrorIs(err, ErrCodec)
		require.Empty(encoded)
	}
}

func TestCodec_InvalidValue(t *testing.T) {
	require := require.New(t)

	_, err := Encode(TypeInt, "not a number")
	require.ErrorIs(err, ErrInvalidValue)

	_, err = Encode(TypeDint, 1.5)
	require.ErrorIs(err, ErrInvalidValue)

	_, err = Encode(TypeUdint, math.NaN())
	require.ErrorIs(err, ErrInvalidValue)

	_, err = Encode(TypeByte, []byte{1})
	require.ErrorIs(err, ErrInvalidValue)
}

func TestCodec_InvalidPayloadLength(t *testing.T) {
	require := require.New(t)

	types := []VariableType{
		TypeBool, TypeByte, TypeWord, TypeInt, TypeUint,
		TypeDint, TypeUdint, TypeLint, TypeReal, TypeLreal,
	}

	for _, vt := range types {
		for _, size := range []int{0, vt.Size() - 1, vt.Size() + 1, 16} {
			if size < 0 || size == vt.Size() {
				continue
			}

			val, err := Decode(vt, make([]byte, size))
			require.ErrorIs(err, ErrInvalidPayloadLength, "type %s size %d", vt, size)
			require.Nil(val)
		}
	}
}

func TestCodec_UnsupportedType(t *testing.T) {
	require := require.New(t)

	_, err := Encode(VariableType(0), 1)
	require.ErrorIs(err, ErrUnsupportedType)

	_, err = Decode(VariableType(99), []byte{1})
	require.ErrorIs(err, ErrUnsupportedType)
	require.ErrorIs(err, ErrCodec)
}

func TestParseVariableType(t *testing.T) {
	require := require.New(t)

	tests := map[string]VariableType{
		"BOOL":   TypeBool,
		"byte":   TypeByte,
		"Word":   TypeWord,
		"INT":    TypeInt,
		"uint":   TypeUint,
		"$DINT":  TypeDint,
		"UDINT$": TypeUdint,
		" lint ": TypeLint,
		"$REAL$": TypeReal,
		"lreal":  TypeLreal,
	}

	for name, expected := range tests {
		vt, err := ParseVariableType(name)
		require.NoError(err, name)
		require.Equal(expected, vt)
	}

	_, err := ParseVariableType("STRING")
	require.ErrorIs(err, ErrUnsupportedType)

	var vt VariableType
	require.NoError(vt.UnmarshalText([]byte("real")))
	require.Equal(TypeReal, vt)

	text, err := vt.MarshalText()
	require.NoError(err)
	require.Equal("REAL", string(text))

	_, err = VariableType(0).MarshalText()
	require.ErrorIs(err, ErrUnsupportedType)
	require.Equal("TYPE_0", VariableType(0).String())
}

func TestParseStationAddress(t *testing.T) {
	require := require.New(t)

	tests := map[string]byte{
		"1":    0x01,
		"0x01": 0x01,
		"0XFF": 0xff,
		"fe":   0xfe,
		" 10 ": 0x10,
	}

	for input, expected := range tests {
		addr, err := ParseStationAddress(input)
		require.NoError(err, input)
		require.Equal(expected, addr)
	}

	for _, input := range []string{"", "0x", "100", "zz", "-1"} {
		_, err := ParseStationAddress(input)
		require.ErrorIs(err, ErrInvalidStationAddress, input)
	}
}
