package sscp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_Frame(t *testing.T) {
	tests := []struct {
		description      string       // test case description
		input            []byte       // reply buffer
		expectedFunction FunctionCode // expected function code
		expectedData     []byte       // expected payload
		expectedErr      error        // expected error
	}{
		{
			description:      "read reply with INT payload",
			input:            []byte{0x01, 0x85, 0x00, 0x00, 0x02, 0xff, 0xfe},
			expectedFunction: FuncReadOK,
			expectedData:     []byte{0xff, 0xfe},
		},
		{
			description:      "write reply without payload",
			input:            []byte{0x01, 0x85, 0x10, 0x00, 0x00},
			expectedFunction: FuncWriteOK,
			expectedData:     []byte{},
		},
		{
			description: "address mismatch with well-formed payload",
			input:       []byte{0x02, 0x85, 0x00, 0x00, 0x01, 0x01},
			expectedErr: ErrAddressMismatch,
		},
		{
			description: "declared length larger than payload",
			input:       []byte{0x01, 0x85, 0x00, 0x00, 0x04, 0x00, 0x01},
			expectedErr: ErrLengthMismatch,
		},
		{
			description: "declared length smaller than payload",
			input:       []byte{0x01, 0x85, 0x00, 0x00, 0x01, 0x00, 0x01},
			expectedErr: ErrLengthMismatch,
		},
		{
			description: "truncated header",
			input:       []byte{0x01, 0x85},
			expectedErr: ErrLengthMismatch,
		},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		frame, err := DecodeFrame(test.input, 0x01)
		if test.expectedErr != nil {
			require.ErrorIs(err, test.expectedErr)
			require.ErrorIs(err, ErrProtocolViolation)
			require.Nil(frame)

			continue
		}

		require.NoError(err)
		require.Equal(byte(0x01), frame.Address)
		require.Equal(test.expectedFunction, frame.Function)
		require.Equal(test.expectedData, frame.Data)
		require.Equal(test.input, frame.ToBytes())
	}
}

func TestDecode_CheckReply(t *testing.T) {
	tests := []struct {
		description string
		request     FunctionCode
		reply       FunctionCode
		data        []byte
		expectedErr error
	}{
		{"login ok", FuncLogin, FuncLoginOK, nil, nil},
		{"login rejected", FuncLogin, 0xC100, nil, ErrLoginRejected},
		{"login answered with read ok", FuncLogin, FuncReadOK, nil, ErrLoginRejected},
		{"read ok", FuncRead, FuncReadOK, nil, nil},
		{"read rejected", FuncRead, FuncReadFailed, nil, ErrReadRejected},
		{"read rejected with code", FuncRead, FuncReadFailed, []byte{0, 0, 0, 9}, ErrReadRejected},
		{"read answered with write ok", FuncRead, FuncWriteOK, nil, ErrUnexpectedFunctionCode},
		{"write ok", FuncWrite, FuncWriteOK, nil, nil},
		{"write rejected", FuncWrite, FuncWriteFailed, nil, ErrWriteRejected},
		{"write answered with read ok", FuncWrite, FuncReadOK, nil, ErrUnexpectedFunctionCode},
		{"logout has no reply", FuncLogout, FuncReadOK, nil, ErrUnexpectedFunctionCode},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)

		err := CheckReply(test.request, &Frame{Address: 1, Function: test.reply, Data: test.data})
		if test.expectedErr == nil {
			require.NoError(err)
			continue
		}

		require.ErrorIs(err, test.expectedErr)
	}

	err := CheckReply(FuncRead, &Frame{Function: FuncReadFailed, Data: []byte{0, 0, 0x01, 0x02}})
	require.ErrorIs(err, ErrOperationRejected)
	require.ErrorContains(err, "code 0x00000102")
}

func TestDecode_ReadReply(t *testing.T) {
	require := require.New(t)

	reply := &Frame{Address: 1, Function: FuncReadOK, Data: []byte{0x00, 0x2a}}
	values, err := DecodeReadReply(reply, Variable{UID: 1, Type: TypeInt})
	require.NoError(err)
	require.Equal([]any{int16(42)}, values)

	// the requested type is trusted
	values, err = DecodeReadReply(reply, Variable{UID: 1, Type: TypeWord})
	require.NoError(err)
	require.Equal([]any{uint16(42)}, values)

	_, err = DecodeReadReply(reply, Variable{UID: 1, Type: TypeDint})
	require.ErrorIs(err, ErrInvalidPayloadLength)

	// multiple variables are split by their widths
	reply = &Frame{Address: 1, Function: FuncReadOK, Data: []byte{0x01, 0x3f, 0xc0, 0x00, 0x00, 0x00, 0x07}}
	values, err = DecodeReadReply(reply,
		Variable{UID: 1, Type: TypeBool},
		Variable{UID: 2, Type: TypeReal},
		Variable{UID: 3, Type: TypeUint},
	)
	require.NoError(err)
	require.Equal([]any{true, float32(1.5), uint16(7)}, values)

	_, err = DecodeReadReply(reply, Variable{UID: 1, Type: TypeBool}, Variable{UID: 2, Type: TypeReal})
	require.ErrorIs(err, ErrInvalidPayloadLength)

	_, err = DecodeReadReply(reply, Variable{UID: 1})
	require.ErrorIs(err, ErrUnsupportedType)

	_, err = DecodeReadReply(reply)
	require.ErrorIs(err, ErrNoVariables)
}

func TestDecode_ParseHeader(t *testing.T) {
	require := require.New(t)

	fc, dataLen, err := ParseHeader([]byte{0x0a, 0xc5, 0x00, 0x01, 0x00}, 0x0a)
	require.NoError(err)
	require.Equal(FuncReadFailed, fc)
	require.Equal(256, dataLen)

	_, _, err = ParseHeader([]byte{0x0b, 0xc5, 0x00, 0x01, 0x00}, 0x0a)
	require.ErrorIs(err, ErrAddressMismatch)
}
