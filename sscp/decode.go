package sscp

import (
	"encoding/binary"
	"fmt"
)

// replyCodes maps a request function code to its success and failure reply codes.
// A zero failure code means the controller has no dedicated failure reply for the request.
var replyCodes = map[FunctionCode]struct {
	ok       FunctionCode
	failed   FunctionCode
	rejected error
}{
	FuncLogin: {ok: FuncLoginOK, rejected: ErrLoginRejected},
	FuncRead:  {ok: FuncReadOK, failed: FuncReadFailed, rejected: ErrReadRejected},
	FuncWrite: {ok: FuncWriteOK, failed: FuncWriteFailed, rejected: ErrWriteRejected},
}

// ParseHeader validates the frame header in hdr and returns its function code and declared data length.
//
// hdr must contain at least HeaderSize bytes. It returns ErrAddressMismatch if the station
// address differs from addr.
func ParseHeader(hdr []byte, addr byte) (FunctionCode, int, error) {
	if len(hdr) < HeaderSize {
		return 0, 0, fmt.Errorf("%w: header needs %d bytes, got %d", ErrLengthMismatch, HeaderSize, len(hdr))
	}

	if hdr[0] != addr {
		return 0, 0, fmt.Errorf("%w: expected 0x%02X, got 0x%02X", ErrAddressMismatch, addr, hdr[0])
	}

	fc := FunctionCode(binary.BigEndian.Uint16(hdr[1:3]))
	dataLen := int(binary.BigEndian.Uint16(hdr[3:5]))

	return fc, dataLen, nil
}

// DecodeFrame decodes a complete reply buffer received from the station addr.
//
// The declared data length must match the number of bytes following the header exactly,
// otherwise ErrLengthMismatch is returned.
func DecodeFrame(buf []byte, addr byte) (*Frame, error) {
	fc, dataLen, err := ParseHeader(buf, addr)
	if err != nil {
		return nil, err
	}

	if actual := len(buf) - HeaderSize; actual != dataLen {
		return nil, fmt.Errorf("%w: declared %d, actual %d", ErrLengthMismatch, dataLen, actual)
	}

	data := make([]byte, dataLen)
	copy(data, buf[HeaderSize:])

	return &Frame{Address: buf[0], Function: fc, Data: data}, nil
}

// CheckReply validates the function code of reply against the request function code req.
//
// It returns nil for the success code, a rejection error (ErrLoginRejected, ErrReadRejected,
// ErrWriteRejected) for the failure code, and ErrUnexpectedFunctionCode for anything else.
// Login has no dedicated failure code, so every non-success reply to a login is a rejection.
func CheckReply(req FunctionCode, reply *Frame) error {
	codes, ok := replyCodes[req]
	if !ok {
		return fmt.Errorf("%w: %s expects no reply", ErrUnexpectedFunctionCode, req)
	}

	switch {
	case reply.Function == codes.ok:
		return nil
	case codes.failed == 0 || reply.Function == codes.failed:
		if code, ok := RejectCode(reply); ok {
			return fmt.Errorf("%w: %s, code 0x%08X", codes.rejected, reply.Function, code)
		}
		return fmt.Errorf("%w: %s", codes.rejected, reply.Function)
	default:
		return fmt.Errorf("%w: %s for %s request", ErrUnexpectedFunctionCode, reply.Function, req)
	}
}

// RejectCode returns the 4-byte error code carried by a failure reply, if present.
func RejectCode(reply *Frame) (uint32, bool) {
	if reply == nil || len(reply.Data) != 4 {
		return 0, false
	}

	return binary.BigEndian.Uint32(reply.Data), true
}

// DecodeReadReply decodes the payload of a successful read reply into one value per variable.
//
// The reply doesn't carry type information, so the types of vars are trusted: the payload
// is split by their fixed widths and must match the total width exactly.
func DecodeReadReply(reply *Frame, vars ...Variable) ([]any, error) {
	if len(vars) == 0 {
		return nil, ErrNoVariables
	}

	total := 0
	for _, v := range vars {
		if !v.Type.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, uint8(v.Type))
		}
		total += v.Type.Size()
	}

	if len(reply.Data) != total {
		return nil, fmt.Errorf("%w: expects %d bytes for %d variable(s), got %d",
			ErrInvalidPayloadLength, total, len(vars), len(reply.Data))
	}

	values := make([]any, 0, len(vars))
	pos := 0
	for _, v := range vars {
		size := v.Type.Size()
		val, err := Decode(v.Type, reply.Data[pos:pos+size])
		if err != nil {
			return nil, err
		}
		values = append(values, val)
		pos += size
	}

	return values, nil
}
