package sscp

import (
	"crypto/md5" //nolint:gosec
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

const (
	// HeaderSize is the size of the frame header: station address, function code and data length.
	HeaderSize = 5
	// MaxDataSize is the largest payload the 2-byte data length field can declare.
	MaxDataSize = math.MaxUint16

	// ProtocolVersion is the fixed protocol version byte sent on login.
	ProtocolVersion byte = 0x17
	// LoginMaxDataSize is the fixed max-data-size field sent on login. It goes out as the bytes 0x28 0x00.
	LoginMaxDataSize uint16 = 0x2800
	// ProxyID is the reserved proxy identifier terminating the login payload.
	ProxyID byte = 0x00

	// FlagQualifier marks a variable entry that carries offset and length fields.
	FlagQualifier byte = 0x80

	// writeVarCount is the variable count of a write request. Only single-variable writes are built.
	writeVarCount byte = 0x01
)

// FunctionCode is the 2-byte SSCP function identifier.
type FunctionCode uint16

// Request function codes and the reply codes the controller answers with.
const (
	FuncLogin       FunctionCode = 0x0100
	FuncLoginOK     FunctionCode = 0x8100
	FuncLogout      FunctionCode = 0x0101
	FuncRead        FunctionCode = 0x0500
	FuncReadOK      FunctionCode = 0x8500
	FuncReadFailed  FunctionCode = 0xC500
	FuncWrite       FunctionCode = 0x0510
	FuncWriteOK     FunctionCode = 0x8510
	FuncWriteFailed FunctionCode = 0xC510
)

// String returns a readable name with the hex code, e.g. "read(0x0500)".
func (fc FunctionCode) String() string {
	name := "unknown"
	switch fc {
	case FuncLogin:
		name = "login"
	case FuncLoginOK:
		name = "login.ok"
	case FuncLogout:
		name = "logout"
	case FuncRead:
		name = "read"
	case FuncReadOK:
		name = "read.ok"
	case FuncReadFailed:
		name = "read.failed"
	case FuncWrite:
		name = "write"
	case FuncWriteOK:
		name = "write.ok"
	case FuncWriteFailed:
		name = "write.failed"
	}

	return fmt.Sprintf("%s(0x%04X)", name, uint16(fc))
}

// Frame is one SSCP message as it travels on the TCP stream.
type Frame struct {
	Address  byte
	Function FunctionCode
	Data     []byte
}

// NewFrame creates a frame with the given station address, function code and payload.
//
// It returns ErrFrameTooLarge if the payload exceeds MaxDataSize.
func NewFrame(addr byte, fc FunctionCode, data []byte) (*Frame, error) {
	if len(data) > MaxDataSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}

	return &Frame{Address: addr, Function: fc, Data: data}, nil
}

// Size returns the encoded size of the frame.
func (f *Frame) Size() int {
	return HeaderSize + len(f.Data)
}

// ToBytes encodes the frame into its wire representation.
func (f *Frame) ToBytes() []byte {
	buf := make([]byte, 0, f.Size())
	buf = append(buf, f.Address)
	buf = binary.BigEndian.AppendUint16(buf, uint16(f.Function))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Data))) //nolint:gosec
	buf = append(buf, f.Data...)

	return buf
}

// String returns the hex dump of the encoded frame.
func (f *Frame) String() string {
	return hex.EncodeToString(f.ToBytes())
}

// NewLoginRequest builds the login frame.
//
// The payload is the protocol version, the max data size, the length-prefixed username,
// the length-prefixed MD5 digest of the password, and the proxy ID.
func NewLoginRequest(addr byte, username string, password string) (*Frame, error) {
	if len(username) > math.MaxUint8 {
		return nil, fmt.Errorf("%w: username", ErrFieldTooLong)
	}

	digest := md5.Sum([]byte(password)) //nolint:gosec

	data := make([]byte, 0, 6+len(username)+len(digest))
	data = append(data, ProtocolVersion)
	data = binary.BigEndian.AppendUint16(data, LoginMaxDataSize)
	data = append(data, byte(len(username)))
	data = append(data, username...)
	data = append(data, byte(len(digest)))
	data = append(data, digest[:]...)
	data = append(data, ProxyID)

	return NewFrame(addr, FuncLogin, data)
}

// NewLogoutRequest builds the logout frame, which has no payload.
func NewLogoutRequest(addr byte) *Frame {
	return &Frame{Address: addr, Function: FuncLogout, Data: []byte{}}
}

// NewReadRequest builds a read frame for one or more variables.
//
// Each variable contributes a flags byte and its UID, followed by offset and length
// when the variable has a qualifier.
func NewReadRequest(addr byte, vars ...Variable) (*Frame, error) {
	if len(vars) == 0 {
		return nil, ErrNoVariables
	}

	data := make([]byte, 0, len(vars)*13)
	for _, v := range vars {
		data = appendVariable(data, v)
	}

	return NewFrame(addr, FuncRead, data)
}

// NewWriteRequest builds a write frame that stores value into the variable v.
func NewWriteRequest(addr byte, v Variable, value any) (*Frame, error) {
	data := make([]byte, 0, 14+v.Type.Size())
	data = append(data, v.flags(), writeVarCount)
	data = binary.BigEndian.AppendUint32(data, v.UID)
	if v.HasQualifier() {
		data = binary.BigEndian.AppendUint32(data, v.Offset)
		data = binary.BigEndian.AppendUint32(data, v.Length)
	}

	data, err := AppendValue(data, v.Type, value)
	if err != nil {
		return nil, err
	}

	return NewFrame(addr, FuncWrite, data)
}

func appendVariable(data []byte, v Variable) []byte {
	data = append(data, v.flags())
	data = binary.BigEndian.AppendUint32(data, v.UID)
	if v.HasQualifier() {
		data = binary.BigEndian.AppendUint32(data, v.Offset)
		data = binary.BigEndian.AppendUint32(data, v.Length)
	}

	return data
}
