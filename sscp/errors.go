package sscp

import "errors"

// kindError is a sentinel error that belongs to a broader error kind.
// errors.Is matches both the sentinel itself and its kind.
type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Error kinds.
var (
	// ErrProtocolViolation is the kind of errors raised when a reply does not follow the SSCP framing rules.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrOperationRejected is the kind of errors raised when the controller answers with a failure function code.
	ErrOperationRejected = errors.New("operation rejected")

	// ErrCodec is the kind of errors raised by the value codec.
	ErrCodec = errors.New("codec error")
)

var (
	// ErrAddressMismatch indicates that the station address of a reply differs from the configured one.
	ErrAddressMismatch = newKindError(ErrProtocolViolation, "station address mismatch")

	// ErrLengthMismatch indicates that the declared data length differs from the received payload size.
	ErrLengthMismatch = newKindError(ErrProtocolViolation, "data length mismatch")

	// ErrUnexpectedFunctionCode indicates that a reply carries a function code that does not belong to the request.
	ErrUnexpectedFunctionCode = newKindError(ErrProtocolViolation, "unexpected function code")
)

var (
	// ErrLoginRejected indicates that the controller did not accept the login request.
	ErrLoginRejected = newKindError(ErrOperationRejected, "login rejected")

	// ErrReadRejected indicates that the controller answered a read request with 0xC500.
	ErrReadRejected = newKindError(ErrOperationRejected, "read rejected")

	// ErrWriteRejected indicates that the controller answered a write request with 0xC510.
	ErrWriteRejected = newKindError(ErrOperationRejected, "write rejected")
)

var (
	// ErrInvalidPayloadLength indicates that a value buffer does not match the fixed width of its type.
	ErrInvalidPayloadLength = newKindError(ErrCodec, "invalid payload length")

	// ErrUnsupportedType indicates an unknown variable type identifier.
	ErrUnsupportedType = newKindError(ErrCodec, "unsupported type")

	// ErrValueOutOfRange indicates that a value can't be represented by the target type.
	ErrValueOutOfRange = newKindError(ErrCodec, "value out of range")

	// ErrInvalidValue indicates that a value can't be converted to the target type.
	ErrInvalidValue = newKindError(ErrCodec, "invalid value")
)

var (
	// ErrFrameTooLarge indicates that a payload exceeds the 2-byte data length field.
	ErrFrameTooLarge = errors.New("frame too large, data length exceeds 65535 bytes")

	// ErrFieldTooLong indicates that a length-prefixed field exceeds 255 bytes.
	ErrFieldTooLong = errors.New("field too long, length exceeds 255 bytes")

	// ErrNoVariables indicates that a read request was built without any variable.
	ErrNoVariables = errors.New("no variables requested")

	// ErrInvalidStationAddress indicates that a station address string can't be parsed into a single byte.
	ErrInvalidStationAddress = errors.New("invalid station address, should be in range of [0x00, 0xFF]")
)

var (
	// ErrConnection indicates that the TCP connection to the controller could not be established.
	ErrConnection = errors.New("connection error")

	// ErrNotConnected indicates that an operation requires an open connection.
	ErrNotConnected = errors.New("not connected")

	// ErrAuthenticationFailed indicates that the login handshake failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrBrokenConnection indicates that socket I/O failed in the middle of an exchange.
	ErrBrokenConnection = errors.New("broken connection")

	// ErrReconnectionFailed indicates that the connection could not be rebuilt after it broke.
	ErrReconnectionFailed = errors.New("reconnection failed")
)
