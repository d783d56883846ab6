// Package sscp provides the wire format of the SSCP protocol used to read and write typed variables
// on a PLC over TCP.
//
// This package is transport agnostic. It encodes requests into frames, validates and decodes replies,
// and converts variable values to and from their fixed-width big-endian representation.
// The client package builds a TCP session on top of it.
//
// Frame Layout:
//
//	[station:1][function:2][data_len:2][payload: data_len bytes]
//
// All multi-byte integers are big-endian, and data_len always equals the payload size.
//
// Function Codes:
//   - FuncLogin (0x0100): answered by FuncLoginOK (0x8100); any other reply is a rejection.
//   - FuncLogout (0x0101): not answered.
//   - FuncRead (0x0500): answered by FuncReadOK (0x8500) or FuncReadFailed (0xC500).
//   - FuncWrite (0x0510): answered by FuncWriteOK (0x8510) or FuncWriteFailed (0xC510).
//
// Variable Types:
//
// VariableType lists the supported scalar kinds and their widths: BOOL(1), BYTE(1), WORD(2), INT(2),
// UINT(2), DINT(4), UDINT(4), LINT(8), REAL(4) and LREAL(8). Encode and Decode convert between Go
// values and wire bytes; Decode rejects any buffer whose length differs from the type width.
//
// Type Trust:
//
// Read replies carry raw bytes without a type tag. The type supplied by the caller decides how the
// bytes are decoded, so asking for the wrong type of a UID yields a well-formed but meaningless value.
//
// Errors:
//
// Errors are sentinel values grouped into kinds that can be tested with errors.Is:
// ErrProtocolViolation, ErrOperationRejected and ErrCodec.
package sscp
