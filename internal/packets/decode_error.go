package packets

import "fmt"

// DecodeErrorKind classifies why a control packet failed to decode, mirroring
// the two MQTT v5.0 reason code categories a client can report back to a
// broker for an unreadable inbound packet (DISCONNECT reason codes 0x81 and
// 0x82).
type DecodeErrorKind uint8

const (
	// ErrMalformed means the wire encoding itself is invalid: a truncated
	// buffer, a string with bad UTF-8, a broken property block. Maps to
	// MQTT's "Malformed Packet" reason code.
	ErrMalformed DecodeErrorKind = iota
	// ErrProtocolViolation means the bytes decoded cleanly but violate an
	// MQTT framing or semantic rule (unknown packet type, an oversized
	// Remaining Length, a reserved flag set). Maps to MQTT's "Protocol
	// Error" reason code.
	ErrProtocolViolation
)

// DecodeError reports a failure to decode an MQTT control packet. Packet
// names the control packet type being decoded (e.g. "CONNECT", "PUBLISH")
// so callers can log or surface which part of a connection misbehaved
// without re-deriving it from the call stack.
type DecodeError struct {
	Packet string
	Kind   DecodeErrorKind
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Packet, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// malformed wraps err as a DecodeError of kind ErrMalformed for the named
// packet type.
func malformed(packet string, err error) error {
	return &DecodeError{Packet: packet, Kind: ErrMalformed, Err: err}
}

// malformedf is malformed with fmt.Errorf-style formatting.
func malformedf(packet, format string, args ...any) error {
	return malformed(packet, fmt.Errorf(format, args...))
}

// protocolViolation wraps err as a DecodeError of kind ErrProtocolViolation
// for the named packet type.
func protocolViolation(packet string, err error) error {
	return &DecodeError{Packet: packet, Kind: ErrProtocolViolation, Err: err}
}

// protocolViolationf is protocolViolation with fmt.Errorf-style formatting.
func protocolViolationf(packet, format string, args ...any) error {
	return protocolViolation(packet, fmt.Errorf(format, args...))
}
