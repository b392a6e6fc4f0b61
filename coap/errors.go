package coap

import "errors"

// Decode errors. Decode never panics; it always returns one of these
// or a decoded Message.
var (
	// ErrInvalidHeader is returned when the buffer is shorter than the
	// 4-byte fixed header.
	ErrInvalidHeader = errors.New("coap: invalid header")

	// ErrInvalidTokenLength is returned when the header's token length
	// nibble exceeds 8, or the buffer ends before the declared token.
	ErrInvalidTokenLength = errors.New("coap: invalid token length")

	// ErrInvalidOptionDelta is returned when an option's delta nibble is
	// the reserved value 15.
	ErrInvalidOptionDelta = errors.New("coap: invalid option delta")

	// ErrInvalidOptionLength is returned when an option's length nibble
	// is the reserved value 15, or an extended delta/length byte runs
	// past the end of the buffer, or an option value would run past the
	// end of the buffer.
	ErrInvalidOptionLength = errors.New("coap: invalid option length")
)

// Encode errors.
var (
	// ErrMessageTooLarge is returned when the encoded message would
	// exceed the 1280 byte IPv6 minimum-MTU ceiling this codec enforces.
	ErrMessageTooLarge = errors.New("coap: message too large")

	// ErrEncodeHeaderFailed is returned when the message's header
	// fields cannot be serialized, e.g. a token longer than 8 bytes.
	ErrEncodeHeaderFailed = errors.New("coap: encode header failed")
)

// ErrNoResponse is returned by Message.Response when the message's
// type has no well-defined auto-response (Acknowledgement or Reset).
var ErrNoResponse = errors.New("coap: no response defined for this message type")

// ErrInvalidCodeString is returned by ParseCodeString when the input is
// not a well-formed "C.DD" code string.
var ErrInvalidCodeString = errors.New("coap: invalid code string")
