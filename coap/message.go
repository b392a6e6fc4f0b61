// Package coap implements the wire codec and message model for the
// Constrained Application Protocol (CoAP, RFC 7252) over UDP: header
// parsing, variable-length option encoding, the payload marker, and
// the class/code mapping. The codec is pure: Decode and
// (*Message).MarshalBinary perform no I/O and never panic on
// adversarial input.
package coap

import (
	"bytes"
	"encoding/binary"
)

// Message is a single CoAP message: the parsed form of one UDP
// datagram. It is a value type — constructed empty, mutated by its
// owner, consumed by the codec.
type Message struct {
	// Version is the 2-bit version field. Decode copies whatever value
	// was on the wire without validating it; conforming encoders set it
	// to 1 (the only version CoAP currently defines).
	Version uint8
	Type    CType
	Code    CCode

	MessageID uint16

	// Token correlates a response with its request independent of
	// MessageID. Its length must be 0-8 bytes.
	Token []byte

	// Options is the ordered multi-map of option number to values.
	Options Options

	Payload []byte
}

// NewMessage returns a Message with Version set to 1 (the only
// conforming value) and every other field zero.
func NewMessage() Message {
	return Message{Version: 1}
}

// IsConfirmable reports whether this message requires an
// acknowledgement.
func (m Message) IsConfirmable() bool {
	return m.Type == Confirmable
}

// Decode parses data as a CoAP message. It is total: for every byte
// slice it either returns a Message whose Token is exactly as long as
// the header's declared token length, or a non-nil error. It never
// panics.
func Decode(data []byte) (Message, error) {
	if len(data) < 4 {
		return Message{}, ErrInvalidHeader
	}

	first := data[0]
	m := Message{
		Version: (first >> 6) & 0x03,
		Type:    CType((first >> 4) & 0x03),
		Code:    CCode(data[1]),
	}
	m.MessageID = binary.BigEndian.Uint16(data[2:4])

	tokenLen := int(first & 0x0F)
	if tokenLen > 8 {
		return Message{}, ErrInvalidTokenLength
	}
	if 4+tokenLen > len(data) {
		return Message{}, ErrInvalidTokenLength
	}
	if tokenLen > 0 {
		m.Token = append([]byte(nil), data[4:4+tokenLen]...)
	}

	if err := decodeOptionsAndPayload(&m, data[4+tokenLen:]); err != nil {
		return Message{}, err
	}
	return m, nil
}

// extNibble decodes one delta/length nibble, consuming the extension
// bytes it implies from b. Nibble 15 must be rejected by the caller
// before calling extNibble (it is the reserved/illegal value, and the
// caller knows whether it is decoding a delta or a length, so it can
// report the right error).
func extNibble(nibble byte, b []byte) (value uint32, rest []byte, ok bool) {
	switch nibble {
	case 13:
		if len(b) < 1 {
			return 0, nil, false
		}
		return uint32(b[0]) + 13, b[1:], true
	case 14:
		if len(b) < 2 {
			return 0, nil, false
		}
		return uint32(binary.BigEndian.Uint16(b[:2])) + 269, b[2:], true
	default:
		return uint32(nibble), b, true
	}
}

func decodeOptionsAndPayload(m *Message, b []byte) error {
	prev := uint32(0)
	for len(b) > 0 {
		if b[0] == 0xFF {
			m.Payload = append([]byte(nil), b[1:]...)
			return nil
		}

		header := b[0]
		b = b[1:]
		deltaNib := header >> 4
		lengthNib := header & 0x0F

		if deltaNib == 15 {
			return ErrInvalidOptionDelta
		}
		delta, rest, ok := extNibble(deltaNib, b)
		if !ok {
			return ErrInvalidOptionLength
		}
		b = rest

		if lengthNib == 15 {
			return ErrInvalidOptionLength
		}
		length, rest, ok := extNibble(lengthNib, b)
		if !ok {
			return ErrInvalidOptionLength
		}
		b = rest

		if uint64(length) > uint64(len(b)) {
			return ErrInvalidOptionLength
		}

		num := prev + delta
		var value []byte
		if length > 0 {
			value = append([]byte(nil), b[:length]...)
			b = b[length:]
		}
		m.Options.Add(num, value)
		prev = num
	}
	// End of buffer without a payload marker: a valid, empty payload.
	return nil
}

const (
	extByteNibble = 13
	extByteAddend = 13
	extWordNibble = 14
	extWordAddend = 269
	extMaxEncoded = extWordAddend + 0xFFFF
)

// extendNumber splits v into a 4-bit nibble plus 0, 1 or 2 extension
// bytes, following the option delta/length extension rule: values
// under 13 fit the nibble directly, 13-268 take one extension byte
// offset by 13, and 269 up to 65804 take two big-endian extension
// bytes offset by 269.
func extendNumber(v uint32) (nib uint8, ext []byte, ok bool) {
	switch {
	case v < extByteAddend:
		return uint8(v), nil, true
	case v < extByteAddend+256:
		return extByteNibble, []byte{byte(v - extByteAddend)}, true
	case v <= extMaxEncoded:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v-extWordAddend))
		return extWordNibble, b, true
	default:
		return 0, nil, false
	}
}

// MarshalBinary encodes m to its wire form. It fails with
// ErrEncodeHeaderFailed if the token is longer than 8 bytes or an
// option's delta/length cannot be represented on the wire, and with
// ErrMessageTooLarge if the encoded message exceeds 1280 bytes.
func (m *Message) MarshalBinary() ([]byte, error) {
	if len(m.Token) > 8 {
		return nil, ErrEncodeHeaderFailed
	}

	var buf bytes.Buffer
	buf.WriteByte((m.Version&0x03)<<6 | (uint8(m.Type)&0x03)<<4 | uint8(len(m.Token)&0x0F))
	buf.WriteByte(byte(m.Code))

	var idBuf [2]byte
	binary.BigEndian.PutUint16(idBuf[:], m.MessageID)
	buf.Write(idBuf[:])
	buf.Write(m.Token)

	prev := uint32(0)
	for _, e := range m.Options.sortedEntries() {
		delta := e.Number - prev
		length := uint32(len(e.Value))

		deltaNib, deltaExt, ok := extendNumber(delta)
		if !ok {
			return nil, ErrEncodeHeaderFailed
		}
		lengthNib, lengthExt, ok := extendNumber(length)
		if !ok {
			return nil, ErrEncodeHeaderFailed
		}

		buf.WriteByte(deltaNib<<4 | lengthNib)
		buf.Write(deltaExt)
		buf.Write(lengthExt)
		buf.Write(e.Value)

		prev = e.Number
	}

	// Empty messages carry no payload; the encoder silently drops one
	// if set.
	if m.Code != Empty && len(m.Payload) > 0 {
		buf.WriteByte(0xFF)
		buf.Write(m.Payload)
	}

	out := buf.Bytes()
	if len(out) > 1280 {
		return nil, ErrMessageTooLarge
	}
	return out, nil
}
