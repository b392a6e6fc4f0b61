package coap

import (
	"encoding/hex"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

// decode, options only.
func TestDecode_OptionsOnly(t *testing.T) {
	data := mustHex(t, "44 01 84 9e 51 55 77 e8 b2 48 69 04 54 65 73 74 43 61 3d 31")

	m, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, uint8(1), m.Version)
	require.Equal(t, Confirmable, m.Type)
	require.Equal(t, Get, m.Code)
	require.Equal(t, uint16(33950), m.MessageID)
	require.Equal(t, mustHex(t, "51 55 77 e8"), m.Token)
	require.Equal(t, []string{"Hi", "Test"}, m.Path())
	require.Equal(t, []string{"a=1"}, m.Query())
	require.Empty(t, m.Payload)
}

// encode, options only — round-trips the decode test's exact bytes.
func TestEncode_OptionsOnly(t *testing.T) {
	want := mustHex(t, "44 01 84 9e 51 55 77 e8 b2 48 69 04 54 65 73 74 43 61 3d 31")

	m := NewMessage()
	m.Type = Confirmable
	m.Code = Get
	m.MessageID = 33950
	m.Token = mustHex(t, "51 55 77 e8")
	m.SetPath([]string{"Hi", "Test"})
	m.Options.AddString(UriQuery, "a=1")

	got, err := m.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// decode with payload.
func TestDecode_WithPayload(t *testing.T) {
	data := mustHex(t, "64 45 13 fd d0 e2 4d ac ff 48 65 6c 6c 6f")

	m, err := Decode(data)
	require.NoError(t, err)

	require.Equal(t, uint8(1), m.Version)
	require.Equal(t, Acknowledgement, m.Type)
	require.Equal(t, Content, m.Code)
	require.Equal(t, uint16(5117), m.MessageID)
	require.Equal(t, mustHex(t, "d0 e2 4d ac"), m.Token)
	require.Equal(t, "Hello", string(m.Payload))
}

// encode with payload — round-trips the decode test's exact bytes.
func TestEncode_WithPayload(t *testing.T) {
	want := mustHex(t, "64 45 13 fd d0 e2 4d ac ff 48 65 6c 6c 6f")

	m := NewMessage()
	m.Type = Acknowledgement
	m.Code = Content
	m.MessageID = 5117
	m.Token = mustHex(t, "d0 e2 4d ac")
	m.Payload = []byte("Hello")

	got, err := m.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecode_InvalidHeader(t *testing.T) {
	_, err := Decode([]byte{0x40, 0x01, 0x00})
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestDecode_InvalidTokenLength(t *testing.T) {
	// TKL nibble = 9, exceeds the 8-byte maximum.
	_, err := Decode([]byte{0x49, 0x01, 0x00, 0x00})
	require.ErrorIs(t, err, ErrInvalidTokenLength)
}

func TestDecode_TruncatedToken(t *testing.T) {
	// TKL = 4 but only 1 byte of token present.
	_, err := Decode([]byte{0x44, 0x01, 0x00, 0x00, 0x01})
	require.ErrorIs(t, err, ErrInvalidTokenLength)
}

func TestDecode_InvalidOptionDelta(t *testing.T) {
	// header (no token), then an option byte with delta nibble 0xF.
	data := append([]byte{0x40, 0x01, 0x00, 0x00}, 0xF0)
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrInvalidOptionDelta)
}

func TestDecode_InvalidOptionLength(t *testing.T) {
	// delta nibble 0, length nibble 0xF.
	data := append([]byte{0x40, 0x01, 0x00, 0x00}, 0x0F)
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrInvalidOptionLength)
}

func TestDecode_OptionValueOverrunsBuffer(t *testing.T) {
	// delta 0, length 5, but no value bytes follow.
	data := append([]byte{0x40, 0x01, 0x00, 0x00}, 0x05)
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrInvalidOptionLength)
}

func TestDecode_EmptyPayloadAtEndOfMarker(t *testing.T) {
	data := append([]byte{0x40, 0x01, 0x00, 0x00}, 0xFF)
	m, err := Decode(data)
	require.NoError(t, err)
	require.Empty(t, m.Payload)
}

func TestEncode_EmptyCodeDropsPayload(t *testing.T) {
	m := NewMessage()
	m.Code = Empty
	m.Payload = []byte("should not appear")

	got, err := m.MarshalBinary()
	require.NoError(t, err)
	require.NotContains(t, got, byte(0xFF))
	require.Len(t, got, 4)
}

func TestEncode_MessageTooLarge(t *testing.T) {
	m := NewMessage()
	m.Type = Confirmable
	m.Code = Content
	m.Payload = make([]byte, 2000)

	_, err := m.MarshalBinary()
	require.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestEncode_TokenTooLong(t *testing.T) {
	m := NewMessage()
	m.Token = make([]byte, 9)
	_, err := m.MarshalBinary()
	require.ErrorIs(t, err, ErrEncodeHeaderFailed)
}

// decode(encode(m)) == m for well-formed messages, including insertion
// order within equal option numbers, not merely "some" order.
func TestRoundTrip_MultipleOptionsSameNumber(t *testing.T) {
	m := NewMessage()
	m.Type = NonConfirmable
	m.Code = Get
	m.MessageID = 7
	m.SetPath([]string{"a", "bb", "ccc"})
	m.Options.AddString(UriQuery, "x=1")
	m.Options.AddString(UriQuery, "y=2")

	encoded, err := m.MarshalBinary()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	require.Equal(t, []string{"a", "bb", "ccc"}, decoded.Path())
	require.Equal(t, []string{"x=1", "y=2"}, decoded.Query())
}

// Option numbers appear on the wire in non-decreasing order and each
// delta sums to its option number; exercised here via large option
// numbers needing both extension forms.
func TestRoundTrip_ExtendedOptionNumbers(t *testing.T) {
	m := NewMessage()
	m.Code = Content
	m.Options.Add(0, []byte("zero"))
	m.Options.Add(20, []byte("small"))
	m.Options.Add(300, []byte("byte-ext"))
	m.Options.Add(5000, []byte("word-ext"))

	encoded, err := m.MarshalBinary()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	v, ok := decoded.Options.Get(0)
	require.True(t, ok)
	require.Equal(t, "zero", string(v))

	v, ok = decoded.Options.Get(5000)
	require.True(t, ok)
	require.Equal(t, "word-ext", string(v))
}

// decode must never panic on random input, and any message it does
// successfully produce must have a token exactly as long as the
// header's declared token length.
func TestDecode_FuzzSurvives(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		n := rng.Intn(1501)
		buf := make([]byte, n)
		rng.Read(buf)

		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("decode panicked on input %x: %v", buf, r)
				}
			}()

			m, err := Decode(buf)
			if err == nil {
				require.Equal(t, int(buf[0]&0x0F), len(m.Token))
			}
		}()
	}
}
