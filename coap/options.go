package coap

import (
	"encoding/binary"
	"sort"
	"strings"
)

// Option numbers recognized by this codec. The option number is the
// canonical identity of an option; these names are a convenience
// alias over it.
const (
	IfMatch       uint32 = 1
	UriHost       uint32 = 3
	ETag          uint32 = 4
	IfNoneMatch   uint32 = 5
	Observe       uint32 = 6
	UriPort       uint32 = 7
	LocationPath  uint32 = 8
	UriPath       uint32 = 11
	ContentFormat uint32 = 12
	MaxAge        uint32 = 14
	UriQuery      uint32 = 15
	Accept        uint32 = 17
	LocationQuery uint32 = 20
	Block2        uint32 = 23
	Block1        uint32 = 27
	ProxyUri      uint32 = 35
	ProxyScheme   uint32 = 39
	Size1         uint32 = 60
)

// optionEntry is one (number, value) pair inside the ordered multi-map.
// Values are always stored as their raw byte-string wire form; typed
// accessors encode/decode on top of that.
type optionEntry struct {
	Number uint32
	Value  []byte
}

// Options is the ordered multi-map from option number to an ordered
// sequence of byte-string values. The zero value is an empty map.
type Options struct {
	entries []optionEntry
}

// Add appends a value under the given option number, preserving
// insertion order for repeated numbers.
func (o *Options) Add(number uint32, value []byte) {
	o.entries = append(o.entries, optionEntry{Number: number, Value: value})
}

// AddString appends a UTF-8 string value.
func (o *Options) AddString(number uint32, value string) {
	o.Add(number, []byte(value))
}

// AddUint appends an integer value using CoAP's variable-length
// big-endian uint encoding (the shortest representation, the empty
// slice for zero).
func (o *Options) AddUint(number uint32, value uint32) {
	o.Add(number, encodeUint(value))
}

// Set discards any existing values under number and installs a single
// new value.
func (o *Options) Set(number uint32, value []byte) {
	o.Remove(number)
	o.Add(number, value)
}

// SetString is Set with a string value.
func (o *Options) SetString(number uint32, value string) {
	o.Set(number, []byte(value))
}

// SetUint is Set with an integer value.
func (o *Options) SetUint(number uint32, value uint32) {
	o.Set(number, encodeUint(value))
}

// Remove drops every value stored under number.
func (o *Options) Remove(number uint32) {
	if o.entries == nil {
		return
	}
	kept := o.entries[:0]
	for _, e := range o.entries {
		if e.Number != number {
			kept = append(kept, e)
		}
	}
	o.entries = kept
}

// Get returns the first value stored under number, if any.
func (o Options) Get(number uint32) ([]byte, bool) {
	for _, e := range o.entries {
		if e.Number == number {
			return e.Value, true
		}
	}
	return nil, false
}

// GetAll returns every value stored under number, in insertion order.
func (o Options) GetAll(number uint32) [][]byte {
	var rv [][]byte
	for _, e := range o.entries {
		if e.Number == number {
			rv = append(rv, e.Value)
		}
	}
	return rv
}

// GetString returns the first value under number decoded as a string.
func (o Options) GetString(number uint32) (string, bool) {
	v, ok := o.Get(number)
	if !ok {
		return "", false
	}
	return string(v), true
}

// GetStrings returns every value under number decoded as strings.
func (o Options) GetStrings(number uint32) []string {
	vals := o.GetAll(number)
	if vals == nil {
		return nil
	}
	rv := make([]string, len(vals))
	for i, v := range vals {
		rv[i] = string(v)
	}
	return rv
}

// GetUint returns the first value under number decoded as an integer.
func (o Options) GetUint(number uint32) (uint32, bool) {
	v, ok := o.Get(number)
	if !ok {
		return 0, false
	}
	return decodeUint(v), true
}

// sortedEntries returns the option entries in the order the wire
// format requires: ascending option number, insertion order within an
// equal number.
func (o Options) sortedEntries() []optionEntry {
	rv := make([]optionEntry, len(o.entries))
	copy(rv, o.entries)
	sort.SliceStable(rv, func(i, j int) bool { return rv[i].Number < rv[j].Number })
	return rv
}

func encodeUint(v uint32) []byte {
	switch {
	case v == 0:
		return nil
	case v < 1<<8:
		return []byte{byte(v)}
	case v < 1<<16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		return b
	case v < 1<<24:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, v)
		return b[1:]
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, v)
		return b
	}
}

func decodeUint(b []byte) uint32 {
	var tmp [4]byte
	if len(b) > 4 {
		b = b[len(b)-4:]
	}
	copy(tmp[4-len(b):], b)
	return binary.BigEndian.Uint32(tmp[:])
}

// Path returns the URI-Path segments set on this message, in order.
func (m Message) Path() []string {
	return m.Options.GetStrings(UriPath)
}

// PathString joins the URI-Path segments with "/".
func (m Message) PathString() string {
	return strings.Join(m.Path(), "/")
}

// SetPath replaces the URI-Path option with one value per segment.
func (m *Message) SetPath(segments []string) {
	m.Options.Remove(UriPath)
	for _, s := range segments {
		m.Options.AddString(UriPath, s)
	}
}

// SetPathString splits s on "/" (ignoring a leading slash) and installs
// it as the URI-Path option.
func (m *Message) SetPathString(s string) {
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		m.Options.Remove(UriPath)
		return
	}
	m.SetPath(strings.Split(s, "/"))
}

// Query returns the URI-Query values set on this message.
func (m Message) Query() []string {
	return m.Options.GetStrings(UriQuery)
}

// ContentFormat returns the Content-Format option's value, if present.
func (m Message) ContentFormat() (MediaType, bool) {
	v, ok := m.Options.GetUint(ContentFormat)
	if !ok {
		return 0, false
	}
	return MediaType(v), true
}

// SetContentFormat sets the Content-Format option.
func (m *Message) SetContentFormat(mt MediaType) {
	m.Options.SetUint(ContentFormat, uint32(mt))
}
