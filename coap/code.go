package coap

import "fmt"

// CType represents the 2-bit message type field.
type CType uint8

const (
	// Confirmable messages require acknowledgement from the peer.
	Confirmable CType = 0
	// NonConfirmable messages do not require acknowledgement.
	NonConfirmable CType = 1
	// Acknowledgement is a reply to a Confirmable message.
	Acknowledgement CType = 2
	// Reset is a permanent negative acknowledgement.
	Reset CType = 3
)

var typeNames = [4]string{
	Confirmable:     "Confirmable",
	NonConfirmable:  "NonConfirmable",
	Acknowledgement: "Acknowledgement",
	Reset:           "Reset",
}

func (t CType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Unknown (0x%x)", uint8(t))
}

// CCode is the 8-bit code byte: method for requests, status for
// responses, 0x00 for Empty, 0xFF for Reserved on encode.
type CCode uint8

// Request method codes.
const (
	Empty  CCode = 0x00
	Get    CCode = 0x01
	Post   CCode = 0x02
	Put    CCode = 0x03
	Delete CCode = 0x04
)

// Response status codes.
const (
	Created                   CCode = 0x41
	Deleted                   CCode = 0x42
	Valid                     CCode = 0x43
	Changed                   CCode = 0x44
	Content                   CCode = 0x45
	BadRequest                CCode = 0x80
	Unauthorized              CCode = 0x81
	BadOption                 CCode = 0x82
	Forbidden                 CCode = 0x83
	NotFound                  CCode = 0x84
	MethodNotAllowed          CCode = 0x85
	NotAcceptable             CCode = 0x86
	PreconditionFailed        CCode = 0x8C
	RequestEntityTooLarge     CCode = 0x8D
	UnsupportedContentFormat  CCode = 0x8F
	InternalServerError       CCode = 0x90
	NotImplemented            CCode = 0x91
	BadGateway                CCode = 0x92
	ServiceUnavailable        CCode = 0x93
	GatewayTimeout            CCode = 0x94
	ProxyingNotSupported      CCode = 0x95
	// reservedEncodeByte is what a Reserved class encodes to; it is not
	// itself a valid request or response code.
	reservedEncodeByte CCode = 0xFF
)

var codeNames = map[CCode]string{
	Empty:                    "Empty",
	Get:                      "GET",
	Post:                     "POST",
	Put:                      "PUT",
	Delete:                   "DELETE",
	Created:                  "Created",
	Deleted:                  "Deleted",
	Valid:                    "Valid",
	Changed:                  "Changed",
	Content:                  "Content",
	BadRequest:               "BadRequest",
	Unauthorized:             "Unauthorized",
	BadOption:                "BadOption",
	Forbidden:                "Forbidden",
	NotFound:                 "NotFound",
	MethodNotAllowed:         "MethodNotAllowed",
	NotAcceptable:            "NotAcceptable",
	PreconditionFailed:       "PreconditionFailed",
	RequestEntityTooLarge:    "RequestEntityTooLarge",
	UnsupportedContentFormat: "UnsupportedContentFormat",
	InternalServerError:      "InternalServerError",
	NotImplemented:           "NotImplemented",
	BadGateway:               "BadGateway",
	ServiceUnavailable:       "ServiceUnavailable",
	GatewayTimeout:           "GatewayTimeout",
	ProxyingNotSupported:     "ProxyingNotSupported",
}

// String renders the code's mnemonic name if known, else its dotted
// "C.DD" form.
func (c CCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return c.DottedString()
}

// DottedString renders the code in the "C.DD" form used by CoAP tooling,
// e.g. 0x45 -> "2.05".
func (c CCode) DottedString() string {
	return fmt.Sprintf("%d.%02d", uint8(c)>>5, uint8(c)&0x1F)
}

// ParseCodeString parses a "C.DD" dotted code string back into a CCode.
func ParseCodeString(s string) (CCode, error) {
	var class, detail int
	if n, err := fmt.Sscanf(s, "%d.%d", &class, &detail); n != 2 || err != nil {
		return 0, ErrInvalidCodeString
	}
	if class < 0 || class > 7 || detail < 0 || detail > 31 {
		return 0, ErrInvalidCodeString
	}
	return CCode((class << 5) | detail), nil
}

// Class is the tagged class a code decodes into: exactly one of
// EmptyClass, RequestClass, ResponseClass or ReservedClass.
type Class interface {
	isClass()
}

// EmptyClass is the class of the Empty (0.00) code.
type EmptyClass struct{}

// RequestClass is the class of a recognized request method code.
type RequestClass struct{ Method CCode }

// ResponseClass is the class of a recognized response status code.
type ResponseClass struct{ Status CCode }

// ReservedClass is the class of any code not otherwise recognized.
type ReservedClass struct{}

func (EmptyClass) isClass()    {}
func (RequestClass) isClass()  {}
func (ResponseClass) isClass() {}
func (ReservedClass) isClass() {}

var requestCodes = map[CCode]bool{Get: true, Post: true, Put: true, Delete: true}

var responseCodes = map[CCode]bool{
	Created: true, Deleted: true, Valid: true, Changed: true, Content: true,
	BadRequest: true, Unauthorized: true, BadOption: true, Forbidden: true,
	NotFound: true, MethodNotAllowed: true, NotAcceptable: true,
	PreconditionFailed: true, RequestEntityTooLarge: true, UnsupportedContentFormat: true,
	InternalServerError: true, NotImplemented: true, BadGateway: true,
	ServiceUnavailable: true, GatewayTimeout: true, ProxyingNotSupported: true,
}

// ClassOf classifies a code byte. Unknown codes classify as
// ReservedClass; this never fails.
func ClassOf(code CCode) Class {
	switch {
	case code == Empty:
		return EmptyClass{}
	case requestCodes[code]:
		return RequestClass{Method: code}
	case responseCodes[code]:
		return ResponseClass{Status: code}
	default:
		return ReservedClass{}
	}
}

// ClassToCode reconstructs the code byte for a class. For ReservedClass
// it returns 0xFF, the wire encoding of "Reserved" this codec chooses
// for a class with no underlying code. For every other class,
// ClassToCode(ClassOf(c)) == c for all c that classify as non-Reserved.
func ClassToCode(c Class) CCode {
	switch v := c.(type) {
	case EmptyClass:
		return Empty
	case RequestClass:
		return v.Method
	case ResponseClass:
		return v.Status
	default:
		return reservedEncodeByte
	}
}

// IsRequest reports whether the code is a recognized request method.
func (c CCode) IsRequest() bool { return requestCodes[c] }

// IsResponse reports whether the code is a recognized response status.
func (c CCode) IsResponse() bool { return responseCodes[c] }

// IsEmpty reports whether the code is the Empty code.
func (c CCode) IsEmpty() bool { return c == Empty }

// MediaType specifies the content type of a message's payload, carried
// in the ContentFormat/Accept options.
type MediaType uint16

// Registered content types this codec gives names to; any other value
// decodes to a bare numeric MediaType.
const (
	TextPlain     MediaType = 0
	AppLinkFormat MediaType = 40
	AppXML        MediaType = 41
	AppOctets     MediaType = 42
	AppExi        MediaType = 47
	AppJSON       MediaType = 50
)
