package coap

// Response builds the default auto-response to m: version 1, the same
// message ID, a cloned token, the request's payload echoed back, and
// a Content response code. Ack if the request was Confirmable,
// NonConfirmable if it was NonConfirmable. Ack and Reset requests have
// no defined auto-response; Response returns ErrNoResponse for them.
func (m Message) Response() (Message, error) {
	var respType CType
	switch m.Type {
	case Confirmable:
		respType = Acknowledgement
	case NonConfirmable:
		respType = NonConfirmable
	default:
		return Message{}, ErrNoResponse
	}

	return Message{
		Version:   1,
		Type:      respType,
		Code:      Content,
		MessageID: m.MessageID,
		Token:     append([]byte(nil), m.Token...),
		Payload:   append([]byte(nil), m.Payload...),
	}, nil
}
