package cache

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// An entry record holds its body in exactly one of three fields:
// "payload" for JSON bodies, kept as JSON so records stay readable,
// "text" for other UTF-8 bodies and "raw" (base64) for anything else.
const (
	fieldPayload  = "payload"
	fieldText     = "text"
	fieldRaw      = "raw"
	fieldStoredAt = "storedAt"
)

// embeddable reports whether body can be written as a JSON value and read
// back unchanged
func embeddable(body []byte) bool {
	return len(body) > 0 && len(bytes.TrimSpace(body)) == len(body) && json.Valid(body)
}

// MarshalEasyJSON supports easyjson.Marshaler interface
func (e Entry) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	switch {
	case embeddable(e.Payload):
		w.RawString(`"` + fieldPayload + `":`)
		w.Raw(e.Payload, nil)
	case utf8.Valid(e.Payload):
		w.RawString(`"` + fieldText + `":`)
		w.String(string(e.Payload))
	default:
		w.RawString(`"` + fieldRaw + `":`)
		w.Base64Bytes(e.Payload)
	}
	w.RawString(`,"` + fieldStoredAt + `":`)
	w.Int64(e.StoredAt)
	w.RawByte('}')
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface
func (e *Entry) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}

	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		// Decoded bodies are never nil, so an empty body stays distinct
		// from a missing one
		switch key {
		case fieldPayload:
			e.Payload = append([]byte{}, in.Raw()...)
		case fieldText:
			e.Payload = append([]byte{}, in.String()...)
		case fieldRaw:
			e.Payload = append([]byte{}, in.Bytes()...)
		case fieldStoredAt:
			e.StoredAt = in.Int64()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

// MarshalJSON supports json.Marshaler interface
func (e Entry) MarshalJSON() ([]byte, error) {
	return easyjson.Marshal(e)
}

// UnmarshalJSON supports json.Unmarshaler interface
func (e *Entry) UnmarshalJSON(data []byte) error {
	return easyjson.Unmarshal(data, e)
}

var (
	_ easyjson.Marshaler   = Entry{}
	_ easyjson.Unmarshaler = (*Entry)(nil)
)
