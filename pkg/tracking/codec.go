package tracking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EmptySnapshot is the stored value of an empty backlog.
const EmptySnapshot = "[]"

// MarshalJSON encodes the event as {"action":"...","eventData":{...}}
// keeping field order.
func (e Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"action":`)
	if err := writeJSONString(&buf, e.action); err != nil {
		return nil, err
	}
	buf.WriteString(`,"eventData":`)
	if err := writeObject(&buf, e.fields); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, fields Fields) error {
	buf.WriteByte('{')
	for i, fld := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(buf, fld.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeJSONString(buf, fld.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// UnmarshalJSON decodes an event object. Unknown keys are ignored.
// Scalar field values other than strings are kept as their JSON text.
func (e *Event) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	var (
		action    string
		fields    Fields
		hasAction bool
	)
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return err
		}
		switch key {
		case "action":
			if err := dec.Decode(&action); err != nil {
				return fmt.Errorf("%w: action: %w", ErrMalformedRecord, err)
			}
			hasAction = true
		case "eventData":
			if fields, err = decodeFields(dec); err != nil {
				return err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}

	if !hasAction || action == "" {
		return fmt.Errorf("%w: %w", ErrMalformedRecord, ErrEmptyAction)
	}

	*e = Event{action: action, fields: Fields(nil).merge(fields...)}
	return nil
}

func decodeFields(dec *json.Decoder) (Fields, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: eventData: %w", ErrMalformedRecord, err)
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: eventData must be an object", ErrMalformedRecord)
	}

	var fields Fields
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: eventData.%s: %w", ErrMalformedRecord, key, err)
		}
		var value string
		switch v := tok.(type) {
		case string:
			value = v
		case json.Number:
			value = v.String()
		case bool:
			value = fmt.Sprintf("%t", v)
		default:
			return nil, fmt.Errorf("%w: eventData.%s must be a scalar", ErrMalformedRecord, key)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return fields, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected token %v", ErrMalformedRecord, tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrMalformedRecord, want, tok)
	}
	return nil
}

// EncodeSnapshot serializes events into the persisted snapshot format:
// a JSON array of event objects, oldest first.
func EncodeSnapshot(events []Event) (string, error) {
	if len(events) == 0 {
		return EmptySnapshot, nil
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range events {
		b, err := e.MarshalJSON()
		if err != nil {
			return "", fmt.Errorf("encode record %d: %w", i, err)
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.Write(b)
	}
	sb.WriteByte(']')
	return sb.String(), nil
}

// DecodeSnapshot restores events from a snapshot blob.
//
// Entries may be event objects or JSON strings holding an event object.
// Records that fail to decode are skipped; each one contributes a
// *DecodeError to the joined error, while the remaining records are
// still returned. A blob that is not a JSON array yields no events and
// an error wrapping ErrMalformedSnapshot.
func DecodeSnapshot(blob string) ([]Event, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" || blob == EmptySnapshot {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	events := make([]Event, 0, len(raw))
	var errs []error
	for i, entry := range raw {
		e, err := decodeEntry(entry)
		if err != nil {
			errs = append(errs, &DecodeError{Index: i, Err: err})
			continue
		}
		events = append(events, e)
	}
	return events, errors.Join(errs...)
}

func decodeEntry(entry json.RawMessage) (Event, error) {
	entry = bytes.TrimSpace(entry)
	if len(entry) > 0 && entry[0] == '"' {
		var inner string
		if err := json.Unmarshal(entry, &inner); err != nil {
			return Event{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		entry = json.RawMessage(inner)
	}
	var e Event
	if err := e.UnmarshalJSON(entry); err != nil {
		return Event{}, err
	}
	return e, nil
}
