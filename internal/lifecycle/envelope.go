package lifecycle

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tillcore/pkg/domain"
)

// FormatVersion is the snapshot envelope version this build writes and the
// only version Apply accepts.
const FormatVersion = "1.0"

// EnvelopeCollection is one collection's slice of an envelope. Valid is
// false when the data value parsed from text was not an array of records;
// the importer skips such entries without failing the restore.
type EnvelopeCollection struct {
	Name    string
	Records []domain.Record
	Valid   bool
}

// Envelope is the versioned snapshot artifact: generation timestamp, format
// version, and every exported collection in a fixed order. It is built
// fresh per export and fully consumed by one import.
type Envelope struct {
	ExportDate string
	Version    string
	Data       []EnvelopeCollection
}

// Collection returns the named collection's records, or nil when absent.
func (e *Envelope) Collection(name string) []domain.Record {
	for _, col := range e.Data {
		if col.Name == name && col.Valid {
			return col.Records
		}
	}
	return nil
}

// Encode renders the envelope as UTF-8 JSON. Collection order and record
// order are preserved exactly; invalid collections are omitted.
func (e *Envelope) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"exportDate":`)
	if err := encodeTo(&buf, e.ExportDate); err != nil {
		return nil, err
	}
	buf.WriteString(`,"version":`)
	if err := encodeTo(&buf, e.Version); err != nil {
		return nil, err
	}
	buf.WriteString(`,"data":{`)
	first := true
	for _, col := range e.Data {
		if !col.Valid {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := encodeTo(&buf, col.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		records := col.Records
		if records == nil {
			records = []domain.Record{}
		}
		if err := encodeTo(&buf, records); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func encodeTo(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// ParseEnvelope decodes snapshot text. The data section's collection keys
// are kept in their textual order so a restore replays collections exactly
// as they were written. All failures are FormatErrors; nothing is written
// to any store from here.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, &FormatError{Reason: "not a JSON object", Err: err}
	}
	env := &Envelope{}
	seenData := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &FormatError{Reason: "truncated envelope", Err: err}
		}
		key, _ := keyTok.(string)
		switch key {
		case "exportDate":
			if err := dec.Decode(&env.ExportDate); err != nil {
				return nil, &FormatError{Reason: "invalid exportDate", Err: err}
			}
		case "version":
			if err := dec.Decode(&env.Version); err != nil {
				return nil, &FormatError{Reason: "invalid version", Err: err}
			}
		case "data":
			data, err := parseDataSection(dec)
			if err != nil {
				return nil, err
			}
			env.Data = data
			seenData = true
		default:
			var ignore any
			if err := dec.Decode(&ignore); err != nil {
				return nil, &FormatError{Reason: fmt.Sprintf("invalid field %q", key), Err: err}
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, &FormatError{Reason: "truncated envelope", Err: err}
	}
	if env.Version == "" {
		return nil, &FormatError{Reason: "missing version"}
	}
	if !seenData {
		return nil, &FormatError{Reason: "missing data section"}
	}
	return env, nil
}

func parseDataSection(dec *json.Decoder) ([]EnvelopeCollection, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, &FormatError{Reason: "data is not an object", Err: err}
	}
	var data []EnvelopeCollection
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &FormatError{Reason: "truncated data section", Err: err}
		}
		name, _ := keyTok.(string)
		var rawValue json.RawMessage
		if err := dec.Decode(&rawValue); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("invalid value for collection %q", name), Err: err}
		}
		col := EnvelopeCollection{Name: name}
		var records []domain.Record
		if err := json.Unmarshal(rawValue, &records); err == nil {
			col.Records = records
			col.Valid = true
		}
		data = append(data, col)
	}
	if _, err := dec.Token(); err != nil {
		return nil, &FormatError{Reason: "truncated data section", Err: err}
	}
	return data, nil
}

func expectDelim(dec *json.Decoder, want rune) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || rune(delim) != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
