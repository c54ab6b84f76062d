package lifecycle

import (
	"errors"
	"strings"
	"testing"

	"tillcore/pkg/domain"
)

func TestEnvelopeEncodePreservesOrder(t *testing.T) {
	env := &Envelope{
		ExportDate: "2024-06-01T08:00:00.000Z",
		Version:    FormatVersion,
		Data: []EnvelopeCollection{
			{Name: "zebra", Records: []domain.Record{{"id": "z1"}}, Valid: true},
			{Name: "alpha", Records: []domain.Record{}, Valid: true},
			{Name: "mid", Records: []domain.Record{{"id": "m1"}}, Valid: true},
		},
	}
	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := string(raw)
	zi := strings.Index(text, `"zebra"`)
	ai := strings.Index(text, `"alpha"`)
	mi := strings.Index(text, `"mid"`)
	if zi < 0 || ai < 0 || mi < 0 || !(zi < ai && ai < mi) {
		t.Fatalf("collection order not preserved: %s", text)
	}

	parsed, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Version != FormatVersion || parsed.ExportDate != env.ExportDate {
		t.Fatalf("header drifted: %+v", parsed)
	}
	var order []string
	for _, col := range parsed.Data {
		order = append(order, col.Name)
	}
	if strings.Join(order, ",") != "zebra,alpha,mid" {
		t.Fatalf("parse order %v", order)
	}
	if len(parsed.Collection("alpha")) != 0 || parsed.Collection("alpha") == nil {
		t.Fatalf("empty collection should parse as empty valid array")
	}
}

func TestParseEnvelopeMissingVersion(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"exportDate":"x","data":{}}`))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestParseEnvelopeMissingData(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"version":"1.0"}`))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestParseEnvelopeMalformed(t *testing.T) {
	for _, raw := range []string{
		``,
		`not json`,
		`[]`,
		`{"version":"1.0","data":[]}`,
		`{"version":"1.0","data":{"receipts":[`,
	} {
		if _, err := ParseEnvelope([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		} else {
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FormatError for %q, got %v", raw, err)
			}
		}
	}
}

func TestParseEnvelopeNonArrayCollection(t *testing.T) {
	raw := []byte(`{"version":"1.0","data":{"good":[{"id":"a"}],"bad":{"id":"x"},"worse":42}}`)
	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(env.Data) != 3 {
		t.Fatalf("expected all keys retained, got %d", len(env.Data))
	}
	byName := map[string]EnvelopeCollection{}
	for _, col := range env.Data {
		byName[col.Name] = col
	}
	if !byName["good"].Valid || len(byName["good"].Records) != 1 {
		t.Fatalf("good collection mishandled: %+v", byName["good"])
	}
	if byName["bad"].Valid || byName["worse"].Valid {
		t.Fatalf("non-array values should be invalid")
	}
}

func TestParseEnvelopeIgnoresUnknownFields(t *testing.T) {
	raw := []byte(`{"generator":"pos 3.1","version":"1.0","data":{"receipts":[]}}`)
	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.Version != "1.0" || len(env.Data) != 1 {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
