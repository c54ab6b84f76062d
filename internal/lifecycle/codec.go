package lifecycle

import (
	"regexp"
	"time"

	"tillcore/pkg/domain"
)

// canonicalLayout renders timestamps as RFC 3339 with milliseconds in UTC,
// the textual form carried inside snapshot envelopes.
const canonicalLayout = "2006-01-02T15:04:05.000Z"

// timestampPattern matches canonical timestamp strings on the way back in.
// It accepts any RFC 3339 offset so envelopes produced by older builds that
// wrote local offsets still restore.
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})$`)

// EncodeTimestamp converts a native timestamp to its canonical textual form.
func EncodeTimestamp(t time.Time) string {
	return t.UTC().Format(canonicalLayout)
}

// DecodeTimestamp parses a canonical timestamp string. The boolean is false
// when the string does not match the canonical pattern.
func DecodeTimestamp(s string) (time.Time, bool) {
	if !timestampPattern.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// NormalizeTimestamps replaces native timestamps with canonical strings at
// the record's top level and one nested mapping level. Deeper nesting and
// arrays pass through verbatim. The input record is never mutated.
func NormalizeTimestamps(fields domain.Record) domain.Record {
	if fields == nil {
		return nil
	}
	out := make(domain.Record, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case time.Time:
			out[key] = EncodeTimestamp(v)
		case map[string]any:
			nested := make(map[string]any, len(v))
			for nk, nv := range v {
				if t, ok := nv.(time.Time); ok {
					nested[nk] = EncodeTimestamp(t)
				} else {
					nested[nk] = nv
				}
			}
			out[key] = nested
		default:
			out[key] = value
		}
	}
	return out
}

// DenormalizeTimestamps reverses NormalizeTimestamps: string fields matching
// the canonical pattern become native timestamps, at top level and one
// nested mapping level. Everything else passes through verbatim; the input
// record is never mutated.
func DenormalizeTimestamps(fields domain.Record) domain.Record {
	if fields == nil {
		return nil
	}
	out := make(domain.Record, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			if t, ok := DecodeTimestamp(v); ok {
				out[key] = t
			} else {
				out[key] = v
			}
		case map[string]any:
			nested := make(map[string]any, len(v))
			for nk, nv := range v {
				if s, ok := nv.(string); ok {
					if t, ok := DecodeTimestamp(s); ok {
						nested[nk] = t
						continue
					}
				}
				nested[nk] = nv
			}
			out[key] = nested
		default:
			out[key] = value
		}
	}
	return out
}
