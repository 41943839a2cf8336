// Package feedback defines the feedback record as stored in the bucket.
// Records carry no fixed schema; every field is optional.
package feedback

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	appErrors "vtt-feedback/pkg/errors"
)

// Field names recognized by the analysis and export stages.
const (
	FieldTimestamp               = "timestamp"
	FieldSubmittedAt             = "submittedAt"
	FieldOriginalWord            = "originalWord"
	FieldCurrentTransformation   = "currentTransformation"
	FieldSuggestedTransformation = "suggestedTransformation"
	FieldIntensity               = "intensity"
	FieldContext                 = "context"
	FieldReason                  = "reason"
	FieldID                      = "id"
	FieldUserAgent               = "userAgent"
	FieldIP                      = "ip"
)

// Record is one submitted feedback event. Values are whatever the JSON body
// held; numbers are kept as json.Number so they re-encode unchanged.
type Record map[string]interface{}

// timeLayouts are tried in order when parsing submittedAt/timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Decode parses a single JSON object into a Record. The body must be valid
// UTF-8.
func Decode(body []byte) (Record, error) {
	if !utf8.Valid(body) {
		return nil, appErrors.NewDecodeError("feedback body is not valid UTF-8", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, appErrors.NewDecodeError("invalid feedback JSON", err)
	}
	if rec == nil {
		return nil, appErrors.NewDecodeError("feedback body is null", nil)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, appErrors.NewDecodeError("trailing data after feedback object", err)
	}
	return rec, nil
}

// Has reports whether the field is present with a non-null value.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// String renders a field as text. Objects and arrays are rendered as
// compact JSON. The boolean is false when the field is absent or null.
func (r Record) String(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	return FormatValue(v), true
}

// FormatValue renders a decoded JSON value as a flat string.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(val); err != nil {
			return ""
		}
		return string(bytes.TrimRight(buf.Bytes(), "\n"))
	}
}

// SubmittedAt parses the server-assigned submission time.
func (r Record) SubmittedAt() (time.Time, bool) {
	return r.parseTime(FieldSubmittedAt)
}

// EventTime is submittedAt, falling back to the client timestamp.
func (r Record) EventTime() (time.Time, bool) {
	if t, ok := r.SubmittedAt(); ok {
		return t, true
	}
	return r.parseTime(FieldTimestamp)
}

func (r Record) parseTime(field string) (time.Time, bool) {
	raw, ok := r[field].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	return ParseTime(raw)
}

// ParseTime accepts RFC 3339 timestamps as well as bare dates.
func ParseTime(raw string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WithTimestampAlias returns a shallow copy carrying a timestamp copied from
// submittedAt when the record has none. The receiver is not modified.
func (r Record) WithTimestampAlias() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	if _, ok := r[FieldTimestamp]; !ok {
		if v, ok := r[FieldSubmittedAt]; ok {
			out[FieldTimestamp] = v
		}
	}
	return out
}
