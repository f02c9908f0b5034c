package crypto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"veritas/internal/domain"
)

// redactedKeys vary across copies of the same logical document (storage
// artifacts, ownership references, timestamps) and must not affect the
// fingerprint. The list is closed; extending it is a breaking change for
// previously registered fingerprints.
var redactedKeys = map[string]struct{}{
	"_id":       {},
	"id":        {},
	"__v":       {},
	"user":      {},
	"userId":    {},
	"owner":     {},
	"ownerId":   {},
	"createdAt": {},
	"updatedAt": {},
}

// storage locator keys dropped from file-bearing objects; the filename is the
// stable descriptor that survives redaction.
var locatorKeys = map[string]struct{}{
	"url":        {},
	"secureUrl":  {},
	"storageUrl": {},
	"publicId":   {},
}

// CanonicalForm returns a redacted, fingerprint-ready copy of a structured
// document. Every mapping is copied with redacted keys removed, recursively;
// sequence order is preserved. A non-object top-level value has no redaction
// semantics and is rejected.
func CanonicalForm(doc any) (map[string]any, error) {
	obj, err := toObject(doc)
	if err != nil {
		return nil, err
	}
	return redactObject(obj), nil
}

func toObject(doc any) (map[string]any, error) {
	switch v := doc.(type) {
	case map[string]any:
		if v == nil {
			return nil, domain.ErrInvalidInputKind
		}
		return v, nil
	case json.RawMessage:
		return decodeObject([]byte(v))
	case []byte:
		return decodeObject(v)
	case nil:
		return nil, domain.ErrInvalidInputKind
	default:
		return nil, domain.ErrInvalidInputKind
	}
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, domain.ErrInvalidInputKind
	}
	return obj, nil
}

func redactObject(obj map[string]any) map[string]any {
	if isFileObject(obj) {
		return map[string]any{"filename": obj["filename"]}
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if _, skip := redactedKeys[k]; skip {
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return redactObject(value)
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = redactValue(item)
		}
		return out
	default:
		return v
	}
}

func isFileObject(obj map[string]any) bool {
	if _, ok := obj["filename"]; !ok {
		return false
	}
	for k := range obj {
		if _, ok := locatorKeys[k]; ok {
			return true
		}
	}
	return false
}

// Canonicalize serializes a value as canonical JSON: object keys sorted
// lexicographically, no insignificant whitespace, ES6 number formatting,
// minimal string escapes. Identical logical values yield identical bytes on
// every platform.
func Canonicalize(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := writeCanonical(buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		writeCanonicalString(buf, v)
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return fmt.Errorf("invalid JSON number: %w", err)
		}
		return writeCanonicalNumber(buf, f)
	case float64:
		return writeCanonicalNumber(buf, v)
	case float32:
		return writeCanonicalNumber(buf, float64(v))
	case int:
		return writeCanonicalNumber(buf, float64(v))
	case int32:
		return writeCanonicalNumber(buf, float64(v))
	case int64:
		return writeCanonicalNumber(buf, float64(v))
	case uint:
		return writeCanonicalNumber(buf, float64(v))
	case uint64:
		return writeCanonicalNumber(buf, float64(v))
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, v[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, item)
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported canonical type %T", value)
	}
	return nil
}

var hexLower = []byte("0123456789abcdef")

func writeCanonicalString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			buf.WriteByte('\\')
			buf.WriteRune(r)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexLower[r>>4])
				buf.WriteByte(hexLower[r&0x0f])
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// ES6 Number::toString formatting, locale independent.
func writeCanonicalNumber(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("invalid JSON number")
	}
	if f == 0 {
		buf.WriteString("0")
		return nil
	}
	sign := ""
	if f < 0 {
		sign = "-"
		f = math.Abs(f)
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	parts := strings.SplitN(sci, "e", 2)
	exp, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("invalid float exponent: %w", err)
	}
	digits := strings.ReplaceAll(parts[0], ".", "")

	var out string
	switch {
	case exp <= -7 || exp >= 21:
		if len(digits) == 1 {
			out = digits + "e" + strconv.Itoa(exp)
		} else {
			out = digits[:1] + "." + digits[1:] + "e" + strconv.Itoa(exp)
		}
	case exp+1 >= len(digits):
		out = digits + strings.Repeat("0", exp+1-len(digits))
	case exp+1 <= 0:
		out = "0." + strings.Repeat("0", -(exp+1)) + digits
	default:
		out = digits[:exp+1] + "." + digits[exp+1:]
	}
	buf.WriteString(sign + out)
	return nil
}
