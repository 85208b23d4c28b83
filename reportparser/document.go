// Package reportparser turns pharmacogenomic report documents into canonical drug records.
package reportparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RawReport is a decoded top-level report object, keyed by field name.
// Values are left undecoded until the normalizer knows which shape it is reading.
type RawReport map[string]json.RawMessage

// Parse decodes report bytes. Invalid JSON yields ErrParse; valid JSON whose
// top level is not an object yields ErrInvalidReportShape.
func Parse(data []byte) (RawReport, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: document is not valid JSON", ErrParse)
	}

	if kind(data) != '{' {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidReportShape)
	}

	var doc RawReport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReportShape, err)
	}

	return doc, nil
}

// field returns a member that is present and not null.
func (r RawReport) field(name string) (json.RawMessage, bool) {
	raw, ok := r[name]
	if !ok || kind(raw) == 'n' || kind(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// truthy returns a member that is present and not one of the falsy scalars
// null, false, 0 or "".
func (r RawReport) truthy(name string) (json.RawMessage, bool) {
	raw, ok := r.field(name)
	if !ok {
		return nil, false
	}

	switch c := kind(raw); {
	case c == 'f':
		return nil, false
	case c == '"':
		if text(raw) == "" {
			return nil, false
		}
	case c == '-' || (c >= '0' && c <= '9'):
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil && n == 0 {
			return nil, false
		}
	}
	return raw, true
}

// kind returns the first significant byte of a JSON value, 0 when empty.
func kind(raw []byte) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isArray(raw json.RawMessage) bool {
	return kind(raw) == '['
}

// objects decodes an array whose elements must all be objects.
func objects(raw json.RawMessage, what string) ([]map[string]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %s must be an array", ErrInvalidReportShape, what)
	}

	out := make([]map[string]json.RawMessage, 0, len(items))
	for i, item := range items {
		if kind(item) != '{' {
			return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrInvalidReportShape, what, i)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", ErrInvalidReportShape, what, i, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// text renders a scalar JSON value as a string. Null and missing values are "",
// numbers and booleans keep their literal text, nested values their compact JSON.
func text(raw json.RawMessage) string {
	switch kind(raw) {
	case 0, 'n':
		return ""
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}

// values is a gene field that may be given either as a per-drug array or as a
// single scalar shared by every drug of the gene.
type values struct {
	items  []string
	scalar bool
}

func readValues(raw json.RawMessage) values {
	switch kind(raw) {
	case 0, 'n':
		return values{}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return values{}
		}
		items := make([]string, len(elems))
		for i, e := range elems {
			items[i] = text(e)
		}
		return values{items: items}
	default:
		return values{items: []string{text(raw)}, scalar: true}
	}
}

// forDrug returns the value for drug i: a scalar applies to every drug, an
// array element that is missing or empty falls back to element 0.
func (v values) forDrug(i int) string {
	if len(v.items) == 0 {
		return ""
	}
	if v.scalar {
		return v.items[0]
	}
	if i < len(v.items) && v.items[i] != "" {
		return v.items[i]
	}
	return v.items[0]
}

// at returns element i without any fallback.
func (v values) at(i int) string {
	if i < len(v.items) {
		return v.items[i]
	}
	return ""
}
