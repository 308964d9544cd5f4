// Package codec converts list-valued entry fields between their in-memory
// shape and the flat text stored in the entries table.
//
// The canonical encoding is a JSON array. Decoding accepts every historical
// form found in the table and tries, in order:
//
//  1. a JSON document (array, or a JSON string holding a single value);
//  2. a semicolon separated list;
//  3. the whole value as a single item.
//
// Decoding never fails. An empty or NULL column decodes to an empty list,
// and an empty list encodes to NULL.
package codec

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/kabyedict/internal/server/models"
)

const legacySeparator = ";"

// decoder is one step of the fallback chain. ok is false when the step does
// not recognise the input and the next step should be tried.
type decoder func(raw string) (items []element, ok bool)

// element is a decoded item before it is turned into a string or an
// expression. Exactly one of text or object is set.
type element struct {
	text   string
	object map[string]json.RawMessage
}

var chain = []decoder{decodeJSON, decodeSeparated, decodeSingle}

// EncodeList returns the stored form of items. Empty lists are stored as NULL.
func EncodeList(items []string) sql.NullString {
	if len(items) == 0 {
		return sql.NullString{}
	}
	return marshal(items)
}

// EncodeExpressions returns the stored form of expressions. The translation
// is written under the "traduction" key read by existing rows.
func EncodeExpressions(items []models.Expression) sql.NullString {
	if len(items) == 0 {
		return sql.NullString{}
	}

	type stored struct {
		Expression  string `json:"expression"`
		Translation string `json:"traduction"`
	}
	out := make([]stored, len(items))
	for i, it := range items {
		out[i] = stored{Expression: it.Expression, Translation: it.Translation}
	}
	return marshal(out)
}

// DecodeList returns the items held by a stored column.
func DecodeList(raw sql.NullString) []string {
	elements := decode(raw)
	out := make([]string, 0, len(elements))
	for _, el := range elements {
		if el.object != nil {
			if expr := expressionFromObject(el.object); expr.Expression != "" {
				out = append(out, joinExpression(expr))
			}
			continue
		}
		if el.text != "" {
			out = append(out, el.text)
		}
	}
	return out
}

// DecodeExpressions returns the expression pairs held by a stored column.
// Items stored as plain text are split on their first colon; text without a
// colon becomes an expression with an empty translation.
func DecodeExpressions(raw sql.NullString) []models.Expression {
	elements := decode(raw)
	out := make([]models.Expression, 0, len(elements))
	for _, el := range elements {
		var expr models.Expression
		if el.object != nil {
			expr = expressionFromObject(el.object)
		} else {
			expr = splitExpression(el.text)
		}
		if expr.Expression != "" || expr.Translation != "" {
			out = append(out, expr)
		}
	}
	return out
}

func decode(raw sql.NullString) []element {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil
	}
	for _, step := range chain {
		if items, ok := step(raw.String); ok {
			return items
		}
	}
	return nil
}

func decodeJSON(raw string) ([]element, bool) {
	trimmed := strings.TrimSpace(raw)

	var values []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &values); err == nil {
		out := make([]element, 0, len(values))
		for _, v := range values {
			if el, ok := jsonElement(v); ok {
				out = append(out, el)
			}
		}
		return out, true
	}

	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		if s = strings.TrimSpace(s); s == "" {
			return nil, true
		}
		return []element{{text: s}}, true
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj != nil {
		return []element{{object: obj}}, true
	}
	return nil, false
}

func jsonElement(v json.RawMessage) (element, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return element{}, false
	}

	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return element{}, false
		}
		return element{text: s}, true
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err != nil {
			return element{}, false
		}
		return element{object: obj}, true
	default:
		// numbers, booleans and nested arrays are kept as their literal text
		return element{text: string(v)}, true
	}
}

func decodeSeparated(raw string) ([]element, bool) {
	if !strings.Contains(raw, legacySeparator) {
		return nil, false
	}
	var out []element
	for _, part := range strings.Split(raw, legacySeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, element{text: part})
		}
	}
	return out, true
}

func decodeSingle(raw string) ([]element, bool) {
	if raw = strings.TrimSpace(raw); raw == "" {
		return nil, true
	}
	return []element{{text: raw}}, true
}

func expressionFromObject(obj map[string]json.RawMessage) models.Expression {
	return models.Expression{
		Expression:  strings.TrimSpace(objectString(obj, "expression")),
		Translation: strings.TrimSpace(objectString(obj, "traduction", "translation")),
	}
}

func objectString(obj map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
		if raw := strings.TrimSpace(string(v)); raw != "null" {
			return raw
		}
	}
	return ""
}

func splitExpression(text string) models.Expression {
	expr, translation, found := strings.Cut(text, ":")
	if !found {
		return models.Expression{Expression: strings.TrimSpace(text)}
	}
	return models.Expression{
		Expression:  strings.TrimSpace(expr),
		Translation: strings.TrimSpace(translation),
	}
}

func joinExpression(e models.Expression) string {
	if e.Translation == "" {
		return e.Expression
	}
	return e.Expression + ": " + e.Translation
}

func marshal(v any) sql.NullString {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimRight(buf.String(), "\n"), Valid: true}
}
