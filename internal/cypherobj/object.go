// Package cypherobj renders Go values into Cypher object-literal strings,
// the way the loader builds its batch-insert query text: records are never
// sent as driver parameters, they are embedded directly into the query as
// literal property maps.
package cypherobj

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/forensic-graph/warehouse/pkg/logging"
)

// UnsupportedNestedValueSentinel is substituted for any value that is still
// a nested object/array after one level of flattening.
const UnsupportedNestedValueSentinel = "unsupported_nested_value"

// ToObject renders v (expected to be a struct or map) as a Cypher map
// literal: {key: value, key2: value2, ...}. Field names come from v's JSON
// tags (falling back to the Go field name), sorted for deterministic
// output so batch queries are stable across runs and easy to test.
func ToObject(v any) (string, error) {
	flat, err := flatten(v)
	if err != nil {
		return "", fmt.Errorf("flattening value for cypher object: %w", err)
	}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(renderLiteral(flat[k]))
	}
	b.WriteByte('}')
	return b.String(), nil
}

// ToObjectList renders a slice of values as a Cypher list literal:
// [{...}, {...}], the shape UNWIND $records-free batch templates embed
// directly after a "WITH [...] AS records" clause.
func ToObjectList[T any](values []T) (string, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		obj, err := ToObject(v)
		if err != nil {
			return "", fmt.Errorf("record %d: %w", i, err)
		}
		parts[i] = obj
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

// flatten converts v to a map[string]any, then flattens exactly one level
// of any nested object/map values using "_"-joined keys. Anything still
// nested beyond that depth is replaced with the sentinel string and logged,
// matching the original renderer's "should have been flattened before this"
// warning rather than failing the whole record.
func flatten(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, err
	}

	flat := make(map[string]any, len(top))
	for k, val := range top {
		nested, ok := val.(map[string]any)
		if !ok {
			flat[k] = val
			continue
		}
		for nk, nv := range nested {
			key := k + "_" + nk
			if _, stillNested := nv.(map[string]any); stillNested {
				logging.GetDefault().Warn("value still nested after flattening, using sentinel", "key", key)
				flat[key] = UnsupportedNestedValueSentinel
				continue
			}
			if _, isArr := nv.([]any); isArr {
				logging.GetDefault().Warn("value still nested after flattening, using sentinel", "key", key)
				flat[key] = UnsupportedNestedValueSentinel
				continue
			}
			flat[key] = nv
		}
	}
	return flat, nil
}

// renderLiteral renders a single decoded-JSON value as a Cypher literal.
func renderLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case string:
		return quoteCypherString(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if t == nil {
			return "null"
		}
		// arrays are only ever primitive after one-level flattening; render
		// element-wise rather than sentinel, matching simple list properties
		// (e.g. competing-offer id lists).
		parts := make([]string, len(t))
		for i, el := range t {
			parts[i] = renderLiteral(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return quoteCypherString(fmt.Sprintf("%v", t))
	}
}

func quoteCypherString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
