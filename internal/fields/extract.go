// Package fields turns arbitrary decoded JSON into a flat catalog of
// addressable fields, and resolves field paths back against later payloads.
package fields

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"
)

// Kind is the dynamic JSON type of a field.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// FieldDescriptor is one discoverable, addressable node within a payload.
// Descriptors are created fresh on every extraction pass and never mutated.
type FieldDescriptor struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Kind   Kind   `json:"kind"`
	Sample any    `json:"sample"`
}

const (
	// maxDepth bounds the recursive walk so a pathological payload cannot
	// cause unbounded recursion. JSON API responses are not cyclic.
	maxDepth = 32

	// arraySampleLen bounds the preview kept for array descriptors.
	arraySampleLen = 3
)

// Extract walks a decoded JSON value and returns its field catalog, sorted
// lexicographically by path for stable listing. It never fails: a nil or
// otherwise empty value yields an empty list, and a bare scalar yields a
// single descriptor with an empty path.
func Extract(v any) []FieldDescriptor {
	out := make([]FieldDescriptor, 0, 16)
	walk(v, "", 0, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func walk(v any, path string, depth int, out *[]FieldDescriptor) {
	if v == nil || depth > maxDepth {
		return
	}

	switch val := v.(type) {
	case []any:
		*out = append(*out, FieldDescriptor{
			Path:   path,
			Label:  Label(path),
			Kind:   KindArray,
			Sample: truncate(val),
		})
		// Recurse into the first element as the representative row, so a
		// selection like data[0].price later binds against every row of an
		// array-shaped payload.
		if len(val) > 0 {
			if _, ok := val[0].(map[string]any); ok {
				walk(val[0], path+"[0]", depth+1, out)
			}
		}

	case map[string]any:
		for key, child := range val {
			walk(child, joinPath(path, key), depth+1, out)
		}

	default:
		*out = append(*out, FieldDescriptor{
			Path:   path,
			Label:  Label(path),
			Kind:   kindOf(val),
			Sample: val,
		})
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func truncate(arr []any) []any {
	if len(arr) <= arraySampleLen {
		return arr
	}
	sample := make([]any, arraySampleLen)
	copy(sample, arr[:arraySampleLen])
	return sample
}

func kindOf(v any) Kind {
	switch v.(type) {
	case string:
		return KindString
	case bool:
		return KindBoolean
	case float64, json.Number, int, int64:
		return KindNumber
	default:
		return KindString
	}
}

// Label renders a path human-readable: bracket suffixes stripped, camelCase
// and underscores split into words, first letter upper-cased, segments
// joined with an arrow.
func Label(path string) string {
	parts := strings.Split(path, ".")
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if i := strings.Index(part, "["); i >= 0 {
			part = part[:i]
		}
		if w := formatWord(part); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " → ")
}

func formatWord(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return ""
	}
	words := strings.Fields(out)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
