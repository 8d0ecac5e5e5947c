package fields

import (
	"strconv"
	"strings"
)

// Resolve addresses path into a decoded JSON value. The second return is
// false when the path is absent: missing key, index into a non-array,
// out-of-range or non-integer index, or a nil intermediate. Resolution never
// panics, since selected paths outlive the data shape they were extracted
// from.
//
// Paths follow the extractor's grammar: dot-separated keys with an optional
// trailing [n] index per segment. Keys may themselves contain dots (Alpha
// Vantage uses keys like "05. price"), so when a plain segment lookup
// misses, subsequent segments are re-joined into progressively longer
// literal keys until one matches.
func Resolve(v any, path string) (any, bool) {
	if path == "" {
		if v == nil {
			return nil, false
		}
		return v, true
	}
	return resolveSegs(v, strings.Split(path, "."))
}

func resolveSegs(cur any, segs []string) (any, bool) {
	if len(segs) == 0 {
		return cur, true
	}
	if cur == nil {
		return nil, false
	}

	for j := 0; j < len(segs); j++ {
		raw := strings.Join(segs[:j+1], ".")
		key, idx, hasIdx := splitIndex(raw)

		var next any
		if key == "" {
			if !hasIdx {
				continue
			}
			// bare [n] segment: index the current value directly
			// (top-level array payloads produce paths like "[0].price")
			next = cur
		} else {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			child, found := m[key]
			if !found {
				continue // try a longer joined key
			}
			next = child
		}

		if hasIdx {
			arr, ok := next.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				continue
			}
			next = arr[idx]
		}

		if out, ok := resolveSegs(next, segs[j+1:]); ok {
			return out, true
		}
		// a shorter key matched but the remainder didn't resolve; keep
		// extending in case the literal key contains this dot
	}
	return nil, false
}

// splitIndex parses a trailing bracketed index from a segment. A bracket
// whose contents are not an integer is not an index.
func splitIndex(seg string) (key string, idx int, ok bool) {
	if !strings.HasSuffix(seg, "]") {
		return seg, 0, false
	}
	open := strings.LastIndex(seg, "[")
	if open < 0 {
		return seg, 0, false
	}
	n, err := strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil {
		return seg, 0, false
	}
	return seg[:open], n, true
}

// FieldValue is one selected path bound against a payload.
type FieldValue struct {
	Path    string
	Label   string
	Value   any
	Present bool
}

// ResolveSelected binds each selected path against v, preserving selection
// order. Absent paths yield Present=false without affecting other fields.
func ResolveSelected(v any, paths []string) []FieldValue {
	out := make([]FieldValue, len(paths))
	for i, p := range paths {
		val, ok := Resolve(v, p)
		out[i] = FieldValue{
			Path:    p,
			Label:   Label(p),
			Value:   val,
			Present: ok,
		}
	}
	return out
}
