package fields

import (
	"testing"
)

func TestResolve_EmptyPathReturnsValue(t *testing.T) {
	v, ok := Resolve("42.5", "")
	if !ok || v != "42.5" {
		t.Fatalf("Resolve scalar empty path = (%v, %v), want (42.5, true)", v, ok)
	}
	if _, ok := Resolve(nil, ""); ok {
		t.Fatal("empty path over nil should be absent")
	}
}

func TestResolve_SimpleObjectPath(t *testing.T) {
	doc := decode(t, `{"quote":{"price":101.5,"currency":"USD"}}`)
	v, ok := Resolve(doc, "quote.currency")
	if !ok || v != "USD" {
		t.Fatalf("quote.currency = (%v, %v), want (USD, true)", v, ok)
	}
}

func TestResolve_KeysContainingDots(t *testing.T) {
	doc := decode(t, `{"Global Quote": {"01. symbol": "AAPL", "05. price": "150.00"}}`)
	v, ok := Resolve(doc, "Global Quote.05. price")
	if !ok || v != "150.00" {
		t.Fatalf("dotted key path = (%v, %v), want (150.00, true)", v, ok)
	}
	v, ok = Resolve(doc, "Global Quote.01. symbol")
	if !ok || v != "AAPL" {
		t.Fatalf("dotted key path = (%v, %v), want (AAPL, true)", v, ok)
	}
}

func TestResolve_ArrayIndexing(t *testing.T) {
	doc := decode(t, `{"data":[{"close":10},{"close":11}]}`)
	v, ok := Resolve(doc, "data[1].close")
	if !ok {
		t.Fatal("data[1].close absent")
	}
	if n, _ := v.(interface{ String() string }); n == nil || n.String() != "11" {
		t.Fatalf("data[1].close = %v, want 11", v)
	}
}

func TestResolve_TopLevelArray(t *testing.T) {
	doc := decode(t, `[{"name":"first"},{"name":"second"}]`)
	v, ok := Resolve(doc, "[1].name")
	if !ok || v != "second" {
		t.Fatalf("[1].name = (%v, %v), want (second, true)", v, ok)
	}
}

func TestResolve_AbsentPaths(t *testing.T) {
	doc := decode(t, `{"quote":{"price":101.5},"list":[1,2]}`)
	absent := []string{
		"quote.volume",
		"missing",
		"quote.price.deeper",
		"list[5]",
		"list[-1]",
		"list[x]",
	}
	for _, p := range absent {
		if _, ok := Resolve(doc, p); ok {
			t.Errorf("Resolve(%q) reported present, want absent", p)
		}
	}
}

func TestResolve_NullLeafIsPresent(t *testing.T) {
	doc := decode(t, `{"a":null}`)
	v, ok := Resolve(doc, "a")
	if !ok || v != nil {
		t.Fatalf("null leaf = (%v, %v), want (nil, true)", v, ok)
	}
	if _, ok := Resolve(doc, "a.b"); ok {
		t.Fatal("descending through null must be absent")
	}
}

// Every path the extractor produces must resolve against the same document.
func TestResolve_AllExtractedPathsResolve(t *testing.T) {
	fixtures := []string{
		`{"Global Quote": {"01. symbol": "AAPL", "05. price": "150.00"}}`,
		`{"c":245.5,"h":247.1,"l":243.9,"o":244.0,"pc":246.2,"t":1724852400}`,
		`{"data":[{"ticker":"RELIANCE","price":2900.5},{"ticker":"TCS","price":4100.0}]}`,
		`{"Time Series (Daily)": {"2026-08-27": {"1. open": "243.0", "4. close": "245.5"}}}`,
		`[{"symbol":"NIFTY","percent_change":"1.2"}]`,
	}
	for _, raw := range fixtures {
		doc := decode(t, raw)
		for _, f := range Extract(doc) {
			if _, ok := Resolve(doc, f.Path); !ok {
				t.Errorf("extracted path %q does not resolve in %s", f.Path, raw)
			}
		}
	}
}

func TestResolveSelected_PreservesOrderAndMarksAbsent(t *testing.T) {
	doc := decode(t, `{"quote":{"price":101.5,"currency":"USD"}}`)
	got := ResolveSelected(doc, []string{"quote.currency", "nope", "quote.price"})
	if len(got) != 3 {
		t.Fatalf("got %d values, want 3", len(got))
	}
	if got[0].Path != "quote.currency" || !got[0].Present || got[0].Value != "USD" {
		t.Fatalf("first value = %+v", got[0])
	}
	if got[1].Present {
		t.Fatalf("second value should be absent: %+v", got[1])
	}
	if got[2].Path != "quote.price" || !got[2].Present {
		t.Fatalf("third value = %+v", got[2])
	}
	if got[0].Label == "" {
		t.Fatal("resolved values must carry labels")
	}
}
