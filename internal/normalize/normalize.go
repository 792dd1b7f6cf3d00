// Package normalize converts loosely-shaped backend JSON into strict view
// models. Every function is total: malformed input degrades to defaults or
// empty collections, never to an error or panic. Field extraction is an
// ordered list of gjson paths consumed first-success-wins, which keeps the
// alias cascade (title vs name, coverUrl vs cover vs image) auditable.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	DefaultBookCover = "https://images.unsplash.com/photo-1512820790803-83ca734da794?q=80&w=1200&auto=format&fit=crop"

	// UnknownAuthorName backfills books whose payload names no author.
	UnknownAuthorName = "Noma'lum muallif"

	untitledBook  = "Nomsiz asar"
	otherCategory = "Boshqa"
)

func record(payload []byte) (gjson.Result, bool) {
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return gjson.Result{}, false
	}
	return doc, true
}

// text accepts only JSON strings, trimmed and non-empty.
func text(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.String())
}

func firstText(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := text(doc.Get(p)); s != "" {
			return s
		}
	}
	return ""
}

// idText accepts strings and numbers, the two shapes backends use for ids.
func idText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.String())
	case gjson.Number:
		return v.String()
	default:
		return ""
	}
}

func firstID(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := idText(doc.Get(p)); s != "" {
			return s
		}
	}
	return ""
}

// number accepts finite JSON numbers and numeric strings.
func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func firstNumber(doc gjson.Result, paths ...string) (float64, bool) {
	for _, p := range paths {
		if f, ok := number(doc.Get(p)); ok {
			return f, true
		}
	}
	return 0, false
}

func boolPtr(doc gjson.Result, paths ...string) *bool {
	for _, p := range paths {
		v := doc.Get(p)
		if v.Type == gjson.True || v.Type == gjson.False {
			b := v.Bool()
			return &b
		}
	}
	return nil
}

// object returns the first child that is a JSON object, or the document
// itself when none of the candidate keys hold one.
func object(doc gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if c := doc.Get(k); c.IsObject() {
			return c
		}
	}
	return doc
}

// items locates the entity array in a payload that may be the array itself
// or nest it under one of the conventional collection keys.
func items(doc gjson.Result) []gjson.Result {
	if doc.IsArray() {
		return doc.Array()
	}
	if !doc.IsObject() {
		return nil
	}
	for _, key := range []string{"data", "books", "results", "items"} {
		c := doc.Get(key)
		if c.IsArray() {
			return c.Array()
		}
		if c.IsObject() {
			if nested := c.Get("items"); nested.IsArray() {
				return nested.Array()
			}
		}
	}
	return nil
}
