// Package query orders, slices and ranks reconciled records.
package query

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps anything other than "asc" to Desc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// sortValue is a resolved sort key.
type sortValue struct {
	missing bool
	numeric bool
	num     float64
	str     string
}

// resolve reads path from a record's JSON encoding.
// Null, absent, empty and "N/A" values are missing.
func resolve(doc []byte, path string) sortValue {
	r := gjson.GetBytes(doc, path)
	switch r.Type {
	case gjson.Null:
		return sortValue{missing: true}
	case gjson.Number:
		return sortValue{numeric: true, num: r.Float()}
	case gjson.True:
		return sortValue{numeric: true, num: 1}
	case gjson.False:
		return sortValue{numeric: true, num: 0}
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" || s == "N/A" {
			return sortValue{missing: true}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
			return sortValue{numeric: true, num: f}
		}
		return sortValue{str: s}
	default:
		return sortValue{str: r.Raw}
	}
}

// compareValues orders numbers before text, numbers numerically and text lexically.
func compareValues(a, b sortValue) int {
	switch {
	case a.numeric && !b.numeric:
		return -1
	case !a.numeric && b.numeric:
		return 1
	case a.numeric:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	default:
		return strings.Compare(a.str, b.str)
	}
}

// SortTokens returns a stably sorted copy of records ordered by key, which
// may be a nested JSON path such as "txns24h.buys". Records whose key is
// missing always sort last, in their original relative order. An empty key
// returns the input order.
func SortTokens[T any](records []T, key string, dir Direction) []T {
	out := slices.Clone(records)
	if key == "" || len(out) < 2 {
		return out
	}

	type keyed struct {
		rec T
		val sortValue
	}
	rows := make([]keyed, len(out))
	for i, r := range out {
		doc, err := json.Marshal(r)
		if err != nil {
			rows[i] = keyed{rec: r, val: sortValue{missing: true}}
			continue
		}
		rows[i] = keyed{rec: r, val: resolve(doc, key)}
	}

	slices.SortStableFunc(rows, func(a, b keyed) int {
		switch {
		case a.val.missing && b.val.missing:
			return 0
		case a.val.missing:
			return 1
		case b.val.missing:
			return -1
		}
		c := compareValues(a.val, b.val)
		if dir != Asc {
			c = -c
		}
		return c
	})

	for i, r := range rows {
		out[i] = r.rec
	}
	return out
}
