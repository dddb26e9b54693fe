package query

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-token-board/internal/domain"
)

type row struct {
	ID string `json:"id"`
	K  any    `json:"k"`
}

func ids(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestSortTokens_MissingLastStable(t *testing.T) {
	in := []row{{"a", 5}, {"b", nil}, {"c", 1}, {"d", nil}}

	desc := SortTokens(in, "k", Desc)
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(desc))

	asc := SortTokens(in, "k", Asc)
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(asc), "missing stays last ascending too")

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(in), "input is not mutated")
}

func TestSortTokens_EmptyStringAndNA(t *testing.T) {
	in := []row{{"a", ""}, {"b", "N/A"}, {"c", 3}, {"d", 10}}

	got := SortTokens(in, "k", Desc)
	assert.Equal(t, []string{"d", "c", "a", "b"}, ids(got))
}

func TestSortTokens_NumericStrings(t *testing.T) {
	in := []row{{"a", "9"}, {"b", "10"}, {"c", 2.5}}

	got := SortTokens(in, "k", Asc)
	assert.Equal(t, []string{"c", "a", "b"}, ids(got), "numeric strings compare as numbers")
}

func TestSortTokens_MixedNumbersAndText(t *testing.T) {
	forward := []row{{"x", "1x"}, {"two", 2}, {"ten", 10}}
	reverse := []row{{"ten", 10}, {"two", 2}, {"x", "1x"}}

	assert.Equal(t, []string{"two", "ten", "x"}, ids(SortTokens(forward, "k", Asc)))
	assert.Equal(t, []string{"two", "ten", "x"}, ids(SortTokens(reverse, "k", Asc)), "order must not depend on input order")
	assert.Equal(t, []string{"x", "ten", "two"}, ids(SortTokens(forward, "k", Desc)))
	assert.Equal(t, []string{"x", "ten", "two"}, ids(SortTokens(reverse, "k", Desc)))
}

func TestSortTokens_NaNStringIsText(t *testing.T) {
	in := []row{{"nan", "NaN"}, {"one", 1}, {"zero", 0}}

	got := SortTokens(in, "k", Asc)
	assert.Equal(t, []string{"zero", "one", "nan"}, ids(got))
}

func TestSortTokens_Strings(t *testing.T) {
	in := []row{{"a", "beta"}, {"b", "alpha"}, {"c", "gamma"}}

	got := SortTokens(in, "k", Asc)
	assert.Equal(t, []string{"b", "a", "c"}, ids(got))
}

func TestSortTokens_TiesKeepInputOrder(t *testing.T) {
	in := []row{{"a", 1}, {"b", 2}, {"c", 1}, {"d", 2}}

	got := SortTokens(in, "k", Desc)
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(got))
}

func TestSortTokens_EmptyKeyKeepsOrder(t *testing.T) {
	in := []row{{"b", 2}, {"a", 1}}
	assert.Equal(t, []string{"b", "a"}, ids(SortTokens(in, "", Asc)))
}

func TestSortTokens_NestedPathOnRecords(t *testing.T) {
	price := decimal.RequireFromString("0.5")
	recs := []domain.TokenRecord{
		{Address: "0x1", Txns24h: domain.TxnCounts{Buys: 3}},
		{Address: "0x2", Txns24h: domain.TxnCounts{Buys: 9}, Price: &price},
		{Address: "0x3", Txns24h: domain.TxnCounts{Buys: 5}},
	}

	got := SortTokens(recs, "txns24h.buys", Desc)
	assert.Equal(t, "0x2", got[0].Address)
	assert.Equal(t, "0x3", got[1].Address)
	assert.Equal(t, "0x1", got[2].Address)

	byPrice := SortTokens(recs, "price", Asc)
	assert.Equal(t, "0x2", byPrice[0].Address, "null prices sort last")
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Asc, ParseDirection("ASC"))
	assert.Equal(t, Desc, ParseDirection("desc"))
	assert.Equal(t, Desc, ParseDirection("sideways"))
	assert.Equal(t, Desc, ParseDirection(""))
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	assert.Equal(t, []int{24}, Paginate(items, 3, 12))
	assert.Len(t, Paginate(items, 1, 12), 12)
	assert.Equal(t, 12, Paginate(items, 2, 12)[0])
	assert.Empty(t, Paginate(items, 10, 12))
	assert.Empty(t, Paginate(items, 0, 12))
	assert.Empty(t, Paginate(items, 1, 0))
	assert.NotNil(t, Paginate(items, 10, 12))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 3, TotalPages(25, 12))
	assert.Equal(t, 2, TotalPages(24, 12))
	assert.Equal(t, 0, TotalPages(0, 12))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestRank_CountsDown(t *testing.T) {
	assert.Equal(t, 25, Rank(25, 1, 12, 0))
	assert.Equal(t, 14, Rank(25, 1, 12, 11))
	assert.Equal(t, 13, Rank(25, 2, 12, 0))
	assert.Equal(t, 1, Rank(25, 3, 12, 0))
}

func TestGuard_Supersedes(t *testing.T) {
	var g Guard

	first := g.Begin()
	require.True(t, first.Current())

	second := g.Begin()
	assert.False(t, first.Current())
	assert.True(t, second.Current())

	assert.False(t, Ticket{}.Current())
}

func TestGuard_Concurrent(t *testing.T) {
	var g Guard
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Begin()
		}()
	}
	wg.Wait()

	last := g.Begin()
	assert.True(t, last.Current())
}
