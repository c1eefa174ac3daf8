package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	spec := Parse(url.Values{})

	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, 100, spec.Limit)
	assert.Equal(t, 0, spec.Offset())
	assert.Empty(t, spec.Filters)
	assert.Empty(t, spec.Fields)
	require.Len(t, spec.Sorts, 1)
	assert.Equal(t, Sort{Field: "created_at", Desc: true}, spec.Sorts[0])
}

func TestParseFilters(t *testing.T) {
	values, err := url.ParseQuery("duration[gte]=5&price[lt]=1000&difficulty=easy")
	require.NoError(t, err)

	spec := Parse(values)

	require.Len(t, spec.Filters, 3)
	assert.Contains(t, spec.Filters, Filter{Field: "duration", Op: OpGte, Value: int64(5)})
	assert.Contains(t, spec.Filters, Filter{Field: "price", Op: OpLt, Value: int64(1000)})
	assert.Contains(t, spec.Filters, Filter{Field: "difficulty", Op: OpEq, Value: "easy"})
}

func TestParseRejectsUnknownOperators(t *testing.T) {
	values, err := url.ParseQuery("price[regex]=1&name[ne]=x")
	require.NoError(t, err)

	spec := Parse(values)

	// Unknown bracket tokens are never treated as operators; the whole key
	// stays a literal field name compared with equality.
	require.Len(t, spec.Filters, 2)
	for _, f := range spec.Filters {
		assert.Equal(t, OpEq, f.Op)
	}
	fields := []string{spec.Filters[0].Field, spec.Filters[1].Field}
	assert.ElementsMatch(t, []string{"price[regex]", "name[ne]"}, fields)
}

func TestParseSort(t *testing.T) {
	values, err := url.ParseQuery("sort=-ratings_average,price")
	require.NoError(t, err)

	spec := Parse(values)

	require.Len(t, spec.Sorts, 2)
	assert.Equal(t, Sort{Field: "ratings_average", Desc: true}, spec.Sorts[0])
	assert.Equal(t, Sort{Field: "price", Desc: false}, spec.Sorts[1])
}

func TestParseFields(t *testing.T) {
	values, err := url.ParseQuery("fields=name,price, summary")
	require.NoError(t, err)

	spec := Parse(values)

	assert.Equal(t, []string{"name", "price", "summary"}, spec.Fields)
}

func TestParsePagination(t *testing.T) {
	values, err := url.ParseQuery("page=2&limit=10")
	require.NoError(t, err)

	spec := Parse(values)

	assert.Equal(t, 2, spec.Page)
	assert.Equal(t, 10, spec.Limit)
	assert.Equal(t, 10, spec.Offset())
}

func TestParseIgnoresInvalidPagination(t *testing.T) {
	values, err := url.ParseQuery("page=-1&limit=abc")
	require.NoError(t, err)

	spec := Parse(values)

	assert.Equal(t, DefaultPage, spec.Page)
	assert.Equal(t, DefaultLimit, spec.Limit)
}

func TestParseReservedKeysAreNotFilters(t *testing.T) {
	values, err := url.ParseQuery("page=2&sort=price&limit=10&fields=name&price[lte]=100")
	require.NoError(t, err)

	spec := Parse(values)

	require.Len(t, spec.Filters, 1)
	assert.Equal(t, Filter{Field: "price", Op: OpLte, Value: int64(100)}, spec.Filters[0])
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, int64(42), coerceValue("42"))
	assert.Equal(t, 4.5, coerceValue("4.5"))
	assert.Equal(t, true, coerceValue("true"))
	assert.Equal(t, "easy", coerceValue("easy"))
}

func TestOpSQL(t *testing.T) {
	assert.Equal(t, "=", OpEq.SQL())
	assert.Equal(t, ">", OpGt.SQL())
	assert.Equal(t, ">=", OpGte.SQL())
	assert.Equal(t, "<", OpLt.SQL())
	assert.Equal(t, "<=", OpLte.SQL())
}
