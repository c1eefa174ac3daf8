package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Reserved parameter names that control sorting, projection and pagination
// rather than filtering.
const (
	paramPage   = "page"
	paramSort   = "sort"
	paramLimit  = "limit"
	paramFields = "fields"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100

	// defaultSortField orders results newest-first when no sort is given.
	defaultSortField = "created_at"
)

// Op is a whitelisted comparison operator. Anything outside this set is
// never interpreted as an operator.
type Op int

const (
	OpEq Op = iota
	OpGt
	OpGte
	OpLt
	OpLte
)

// SQL returns the operator's SQL form.
func (op Op) SQL() string {
	switch op {
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	default:
		return "="
	}
}

func parseOp(token string) (Op, bool) {
	switch token {
	case "gt":
		return OpGt, true
	case "gte":
		return OpGte, true
	case "lt":
		return OpLt, true
	case "lte":
		return OpLte, true
	}
	return OpEq, false
}

// Filter is a single field/operator/value predicate.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Sort is a single ordering key.
type Sort struct {
	Field string
	Desc  bool
}

// Spec is a not-yet-executed fetch description derived from request
// parameters. It is inert data, independent of any store's filter syntax;
// execution is deferred to an adapter.
type Spec struct {
	Filters []Filter
	Sorts   []Sort
	Fields  []string
	Page    int
	Limit   int
}

// Offset returns the number of records to skip for the requested page.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// Parse translates a flat request parameter map into a Spec. Reserved keys
// (page, sort, limit, fields) control pagination, ordering and projection;
// every other key becomes a filter predicate. A bracketed suffix selects a
// comparison operator (price[lte]=100); only gte, gt, lte and lt are
// recognized, any other bracketed key is kept literally as a field name.
func Parse(values url.Values) Spec {
	spec := Spec{
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}

	for key, vals := range values {
		switch key {
		case paramPage, paramSort, paramLimit, paramFields:
			continue
		}
		field, op := splitOperator(key)
		for _, v := range vals {
			spec.Filters = append(spec.Filters, Filter{Field: field, Op: op, Value: coerceValue(v)})
		}
	}

	if raw := values.Get(paramSort); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.HasPrefix(part, "-") {
				spec.Sorts = append(spec.Sorts, Sort{Field: part[1:], Desc: true})
			} else {
				spec.Sorts = append(spec.Sorts, Sort{Field: part})
			}
		}
	}
	if len(spec.Sorts) == 0 {
		spec.Sorts = []Sort{{Field: defaultSortField, Desc: true}}
	}

	if raw := values.Get(paramFields); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				spec.Fields = append(spec.Fields, part)
			}
		}
	}

	if page, err := strconv.Atoi(values.Get(paramPage)); err == nil && page > 0 {
		spec.Page = page
	}
	if limit, err := strconv.Atoi(values.Get(paramLimit)); err == nil && limit > 0 {
		spec.Limit = limit
	}

	return spec
}

// splitOperator separates "price[lte]" into field and operator. Keys with an
// unrecognized bracket token are passed through untouched as field names.
func splitOperator(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, OpEq
	}
	token := key[open+1 : len(key)-1]
	if op, ok := parseOp(token); ok {
		return key[:open], op
	}
	return key, OpEq
}

// coerceValue gives filter values a concrete type so the store compares
// numbers and booleans natively instead of as text.
func coerceValue(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}
