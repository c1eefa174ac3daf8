package query

import (
	"github.com/uptrace/bun"
)

// internalColumn is bookkeeping data that list responses omit unless the
// client asks for an explicit field set.
const internalColumn = "updated_at"

// ApplyFilter adds a single predicate to a bun select. The field is bound as
// a quoted identifier qualified with the main table's alias, so a joined
// relation sharing the column name cannot make it ambiguous, and the value is
// bound as a parameter.
func ApplyFilter(q *bun.SelectQuery, f Filter) *bun.SelectQuery {
	return q.Where("?TableAlias.? "+f.Op.SQL()+" ?", bun.Ident(f.Field), f.Value)
}

// ApplyTo translates a Spec into bun query-builder calls: filters, ordering,
// projection and pagination. The returned query is still unexecuted.
func ApplyTo(q *bun.SelectQuery, s Spec) *bun.SelectQuery {
	for _, f := range s.Filters {
		q = ApplyFilter(q, f)
	}

	for _, sort := range s.Sorts {
		dir := "ASC"
		if sort.Desc {
			dir = "DESC"
		}
		q = q.OrderExpr("?TableAlias.? "+dir, bun.Ident(sort.Field))
	}

	if len(s.Fields) > 0 {
		q = q.Column(s.Fields...)
	} else {
		q = q.ExcludeColumn(internalColumn)
	}

	return q.Limit(s.Limit).Offset(s.Offset())
}
