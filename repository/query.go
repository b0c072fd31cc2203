/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"reflect"

	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// filter writes search predicates into a bun select query.
type filter struct {
	sel     *bun.SelectQuery
	dialect dialect.Name
}

// NewFilter returns a search.Filterer appending conditions to sel.
func NewFilter(sel *bun.SelectQuery) search.Filterer {
	return &filter{sel: sel, dialect: sel.Dialect().Name()}
}

func (f *filter) Where(field, operator string, value any, boolean search.Boolean) {
	query, args, ok := f.condition(field, operator, value)
	if !ok {
		return
	}
	if boolean == search.Or {
		f.sel.WhereOr(query, args...)
		return
	}
	f.sel.Where(query, args...)
}

func (f *filter) Group(boolean search.Boolean, fn func(search.Filterer)) {
	sep := " AND "
	if boolean == search.Or {
		sep = " OR "
	}
	f.sel.WhereGroup(sep, func(q *bun.SelectQuery) *bun.SelectQuery {
		inner := &filter{sel: q, dialect: f.dialect}
		fn(inner)
		return inner.sel
	})
}

// condition renders one predicate. ok is false when the predicate selects
// nothing to filter on, such as a between with no bounds or an empty NOT IN.
func (f *filter) condition(field, operator string, value any) (query string, args []any, ok bool) {
	col := bun.Ident(field)
	op, _ := search.NormalizeOperator(operator)
	switch op {
	case search.OpEq:
		if value == nil {
			return "? IS NULL", []any{col}, true
		}
		return "? = ?", []any{col, value}, true
	case search.OpNe, search.OpNeAlt:
		if value == nil {
			return "? IS NOT NULL", []any{col}, true
		}
		return "? " + op + " ?", []any{col, value}, true
	case search.OpGt, search.OpGte, search.OpLt, search.OpLte:
		if value == nil {
			return "", nil, false
		}
		return "? " + op + " ?", []any{col, value}, true
	case search.OpLike:
		return "? LIKE ?", []any{col, value}, true
	case search.OpNotLike:
		return "? NOT LIKE ?", []any{col, value}, true
	case search.OpILike, search.OpNotILike:
		not := ""
		if op == search.OpNotILike {
			not = "NOT "
		}
		if f.dialect == dialect.PG {
			return "? " + not + "ILIKE ?", []any{col, value}, true
		}
		return "LOWER(?) " + not + "LIKE LOWER(?)", []any{col, value}, true
	case search.OpBetween, search.OpNotBetween:
		return between(col, op == search.OpNotBetween, value)
	case search.OpIn:
		items := sliceOf(value)
		if len(items) == 0 {
			return "1 = 0", nil, true
		}
		return "? IN (?)", []any{col, bun.In(items)}, true
	case search.OpNotIn:
		items := sliceOf(value)
		if len(items) == 0 {
			return "", nil, false
		}
		return "? NOT IN (?)", []any{col, bun.In(items)}, true
	case search.OpNull:
		return "? IS NULL", []any{col}, true
	case search.OpNotNull:
		return "? IS NOT NULL", []any{col}, true
	}
	return "? = ?", []any{col, value}, true
}

// between degrades to a one-sided comparison when a bound is missing.
func between(col bun.Ident, not bool, value any) (string, []any, bool) {
	bounds := sliceOf(value)
	var lo, hi any
	if len(bounds) > 0 {
		lo = bounds[0]
	}
	if len(bounds) > 1 {
		hi = bounds[1]
	}
	switch {
	case lo != nil && hi != nil:
		if not {
			return "? NOT BETWEEN ? AND ?", []any{col, lo, hi}, true
		}
		return "? BETWEEN ? AND ?", []any{col, lo, hi}, true
	case lo != nil:
		if not {
			return "? < ?", []any{col, lo}, true
		}
		return "? >= ?", []any{col, lo}, true
	case hi != nil:
		if not {
			return "? > ?", []any{col, hi}, true
		}
		return "? <= ?", []any{col, hi}, true
	default:
		return "", nil, false
	}
}

func sliceOf(value any) []any {
	if value == nil {
		return nil
	}
	if items, ok := value.([]any); ok {
		return items
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return []any{value}
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

func isCollection(value any) bool {
	if value == nil {
		return false
	}
	t := reflect.TypeOf(value)
	return t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}

// Query runs a search against one model table. It implements
// search.Query and search.Paginator.
type Query[T any] struct {
	filter
	items []*T
}

func newQuery[T any](db bun.IDB) *Query[T] {
	q := &Query[T]{}
	q.sel = db.NewSelect().Model(&q.items)
	q.dialect = db.Dialect().Name()
	return q
}

func (q *Query[T]) OrderBy(column string, direction types.Direction) {
	q.sel.OrderExpr("? "+direction.Name(), bun.Ident(column))
}

// Limit bounds the result; n <= 0 leaves it unbounded.
func (q *Query[T]) Limit(n int) {
	if n > 0 {
		q.sel.Limit(n)
	}
}

func (q *Query[T]) Columns(columns ...string) {
	for _, c := range columns {
		if c != "" && c != "*" {
			q.sel.Column(c)
		}
	}
}

func (q *Query[T]) Get(ctx context.Context) ([]*T, error) {
	if err := q.sel.Scan(ctx); err != nil {
		return nil, err
	}
	return q.items, nil
}

func (q *Query[T]) Paginate(ctx context.Context, pageSize int, pageName string, page int) (*types.Pagination[T], error) {
	if pageSize < 1 {
		pageSize = search.DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	pagination := types.NewDefaultPagination[T](page, pageSize)
	if pageName != "" {
		pagination.PageName = pageName
	}
	total, err := q.sel.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	err = q.sel.
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = q.items
	return pagination, nil
}

// String renders the SQL of the query built so far.
func (q *Query[T]) String() string { return q.sel.String() }

var (
	_ search.Query[struct{}]     = (*Query[struct{}])(nil)
	_ search.Paginator[struct{}] = (*Query[struct{}])(nil)
)
