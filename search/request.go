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

package search

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/quarry/types"
)

const (
	// DefaultSize bounds the rows returned by Apply.
	DefaultSize = 1000
	// DefaultPageSize is the page size used by paginated searches.
	DefaultPageSize = 25
	// DefaultRequestParamName is the request key holding search values.
	DefaultRequestParamName = "search"
	// DefaultSortParamName is the request key holding sort instructions.
	DefaultSortParamName = "sort"
)

// Sort is one ordering instruction.
type Sort struct {
	Column    string
	Direction types.Direction
}

// NewSort normalizes direction: only "asc" (any case) sorts ascending.
func NewSort(column, direction string) Sort {
	return Sort{Column: strings.TrimSpace(column), Direction: types.ParseDirection(direction)}
}

type where struct {
	field string
	value any
}

type requestState int

const (
	building requestState = iota
	applied
)

// Request accumulates base filters, rules, parameters, sorting and paging
// for one search. It is built, applied once and discarded; it is not safe
// for concurrent use.
type Request[T any] struct {
	size     int
	page     int
	pageName string
	columns  []string
	wheres   []where
	rules    RuleTable
	params   *Params
	orders   []Sort
	filters  []FilterFunc[T]
	appends  map[string]any
	state    requestState
}

// NewRequest returns a request bounded to size rows, or DefaultSize when
// size is not positive. For paginated searches size is the page size.
func NewRequest[T any](size int) *Request[T] {
	if size <= 0 {
		size = DefaultSize
	}
	return &Request[T]{
		size:     size,
		pageName: types.DefaultPageName,
		rules:    RuleTable{},
		params:   NewParams(),
		appends:  map[string]any{},
	}
}

// Where adds a base filter that bypasses the rule engine. Slice values
// filter with IN, everything else with equality. A repeated field
// replaces the earlier value.
func (r *Request[T]) Where(field string, value any) *Request[T] {
	for i := range r.wheres {
		if r.wheres[i].field == field {
			r.wheres[i].value = value
			return r
		}
	}
	r.wheres = append(r.wheres, where{field: field, value: value})
	return r
}

// Wheres adds base filters in sorted field order.
func (r *Request[T]) Wheres(m map[string]any) *Request[T] {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Where(k, m[k])
	}
	return r
}

// Rules merges raw rules (anything ParseRules accepts) into the request;
// later calls override earlier ones by key.
func (r *Request[T]) Rules(raw any) *Request[T] {
	r.rules = r.rules.Merge(ParseRules(raw))
	return r
}

// Params merges query parameters, keeping their order.
func (r *Request[T]) Params(p *Params) *Request[T] {
	r.params.Merge(p)
	return r
}

// Param sets a single query parameter.
func (r *Request[T]) Param(name string, value any) *Request[T] {
	r.params.Set(name, value)
	return r
}

// Request pulls the query payload stored under queryName and the sort
// payload stored under sortName from src. An empty queryName takes every
// value of src as a parameter. A scalar query payload becomes the single
// parameter queryName. Absent keys are ignored. Both payloads are
// remembered and appended to paginated results.
func (r *Request[T]) Request(src Source, queryName, sortName string) *Request[T] {
	if src == nil {
		return r
	}
	if queryName == "" {
		r.params.MergeMap(src.All())
	} else if v, ok := src.Get(queryName); ok {
		if m, isMap := asMap(v); isMap {
			r.params.MergeMap(m)
		} else {
			r.params.Set(queryName, v)
		}
		r.appends[queryName] = v
	}
	if sortName != "" {
		if v, ok := src.Get(sortName); ok {
			r.SortBy(v)
			r.appends[sortName] = v
		}
	}
	return r
}

// Filter registers a callback run after rule predicates and before
// ordering, in registration order.
func (r *Request[T]) Filter(fn FilterFunc[T]) *Request[T] {
	if fn != nil {
		r.filters = append(r.filters, fn)
	}
	return r
}

// OrderBy appends a sort column.
func (r *Request[T]) OrderBy(column, direction string) *Request[T] {
	if s := NewSort(column, direction); s.Column != "" {
		r.orders = append(r.orders, s)
	}
	return r
}

// Sort appends column/direction pairs in sorted column order.
func (r *Request[T]) Sort(m map[string]string) *Request[T] {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.OrderBy(k, m[k])
	}
	return r
}

// SortBy appends sort instructions from a request payload. Strings hold
// comma separated items, each "column", "-column" or "column:direction";
// a bare column sorts ascending and a leading '-' descending. Maps are
// read as column => direction and slices item by item.
func (r *Request[T]) SortBy(v any) *Request[T] {
	switch t := v.(type) {
	case string:
		for _, item := range strings.Split(t, ",") {
			r.sortItem(item)
		}
	case []string:
		for _, item := range t {
			r.SortBy(item)
		}
	case []any:
		for _, item := range t {
			r.SortBy(item)
		}
	default:
		if m, ok := asMap(v); ok {
			s := make(map[string]string, len(m))
			for k, d := range m {
				s[k] = fmt.Sprint(d)
			}
			r.Sort(s)
		}
	}
	return r
}

func (r *Request[T]) sortItem(item string) {
	item = strings.TrimSpace(item)
	switch {
	case item == "":
	case strings.HasPrefix(item, "-"):
		r.OrderBy(item[1:], "desc")
	default:
		column, direction, found := strings.Cut(item, ":")
		if !found {
			direction = "asc"
		}
		r.OrderBy(column, direction)
	}
}

// Take changes the row bound, or page size when paginating.
func (r *Request[T]) Take(size int) *Request[T] {
	if size > 0 {
		r.size = size
	}
	return r
}

// Columns restricts the selected columns.
func (r *Request[T]) Columns(columns ...string) *Request[T] {
	r.columns = append(r.columns[:0], columns...)
	return r
}

// Page selects the page index used by ApplyPage.
func (r *Request[T]) Page(page int) *Request[T] {
	r.page = page
	return r
}

// PageName changes the query-string key of the page index.
func (r *Request[T]) PageName(name string) *Request[T] {
	if name != "" {
		r.pageName = name
	}
	return r
}

// Groups compiles the current rules and parameters without applying.
func (r *Request[T]) Groups() []Group {
	return Compile(r.rules, r.params)
}

// Orders returns the sort list in registration order.
func (r *Request[T]) Orders() []Sort {
	return append([]Sort(nil), r.orders...)
}

// Apply runs the search against repo and returns at most size rows.
func (r *Request[T]) Apply(ctx context.Context, repo Searchable[T]) ([]*T, error) {
	q, err := r.begin(repo)
	if err != nil {
		return nil, err
	}
	q = r.build(q)
	q.Limit(r.size)
	return q.Get(ctx)
}

// ApplyPage runs the search as a paginated query and appends the original
// query and sort payloads to the result for link generation. The query
// returned by repo must implement Paginator.
func (r *Request[T]) ApplyPage(ctx context.Context, repo Searchable[T]) (*types.Pagination[T], error) {
	q, err := r.begin(repo)
	if err != nil {
		return nil, err
	}
	if _, ok := q.(Paginator[T]); !ok {
		// nothing ran yet, the request may be applied to another repository
		r.state = building
		return nil, fmt.Errorf("%w: query %T cannot paginate", ErrInvalidArgument, q)
	}
	q = r.build(q)
	p, ok := q.(Paginator[T])
	if !ok {
		return nil, fmt.Errorf("%w: filtered query %T cannot paginate", ErrInvalidArgument, q)
	}
	page := r.page
	if page < 1 {
		page = 1
	}
	result, err := p.Paginate(ctx, r.size, r.pageName, page)
	if err != nil {
		return nil, err
	}
	if result != nil && len(r.appends) > 0 {
		result.Appends(r.appends)
	}
	return result, nil
}

func (r *Request[T]) begin(repo Searchable[T]) (Query[T], error) {
	if r.state == applied {
		return nil, ErrAlreadyApplied
	}
	if isNil(repo) {
		return nil, fmt.Errorf("%w: nil repository", ErrInvalidArgument)
	}
	q := repo.NewQuery()
	if isNil(q) {
		return nil, fmt.Errorf("%w: repository %T returned no query", ErrInvalidArgument, repo)
	}
	r.state = applied
	return q, nil
}

func (r *Request[T]) build(q Query[T]) Query[T] {
	for _, w := range r.wheres {
		if isCollection(w.value) {
			q.Where(w.field, OpIn, toSlice(w.value), And)
			continue
		}
		q.Where(w.field, OpEq, w.value, And)
	}

	groups := Compile(r.rules, r.params)
	Emit(q, groups)

	for _, fn := range r.filters {
		if next := fn(q); !isNil(next) {
			q = next
		}
	}

	if len(r.columns) > 0 {
		q.Columns(r.columns...)
	}
	for _, o := range r.orders {
		q.OrderBy(o.Column, o.Direction)
	}

	getLogger().WithFields(logrus.Fields{
		"wheres":  len(r.wheres),
		"groups":  len(groups),
		"filters": len(r.filters),
		"orders":  len(r.orders),
	}).Debug("search: query compiled")
	return q
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case types.JsonObject:
		return map[string]any(t), true
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, s := range t {
			m[k] = s
		}
		return m, true
	default:
		return nil, false
	}
}

func isCollection(v any) bool {
	switch v.(type) {
	case []any, []string, []int, []int64:
		return true
	default:
		return false
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
