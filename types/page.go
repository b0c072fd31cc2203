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

package types

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultPageName is the query-string key carrying the page index.
const DefaultPageName = "page"

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// PageRequest describes pagination, optional filter, and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	orders   []string // "id ASC", "name DESC"
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = 10
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	return &PageRequest{page, pageSize, filter, orders}
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, make([]string, 0))
}

// Pagination holds paged result items along with pagination metadata.
// Appended parameters are carried into every link built by URL so that
// the search and sort state survives page navigation.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
	PageName string

	appends url.Values
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{
		Page:     page,
		PageSize: pageSize,
		Items:    make([]*T, 0),
		PageName: DefaultPageName,
	}
}

// LastPage returns the index of the last page, at least 1.
func (p *Pagination[T]) LastPage() int {
	if p.PageSize < 1 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// HasMore reports whether a page after the current one exists.
func (p *Pagination[T]) HasMore() bool {
	return p.Page < p.LastPage()
}

// Appends records extra query-string parameters for link generation.
// Nested maps and slices are flattened with bracket notation, e.g.
// {"search": {"name": "bob"}} becomes search[name]=bob.
func (p *Pagination[T]) Appends(values map[string]any) *Pagination[T] {
	if p.appends == nil {
		p.appends = url.Values{}
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.appends.Del(k)
		flattenQuery(p.appends, k, values[k])
	}
	return p
}

// Query returns a copy of the appended parameters.
func (p *Pagination[T]) Query() url.Values {
	out := url.Values{}
	for k, vs := range p.appends {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// URL builds the link of the given page on top of base, keeping the
// appended parameters and any query already present in base.
func (p *Pagination[T]) URL(base string, page int) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, vs := range p.appends {
		q[k] = append([]string(nil), vs...)
	}
	name := p.PageName
	if name == "" {
		name = DefaultPageName
	}
	if page < 1 {
		page = 1
	}
	q.Set(name, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func flattenQuery(dst url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
	case string:
		dst.Add(key, v)
	case []string:
		for _, s := range v {
			dst.Add(key+"[]", s)
		}
	case []any:
		for _, item := range v {
			flattenQuery(dst, key+"[]", item)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenQuery(dst, key+"["+k+"]", v[k])
		}
	case JsonObject:
		flattenQuery(dst, key, map[string]any(v))
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			dst.Add(key+"["+k+"]", v[k])
		}
	default:
		dst.Add(key, strings.TrimSpace(fmt.Sprint(v)))
	}
}
