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

	"github.com/tomoncle/quarry/types"
)

// Filterer receives compiled conditions. Group must wrap everything fn
// adds in one parenthesized expression joined to the outer query by
// boolean.
type Filterer interface {
	Where(field, operator string, value any, boolean Boolean)
	Group(boolean Boolean, fn func(Filterer))
}

// Query is the minimal capability set a storage backend exposes to run
// a search.
type Query[T any] interface {
	Filterer
	OrderBy(column string, direction types.Direction)
	Limit(n int)
	Columns(columns ...string)
	Get(ctx context.Context) ([]*T, error)
}

// Paginator is implemented by queries that can return one page of results.
type Paginator[T any] interface {
	Paginate(ctx context.Context, pageSize int, pageName string, page int) (*types.Pagination[T], error)
}

// Searchable is a repository that hands out fresh queries.
type Searchable[T any] interface {
	NewQuery() Query[T]
}

// FilterFunc mutates the compiled query before ordering is applied. A nil
// return keeps the query it was given.
type FilterFunc[T any] func(q Query[T]) Query[T]
