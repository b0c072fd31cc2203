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

	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// FinderRepository defines lookups by primary key or by column value.
// A slice value matches with IN, anything else with equality. Columns
// restrict the selected columns; none (or "*") selects all of them.
type FinderRepository[T any] interface {
	Find(ctx context.Context, id any, columns ...string) (*T, error)

	All(ctx context.Context, columns ...string) ([]*T, error)

	FindBy(ctx context.Context, column string, value any, columns ...string) (*T, error)

	FindAllBy(ctx context.Context, column string, value any, columns ...string) ([]*T, error)

	Exists(ctx context.Context, column string, value any) (bool, error)

	// Count counts rows matching column; an empty column counts every row.
	Count(ctx context.Context, column string, value any) (int, error)

	// Pluck scans one column of every row into dest, a pointer to a slice.
	Pluck(ctx context.Context, column string, dest any) error
}

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	FinderRepository[T]

	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	Create(ctx context.Context, entity ...*T) error

	// Save inserts entity when its primary key is zero and updates it otherwise.
	Save(ctx context.Context, entity *T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	UpdateBy(ctx context.Context, id any, values map[string]any) error

	Delete(ctx context.Context, id any) error
}

// TransactionRepository defines CRUD operations executed within a transaction.
type TransactionRepository[T any] interface {
	CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error
	UpsertWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error
	UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error
	DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// SearchRepository runs rule-driven searches.
type SearchRepository[T any] interface {
	search.Searchable[T]
	Search(ctx context.Context, req *search.Request[T]) ([]*T, error)
	SearchPage(ctx context.Context, req *search.Request[T]) (*types.Pagination[T], error)
}

// Repository combines CRUD, pagination, search and transactional operations
// and exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	SearchRepository[T]
	TransactionRepository[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
