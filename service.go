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

package quarry

import (
	"context"
	"sync"

	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/repository"
	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/types"
	"github.com/uptrace/bun"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier.
	Get(ctx context.Context, id any, columns ...string) (*T, error)

	// All returns all entities.
	All(ctx context.Context, columns ...string) ([]*T, error)

	// FindBy returns the first entity whose column matches value.
	FindBy(ctx context.Context, column string, value any, columns ...string) (*T, error)

	// FindAllBy returns every entity whose column matches value.
	FindAllBy(ctx context.Context, column string, value any, columns ...string) ([]*T, error)

	// Exists reports whether an entity with column = value exists.
	Exists(ctx context.Context, column string, value any) (bool, error)

	// Count counts entities matching column; an empty column counts all.
	Count(ctx context.Context, column string, value any) (int, error)

	// Pluck scans one column of every entity into dest.
	Pluck(ctx context.Context, column string, dest any) error

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Query executes a raw query and maps the results to entities.
	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// NewSearch returns a search request preloaded with the service rules
	// and its default size.
	NewSearch() *search.Request[T]

	// Search applies a search request and returns the bounded result.
	Search(ctx context.Context, req *search.Request[T]) ([]*T, error)

	// SearchPage applies a search request as a paginated query.
	SearchPage(ctx context.Context, req *search.Request[T]) (*types.Pagination[T], error)

	// Paginate reads search, sort and page parameters from src and returns
	// one page filtered by the service rules, the base wheres and orders.
	Paginate(ctx context.Context, src search.Source, wheres map[string]any, orders map[string]string) (*types.Pagination[T], error)

	// Create inserts one or more new entities.
	Create(ctx context.Context, model ...*T) error

	// Save inserts model when its primary key is zero and updates it otherwise.
	Save(ctx context.Context, model *T) error

	// Update modifies an existing entity.
	Update(ctx context.Context, model *T) error

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) error

	// SaveOrUpdate upserts entities based on fields and duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	// CreateWithTx inserts entities within an existing transaction.
	CreateWithTx(ctx context.Context, tx *bun.Tx, model ...*T) error

	// SaveOrUpdateWithTx upserts entities within a transaction.
	SaveOrUpdateWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, model ...*T) error

	// UpdateWithTx updates an entity within a transaction.
	UpdateWithTx(ctx context.Context, tx *bun.Tx, model *T) error

	// DeleteWithTx removes an entity within a transaction.
	DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder for the entity.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder for the entity.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder for the entity.
	DeleteBuilder() *bun.DeleteQuery
}

type baseServiceImpl[T any] struct {
	db      *bun.DB
	repo    repository.Repository[T]
	once    sync.Once
	hooks   Hooks[T]
	rules   search.RuleTable
	options search.Options
}

// Option configures a service.
type Option[T any] func(*baseServiceImpl[T])

// WithDB binds the service to db instead of the global connection.
func WithDB[T any](db *bun.DB) Option[T] {
	return func(s *baseServiceImpl[T]) { s.db = db }
}

// WithHooks installs lifecycle hooks.
func WithHooks[T any](hooks Hooks[T]) Option[T] {
	return func(s *baseServiceImpl[T]) { s.hooks = hooks }
}

// WithSearchRules merges raw rules (anything search.ParseRules accepts)
// into the service rule table.
func WithSearchRules[T any](rules any) Option[T] {
	return func(s *baseServiceImpl[T]) { s.rules = s.rules.Merge(search.ParseRules(rules)) }
}

// WithSearchOptions overlays the non-zero fields of opts on the defaults.
// Rules carried by opts are merged into the service rule table.
func WithSearchOptions[T any](opts search.Options) Option[T] {
	return func(s *baseServiceImpl[T]) {
		s.options = s.options.Merge(opts)
		if len(opts.Rules) > 0 {
			s.rules = s.rules.Merge(search.ParseRules(opts.Rules))
		}
	}
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection, unless WithDB
// binds another one.
func NewService[T any](opts ...Option[T]) Service[T] {
	return newBaseServiceImpl[T](opts...)
}

func newBaseServiceImpl[T any](opts ...Option[T]) *baseServiceImpl[T] {
	s := &baseServiceImpl[T]{
		rules:   search.RuleTable{},
		options: search.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() {
		db := s.db
		if db == nil {
			db = database.GetDB()
		}
		s.repo = repository.NewRepository[T](db)
	})
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any, columns ...string) (*T, error) {
	return s.baseRepo().Find(ctx, id, columns...)
}

func (s *baseServiceImpl[T]) All(ctx context.Context, columns ...string) ([]*T, error) {
	return s.baseRepo().All(ctx, columns...)
}

func (s *baseServiceImpl[T]) FindBy(ctx context.Context, column string, value any, columns ...string) (*T, error) {
	return s.baseRepo().FindBy(ctx, column, value, columns...)
}

func (s *baseServiceImpl[T]) FindAllBy(ctx context.Context, column string, value any, columns ...string) ([]*T, error) {
	return s.baseRepo().FindAllBy(ctx, column, value, columns...)
}

func (s *baseServiceImpl[T]) Exists(ctx context.Context, column string, value any) (bool, error) {
	return s.baseRepo().Exists(ctx, column, value)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, column string, value any) (int, error) {
	return s.baseRepo().Count(ctx, column, value)
}

func (s *baseServiceImpl[T]) Pluck(ctx context.Context, column string, dest any) error {
	return s.baseRepo().Pluck(ctx, column, dest)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.baseRepo().List(ctx, filter)
}

func (s *baseServiceImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	return s.baseRepo().Query(ctx, query, args...)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().Page(ctx, page)
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, model ...*T) error {
	return s.runCreate(ctx, model, func() error { return s.baseRepo().Create(ctx, model...) })
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model *T) error {
	return s.runSave(ctx, model, func() error { return s.baseRepo().Save(ctx, model) })
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) error {
	return s.runUpdate(ctx, model, func() error { return s.baseRepo().Update(ctx, model) })
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) error {
	return s.runDelete(ctx, id, func() error { return s.baseRepo().Delete(ctx, id) })
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	return s.baseRepo().Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) CreateWithTx(ctx context.Context, tx *bun.Tx, model ...*T) error {
	return s.runCreate(ctx, model, func() error { return s.baseRepo().CreateWithTx(ctx, tx, model...) })
}

func (s *baseServiceImpl[T]) SaveOrUpdateWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, model ...*T) error {
	return s.baseRepo().UpsertWithTx(ctx, tx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) UpdateWithTx(ctx context.Context, tx *bun.Tx, model *T) error {
	return s.runUpdate(ctx, model, func() error { return s.baseRepo().UpdateWithTx(ctx, tx, model) })
}

func (s *baseServiceImpl[T]) DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error {
	return s.runDelete(ctx, id, func() error { return s.baseRepo().DeleteWithTx(ctx, tx, id) })
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}

func (s *baseServiceImpl[T]) InsertBuilder() *bun.InsertQuery {
	return s.baseRepo().NewInsert()
}

func (s *baseServiceImpl[T]) UpdateBuilder() *bun.UpdateQuery {
	return s.baseRepo().NewUpdate()
}

func (s *baseServiceImpl[T]) DeleteBuilder() *bun.DeleteQuery {
	return s.baseRepo().NewDelete()
}
