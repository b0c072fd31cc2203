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
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db *bun.DB
}

// NewRepository returns a generic repository backed by the provided Bun DB.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) table() *schema.Table {
	return r.db.Table(reflect.TypeOf((*T)(nil)).Elem())
}

// pk returns the first primary key column, "id" when the model declares none.
func (r *baseRepositoryImpl[T]) pk() string {
	if t := r.table(); len(t.PKs) > 0 {
		return t.PKs[0].Name
	}
	return "id"
}

func (r *baseRepositoryImpl[T]) ValsToSlice(entity ...*T) []*T {
	entities := make([]*T, len(entity))
	copy(entities, entity)
	return entities
}

func selectColumns(q *bun.SelectQuery, columns []string) *bun.SelectQuery {
	for _, c := range columns {
		if c != "" && c != "*" {
			q = q.Column(c)
		}
	}
	return q
}

// whereColumn matches a slice value with IN and anything else with equality.
func whereColumn(q *bun.SelectQuery, column string, value any) *bun.SelectQuery {
	op := search.OpEq
	if isCollection(value) {
		op = search.OpIn
	}
	NewFilter(q).Where(column, op, value, search.And)
	return q
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, id any, columns ...string) (*T, error) {
	return r.FindBy(ctx, r.pk(), id, columns...)
}

func (r *baseRepositoryImpl[T]) All(ctx context.Context, columns ...string) ([]*T, error) {
	var entities []*T
	err := selectColumns(r.db.NewSelect().Model(&entities), columns).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) FindBy(ctx context.Context, column string, value any, columns ...string) (*T, error) {
	var entity T
	query := selectColumns(r.db.NewSelect().Model(&entity), columns)
	err := whereColumn(query, column, value).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) FindAllBy(ctx context.Context, column string, value any, columns ...string) ([]*T, error) {
	var entities []*T
	query := selectColumns(r.db.NewSelect().Model(&entities), columns)
	err := whereColumn(query, column, value).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Exists(ctx context.Context, column string, value any) (bool, error) {
	query := r.db.NewSelect().Model((*T)(nil))
	return whereColumn(query, column, value).Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, column string, value any) (int, error) {
	query := r.db.NewSelect().Model((*T)(nil))
	if column != "" {
		query = whereColumn(query, column, value)
	}
	return query.Count(ctx)
}

func (r *baseRepositoryImpl[T]) Pluck(ctx context.Context, column string, dest any) error {
	return r.db.NewSelect().Model((*T)(nil)).Column(column).Scan(ctx, dest)
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	var entities []*T
	query := r.db.NewSelect().Model(&entities)
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	err := query.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entities, err
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	var entities []*T
	err := r.db.NewSelect().Model(&entities).Where(query, args...).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	var entities []*T
	query := r.db.NewSelect().Model(&entities)
	if pageRequest.GetFilter() != nil {
		query = query.Where(pageRequest.GetFilter().Schema, pageRequest.GetFilter().Args...)
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	err = query.
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Order(pageRequest.GetOrders()...).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

// NewQuery starts a search query over the model table.
func (r *baseRepositoryImpl[T]) NewQuery() search.Query[T] {
	return newQuery[T](r.db)
}

func (r *baseRepositoryImpl[T]) Search(ctx context.Context, req *search.Request[T]) ([]*T, error) {
	return req.Apply(ctx, r)
}

func (r *baseRepositoryImpl[T]) SearchPage(ctx context.Context, req *search.Request[T]) (*types.Pagination[T], error) {
	return req.ApplyPage(ctx, r)
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := r.ValsToSlice(entity...)
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Save(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("%w: nil entity", search.ErrInvalidArgument)
	}
	if r.isNew(entity) {
		_, err := r.db.NewInsert().Model(entity).Exec(ctx)
		return err
	}
	return r.Update(ctx, entity)
}

// isNew reports whether any primary key of entity still holds its zero value.
func (r *baseRepositoryImpl[T]) isNew(entity *T) bool {
	t := r.table()
	if len(t.PKs) == 0 {
		return true
	}
	v := reflect.ValueOf(entity).Elem()
	for _, pk := range t.PKs {
		if pk.HasZeroValue(v) {
			return true
		}
	}
	return false
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, nil, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) UpdateBy(ctx context.Context, id any, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	_, err := r.db.NewUpdate().
		Model(&values).
		TableExpr("?", bun.Ident(r.table().Name)).
		Where("? = ?", bun.Ident(r.pk()), id).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	var entity T
	_, err := r.db.NewDelete().Model(&entity).Where("? = ?", bun.Ident(r.pk()), id).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error {
	entities := r.ValsToSlice(entity...)
	_, err := tx.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) UpsertWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, tx, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) UpdateWithTx(ctx context.Context, tx *bun.Tx, entity *T) error {
	_, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) DeleteWithTx(ctx context.Context, tx *bun.Tx, id any) error {
	var entity T
	_, err := tx.NewDelete().Model(&entity).Where("? = ?", bun.Ident(r.pk()), id).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: upsert fields cannot be empty", search.ErrInvalidArgument)
	}

	var insertQuery *bun.InsertQuery
	if tx != nil {
		insertQuery = tx.NewInsert()
	} else {
		insertQuery = r.db.NewInsert()
	}

	entities := r.ValsToSlice(entity...)

	if r.db.HasFeature(feature.InsertOnConflict) {
		if len(duplicateKeys) == 0 {
			duplicateKeys = []string{r.pk()}
		}
		return r.upsertOnConflict(ctx, insertQuery, fields, duplicateKeys, entities)
	} else if r.db.HasFeature(feature.InsertOnDuplicateKey) {
		return r.upsertWithMySQL(ctx, insertQuery, fields, entities)
	}
	// no native upsert (mssql): insert, then update by primary key
	return r.upsertFallback(ctx, tx, entities)
}

func (r *baseRepositoryImpl[T]) upsertWithMySQL(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, entities []*T) error {
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = VALUES(%s)", bun.Ident(field), bun.Ident(field)))
	}
	_, err := insertQuery.
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string, entities []*T) error {
	keyNames := strings.Join(duplicateKeys, ",")
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = EXCLUDED.%s", bun.Ident(field), bun.Ident(field)))
	}
	_, err := insertQuery.
		Model(&entities).
		On("CONFLICT (" + keyNames + ") DO UPDATE").
		Set(strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, tx *bun.Tx, entities []*T) error {
	var db bun.IDB = r.db
	if tx != nil {
		db = tx
	}
	for _, entity := range entities {
		_, err := db.NewInsert().Model(entity).Exec(ctx)
		if err != nil {
			_, updateErr := db.NewUpdate().Model(entity).WherePK().Exec(ctx)
			if updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %v", err, updateErr)
			}
		}
	}
	return nil
}
