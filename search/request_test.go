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
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/quarry/types"
)

type user struct {
	ID   int
	Name string
}

type fakeQuery struct {
	calls   []string
	columns []string
	limit   int
	paged   struct {
		size, page int
		name       string
	}
}

func (q *fakeQuery) Where(field, operator string, value any, boolean Boolean) {
	q.calls = append(q.calls, fmt.Sprintf("where %s %s %s %v", boolean, field, operator, value))
}

func (q *fakeQuery) Group(boolean Boolean, fn func(Filterer)) {
	q.calls = append(q.calls, "group "+string(boolean))
	fn(q)
	q.calls = append(q.calls, "end")
}

func (q *fakeQuery) OrderBy(column string, direction types.Direction) {
	q.calls = append(q.calls, "order "+column+" "+direction.String())
}

func (q *fakeQuery) Limit(n int)               { q.limit = n }
func (q *fakeQuery) Columns(columns ...string) { q.columns = columns }

func (q *fakeQuery) Get(context.Context) ([]*user, error) {
	return []*user{{ID: 1, Name: "bob"}}, nil
}

type pagedQuery struct {
	*fakeQuery
}

func (q pagedQuery) Paginate(_ context.Context, pageSize int, pageName string, page int) (*types.Pagination[user], error) {
	q.paged.size, q.paged.page, q.paged.name = pageSize, page, pageName
	p := types.NewDefaultPagination[user](page, pageSize)
	p.PageName = pageName
	p.Total = 60
	return p, nil
}

type fakeRepo struct {
	query Query[user]
	made  int
}

func (r *fakeRepo) NewQuery() Query[user] {
	r.made++
	return r.query
}

func TestRequest_ApplyBuildsInOrder(t *testing.T) {
	q := &fakeQuery{}
	repo := &fakeRepo{query: q}
	req := NewRequest[user](0).
		Where("tenant_id", 7).
		Where("role", []string{"admin", "owner"}).
		Rules(map[string]any{"q": "name:like|email:like", "status": "="}).
		Params(ParamsOf("status", "1", "q", "bob", "ignored", "x")).
		Filter(func(q Query[user]) Query[user] {
			q.Where("deleted_at", OpNull, nil, And)
			return nil
		}).
		OrderBy("id", "DESC").
		Columns("id", "name")

	rows, err := req.Apply(context.Background(), repo)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, DefaultSize, q.limit)
	assert.Equal(t, []string{"id", "name"}, q.columns)
	assert.Equal(t, []string{
		"where and tenant_id = 7",
		"where and role in [admin owner]",
		"group and",
		"where and status = 1",
		"end",
		"group and",
		"where and name like %bob%",
		"where or email like %bob%",
		"end",
		"where and deleted_at null <nil>",
		"order id desc",
	}, q.calls)
}

func TestRequest_AppliesOnce(t *testing.T) {
	repo := &fakeRepo{query: &fakeQuery{}}
	req := NewRequest[user](10)
	_, err := req.Apply(context.Background(), repo)
	require.NoError(t, err)
	_, err = req.Apply(context.Background(), repo)
	assert.ErrorIs(t, err, ErrAlreadyApplied)
	assert.Equal(t, 1, repo.made)
}

func TestRequest_RejectsMissingRepository(t *testing.T) {
	_, err := NewRequest[user](0).Apply(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var nilQuery *fakeQuery
	_, err = NewRequest[user](0).Apply(context.Background(), &fakeRepo{query: nilQuery})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRequest_FromSource(t *testing.T) {
	src := FormSource(url.Values{
		"search[q]":      {"bob"},
		"search[status]": {""},
		"sort":           {"-created_at,name,age:asc"},
	})
	req := NewRequest[user](0).
		Rules(map[string]any{"q": "name|email", "status": "="}).
		Request(src, DefaultRequestParamName, DefaultSortParamName)

	groups := req.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "q", groups[0].Key)
	assert.Equal(t, []Sort{
		{Column: "created_at", Direction: types.Desc},
		{Column: "name", Direction: types.Asc},
		{Column: "age", Direction: types.Asc},
	}, req.Orders())
}

func TestRequest_ScalarPayloadAndWholeSource(t *testing.T) {
	src := MapSource(map[string]any{"q": "bob", "status": "2"})
	req := NewRequest[user](0).Rules(map[string]any{"q": "name:like"}).Request(src, "q", "")
	groups := req.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "%bob%", groups[0].Predicates[0].Value)

	req = NewRequest[user](0).Rules([]string{"status"}).Request(src, "", "")
	groups = req.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "2", groups[0].Predicates[0].Value)
}

func TestRequest_SortNormalization(t *testing.T) {
	req := NewRequest[user](0).
		Sort(map[string]string{"b": "ASC", "a": "sideways"}).
		SortBy(map[string]any{"c": "asc"}).
		SortBy([]any{"d:desc", ""}).
		OrderBy(" ", "asc")
	assert.Equal(t, []Sort{
		{Column: "a", Direction: types.Desc},
		{Column: "b", Direction: types.Asc},
		{Column: "c", Direction: types.Asc},
		{Column: "d", Direction: types.Desc},
	}, req.Orders())
}

func TestRequest_ApplyPage(t *testing.T) {
	base := &fakeQuery{}
	repo := &fakeRepo{query: pagedQuery{base}}
	src := FormSource(url.Values{"search[q]": {"bob"}, "sort": {"-id"}})
	req := NewRequest[user](DefaultPageSize).
		Rules(map[string]any{"q": "name:like"}).
		Request(src, DefaultRequestParamName, DefaultSortParamName).
		PageName("p").
		Page(0)

	page, err := req.ApplyPage(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 25, base.paged.size)
	assert.Equal(t, 1, base.paged.page)
	assert.Equal(t, "p", base.paged.name)
	assert.Equal(t, 3, page.LastPage())
	assert.Equal(t, url.Values{"search[q]": {"bob"}, "sort": {"-id"}}, page.Query())
	assert.Equal(t, "/users?p=2&search%5Bq%5D=bob&sort=-id", page.URL("/users", 2))
}

func TestRequest_ApplyPageNeedsPaginator(t *testing.T) {
	req := NewRequest[user](0)
	_, err := req.ApplyPage(context.Background(), &fakeRepo{query: &fakeQuery{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = req.ApplyPage(context.Background(), &fakeRepo{query: pagedQuery{&fakeQuery{}}})
	assert.NoError(t, err)
}
