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
	"database/sql"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/search"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Title  string `bun:"title"`
	Author string `bun:"author"`
	State  string `bun:"state"`
}

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*Article)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, svc Service[Article]) {
	t.Helper()
	require.NoError(t, svc.Create(context.Background(),
		&Article{Title: "Go generics", Author: "ann", State: "published"},
		&Article{Title: "Bun queries", Author: "ben", State: "draft"},
		&Article{Title: "Going further", Author: "cat", State: "published"},
		&Article{Title: "Rust notes", Author: "gopher", State: "published"},
		&Article{Title: "SQL tips", Author: "dan", State: "published"},
	))
}

func titles(items []*Article) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.Title
	}
	return out
}

func TestService_CreateHooks(t *testing.T) {
	ctx := context.Background()
	var created []int64
	svc := NewService[Article](
		WithDB[Article](openTestDB(t)),
		WithHooks(Hooks[Article]{
			BeforeCreate: func(_ context.Context, a *Article) error {
				if a.State == "" {
					a.State = "draft"
				}
				return nil
			},
			PostCreate: func(_ context.Context, a *Article) { created = append(created, a.ID) },
		}),
	)

	a := &Article{Title: "Hello"}
	require.NoError(t, svc.Create(ctx, a))
	assert.Equal(t, []int64{1}, created)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", got.State)
}

func TestService_BeforeHookAborts(t *testing.T) {
	ctx := context.Background()
	veto := errors.New("title required")
	posted := false
	svc := NewService[Article](
		WithDB[Article](openTestDB(t)),
		WithHooks(Hooks[Article]{
			BeforeCreate: func(_ context.Context, a *Article) error {
				if a.Title == "" {
					return veto
				}
				return nil
			},
			PostCreate: func(context.Context, *Article) { posted = true },
		}),
	)

	err := svc.Create(ctx, &Article{Title: "ok"}, &Article{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, veto)
	assert.False(t, posted)

	n, err := svc.Count(ctx, "", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_SaveAndUpdateHooks(t *testing.T) {
	ctx := context.Background()
	var calls []string
	svc := NewService[Article](
		WithDB[Article](openTestDB(t)),
		WithHooks(Hooks[Article]{
			BeforeSave:   func(context.Context, *Article) error { calls = append(calls, "before save"); return nil },
			PostSave:     func(context.Context, *Article) { calls = append(calls, "post save") },
			BeforeUpdate: func(context.Context, *Article) error { calls = append(calls, "before update"); return nil },
			PostUpdate:   func(context.Context, *Article) { calls = append(calls, "post update") },
		}),
	)

	a := &Article{Title: "Draft", State: "draft"}
	require.NoError(t, svc.Save(ctx, a))
	require.NotZero(t, a.ID)

	a.State = "published"
	require.NoError(t, svc.Save(ctx, a))
	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "published", got.State)

	a.Title = "Final"
	require.NoError(t, svc.Update(ctx, a))

	assert.Equal(t, []string{
		"before save", "post save",
		"before save", "post save",
		"before update", "post update",
	}, calls)
}

func TestService_DeleteHooks(t *testing.T) {
	ctx := context.Background()
	var deleted []any
	svc := NewService[Article](
		WithDB[Article](openTestDB(t)),
		WithHooks(Hooks[Article]{
			BeforeDelete: func(_ context.Context, id any) error {
				if id == int64(1) {
					return errors.New("protected")
				}
				return nil
			},
			PostDelete: func(_ context.Context, id any) { deleted = append(deleted, id) },
		}),
	)
	seed(t, svc)

	err := svc.Delete(ctx, int64(1))
	assert.ErrorIs(t, err, ErrAborted)
	ok, err := svc.Exists(ctx, "id", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Delete(ctx, int64(2)))
	assert.Equal(t, []any{int64(2)}, deleted)
	ok, err = svc.Exists(ctx, "id", 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_TxHooks(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	created := 0
	svc := NewService[Article](
		WithDB[Article](db),
		WithHooks(Hooks[Article]{PostCreate: func(context.Context, *Article) { created++ }}),
	)

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return svc.CreateWithTx(ctx, &tx, &Article{Title: "a"}, &Article{Title: "b"})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(all))
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc := NewService[Article](
		WithDB[Article](openTestDB(t)),
		WithSearchRules[Article](map[string]any{"q": "title:like|author:like", "state": "="}),
	)
	seed(t, svc)

	req := svc.NewSearch().
		Param("q", "go").
		Param("state", "published").
		OrderBy("id", "asc")
	items, err := svc.Search(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go generics", "Going further", "Rust notes"}, titles(items))
}

func TestService_Paginate(t *testing.T) {
	ctx := context.Background()
	svc := NewService[Article](
		WithDB[Article](openTestDB(t)),
		WithSearchOptions[Article](search.Options{
			PageSize: 2,
			Rules:    map[string]any{"q": "title:like|author:like"},
		}),
	)
	seed(t, svc)

	src := search.FormSource(url.Values{
		"search[q]": {"go"},
		"page":      {"2"},
	})
	page, err := svc.Paginate(ctx, src,
		map[string]any{"state": "published"},
		map[string]string{"id": "desc"},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, []string{"Go generics"}, titles(page.Items))
	assert.Equal(t, "/articles?page=1&search%5Bq%5D=go", page.URL("/articles", 1))
}

func TestService_PaginateCustomNames(t *testing.T) {
	ctx := context.Background()
	svc := NewService[Article](
		WithDB[Article](openTestDB(t)),
		WithSearchRules[Article]([]string{"state"}),
		WithSearchOptions[Article](search.Options{RequestParamName: "f", SortParamName: "o", PageName: "p"}),
	)
	seed(t, svc)

	src := search.MapSource(map[string]any{
		"f": map[string]any{"state": "draft"},
		"o": "-id",
		"p": "x",
	})
	page, err := svc.Paginate(ctx, src, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, search.DefaultPageSize, page.PageSize)
	assert.Equal(t, []string{"Bun queries"}, titles(page.Items))
	assert.Equal(t, "p", page.PageName)
}

func TestService_GlobalDB(t *testing.T) {
	db := openTestDB(t)
	prev := database.GetDB()
	database.SetDB(db)
	t.Cleanup(func() { database.SetDB(prev) })

	svc := NewService[Article]()
	seed(t, svc)
	n, err := svc.Count(context.Background(), "state", "published")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestPageNumber(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{"3", 3},
		{" 2 ", 2},
		{[]any{"4"}, 4},
		{7, 7},
		{"0", 1},
		{"-2", 1},
		{"abc", 1},
		{nil, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pageNumber(tt.in), "%v", tt.in)
	}
}
