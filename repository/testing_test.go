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
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name"`
	Email  string `bun:"email"`
	Status int    `bun:"status"`
	Joined string `bun:"joined"`
}

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seededRepo returns a repository over four users:
// alice(1) bob(1) carol(0) bobby(2), ids 1 to 4.
func seededRepo(t *testing.T) (Repository[User], *bun.DB) {
	t.Helper()
	db := openTestDB(t)
	ctx := context.Background()
	_, err := db.NewCreateTable().Model((*User)(nil)).Exec(ctx)
	require.NoError(t, err)

	repo := NewRepository[User](db)
	require.NoError(t, repo.Create(ctx,
		&User{Name: "alice", Email: "alice@example.com", Status: 1, Joined: "2020-01-05 00:00:00"},
		&User{Name: "bob", Email: "bob@example.com", Status: 1, Joined: "2020-02-10 00:00:00"},
		&User{Name: "carol", Email: "carol@corp.io", Status: 0, Joined: "2020-03-15 00:00:00"},
		&User{Name: "bobby", Email: "bobby@corp.io", Status: 2, Joined: "2021-01-01 00:00:00"},
	))
	return repo, db
}

func names(users []*User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name
	}
	return out
}
