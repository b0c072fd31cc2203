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

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		want SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("find: %w", sql.ErrNoRows), true, NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{"mysql missing table", &mysql.MySQLError{Number: 1146}, true, NoTableErr},
		{"mysql other", &mysql.MySQLError{Number: 9999}, true, UnknownErr},
		{"pq not null", &pq.Error{Code: "23502"}, true, NotNullViolationErr},
		{"pq unknown state", &pq.Error{Code: "XX000"}, true, UnknownErr},
		{"pgx foreign key", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), true, ForeignKeyViolationErr},
		{"pgx missing table", &pgconn.PgError{Code: "42P01"}, true, NoTableErr},
		{"mssql duplicate", mssql.Error{Number: 2627}, true, DuplicateKeyErr},
		{"mssql truncation", fmt.Errorf("update: %w", mssql.Error{Number: 8152}), true, DataTruncatedErr},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.email"), true, DuplicateKeyErr},
		{"sqlite missing table", errors.New("SQL logic error: no such table: users (1)"), true, NoTableErr},
		{"sqlite missing column", errors.New("no such column: nope"), true, NoColumnErr},
		{"relation exists", errors.New(`relation "users" already exists`), true, ExistTableErr},
		{"plain", errors.New("connection refused"), false, UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, got := IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLError_String(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(99).String())
}
