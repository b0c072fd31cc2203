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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestExplain_InlineRules(t *testing.T) {
	out, err := execute(t, "explain",
		"--table", "users",
		"--rule", "q=name:like|email:like",
		"--rule", "status==",
		"-p", "q=bob",
		"-p", "status=1",
		"--sort=-id",
		"--size", "10",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Predicates")
	assert.Contains(t, out, "%bob%")
	assert.Contains(t, out, `SELECT * FROM "users" WHERE (("name" LIKE '%bob%') OR ("email" LIKE '%bob%')) AND (("status" = '1'))`)
	assert.Contains(t, out, `ORDER BY "id" DESC LIMIT 10`)
}

func TestExplain_RulesFileByModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  joined: \"between:date\"\n"), 0o600))

	out, err := execute(t, "explain",
		"--rules", path,
		"--model", "users",
		"--dialect", "pg",
		"-p", "joined=2020-01-01 - 2020-01-31",
		"--size", "5",
		"--page", "3",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `FROM "users"`)
	assert.Contains(t, out, `"joined" BETWEEN '2020-01-01 00:00:00' AND '2020-01-31 00:00:00'`)
	assert.Contains(t, out, "LIMIT 5 OFFSET 10")
}

func TestExplain_NoPredicates(t *testing.T) {
	out, err := execute(t, "explain", "-p", "unknown=1")
	require.NoError(t, err)
	assert.Contains(t, out, "Predicates none")
	assert.Contains(t, out, `SELECT * FROM "t"`)
}

func TestExplain_Errors(t *testing.T) {
	_, err := execute(t, "explain", "--dialect", "oracle")
	assert.Error(t, err)

	_, err = execute(t, "explain", "-p", "novalue")
	assert.Error(t, err)

	_, err = execute(t, "explain", "--rule", "=like")
	assert.Error(t, err)

	_, err = execute(t, "explain", "--rules", filepath.Join(t.TempDir(), "missing.yaml"), "--model", "users")
	assert.Error(t, err)
}

func TestParsePairs_RepeatedKeys(t *testing.T) {
	params, err := parsePairs([]string{"id=1", "name=bob", "id=2", "id=3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, params.Keys())
	v, _ := params.Get("id")
	assert.Equal(t, []any{"1", "2", "3"}, v)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "quarry dev")
}
