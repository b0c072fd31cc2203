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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		op   string
		raw  any
		hint string
		want any
	}{
		{"like wraps", "like", "bob", "", "%bob%"},
		{"not like wraps", "NOT LIKE", "bob", "", "%bob%"},
		{"ilike wraps numbers", "ilike", 42, "", "%42%"},
		{"between splits", "between", "1 - 9", "", []any{"1", "9"}},
		{"between splits once", "between", "a - b - c", "", []any{"a", "b - c"}},
		{"between without separator", "between", "10", "", []any{"10"}},
		{"between truncates slices", "between", []int{1, 2, 3}, "", []any{1, 2}},
		{
			"between normalizes dates", "between", "2020-01-01 - 2020-01-31", "date",
			[]any{"2020-01-01 00:00:00", "2020-01-31 00:00:00"},
		},
		{
			"not between normalizes datetimes", "not between", "2020-01-01 10:30:00 - 2020-01-02T11:00:05", "datetime",
			[]any{"2020-01-01 10:30:00", "2020-01-02 11:00:05"},
		},
		{
			"unparseable dates pass through", "between", "yesterday - 2020-01-31", "date",
			[]any{"yesterday", "2020-01-31 00:00:00"},
		},
		{"in splits strings", "in", "a, b,,c", "", []any{"a", "b", "c"}},
		{"in wraps scalars", "in", 7, "", []any{7}},
		{"not in copies slices", "not in", []string{"x", "y"}, "", []any{"x", "y"}},
		{"equality passes through", "=", "1", "", "1"},
		{"comparison ignores hint", ">=", "2020-01-01", "date", "2020-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.op, tt.raw, tt.hint))
		})
	}
}

func TestFormatValue_DoesNotAliasInput(t *testing.T) {
	in := []any{"a", "b"}
	out := FormatValue("in", in, "").([]any)
	out[0] = "z"
	assert.Equal(t, "a", in[0])
}

func TestNormalizeOperator(t *testing.T) {
	op, ok := NormalizeOperator("  Not   Between ")
	assert.True(t, ok)
	assert.Equal(t, OpNotBetween, op)

	op, ok = NormalizeOperator("~=")
	assert.False(t, ok)
	assert.Equal(t, OpEq, op)
}
