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

import "strings"

// Boolean joins a condition to the one before it.
type Boolean string

const (
	And Boolean = "and"
	Or  Boolean = "or"
)

// ParseBoolean maps "or" (any case) to Or and everything else to And.
func ParseBoolean(s string) Boolean {
	if strings.EqualFold(strings.TrimSpace(s), string(Or)) {
		return Or
	}
	return And
}

const (
	OpEq         = "="
	OpNe         = "!="
	OpNeAlt      = "<>"
	OpGt         = ">"
	OpGte        = ">="
	OpLt         = "<"
	OpLte        = "<="
	OpLike       = "like"
	OpNotLike    = "not like"
	OpILike      = "ilike"
	OpNotILike   = "not ilike"
	OpBetween    = "between"
	OpNotBetween = "not between"
	OpIn         = "in"
	OpNotIn      = "not in"
	OpNull       = "null"
	OpNotNull    = "not null"
)

var operators = map[string]struct{}{
	OpEq: {}, OpNe: {}, OpNeAlt: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpLike: {}, OpNotLike: {}, OpILike: {}, OpNotILike: {},
	OpBetween: {}, OpNotBetween: {}, OpIn: {}, OpNotIn: {},
	OpNull: {}, OpNotNull: {},
}

// NormalizeOperator lower-cases op and collapses inner whitespace. The
// second result is false when op is not a known operator, in which case
// the equality operator is returned.
func NormalizeOperator(op string) (string, bool) {
	n := strings.Join(strings.Fields(strings.ToLower(op)), " ")
	if _, ok := operators[n]; ok {
		return n, true
	}
	return OpEq, false
}

func isLike(op string) bool { return strings.Contains(op, OpLike) }

func isBetween(op string) bool { return strings.Contains(op, OpBetween) }

func isIn(op string) bool { return op == OpIn || op == OpNotIn }
