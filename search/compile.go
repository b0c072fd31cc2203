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
	"fmt"
	"strings"
)

// Predicate is a single compiled condition.
type Predicate struct {
	Field    string
	Operator string
	Value    any
	Boolean  Boolean
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %s %v", p.Boolean, p.Field, p.Operator, p.Value)
}

// Group holds the predicates compiled from one query parameter. A group
// is emitted as one parenthesized expression and groups are always
// joined with AND, so an OR inside one rule never leaks into the others.
type Group struct {
	Key        string
	Predicates []Predicate
}

func (g Group) String() string {
	parts := make([]string, len(g.Predicates))
	for i, p := range g.Predicates {
		if i == 0 {
			parts[i] = fmt.Sprintf("%s %s %v", p.Field, p.Operator, p.Value)
			continue
		}
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Compile matches params against rules and returns one group per
// parameter that has a rule and a non-blank value, in parameter order.
// The first predicate of a group is joined with and; every later one
// uses the combinator declared before it. between values always carry
// two bounds, the upper one nil when the input had no separator.
func Compile(rules RuleTable, params *Params) []Group {
	if len(rules) == 0 || params.Len() == 0 {
		return nil
	}
	groups := make([]Group, 0, params.Len())
	for _, key := range params.Keys() {
		raw, _ := params.Get(key)
		if isBlank(raw) {
			continue
		}
		rule, ok := rules[key]
		if !ok {
			continue
		}
		conds := rule.conditions(key)
		if len(conds) == 0 {
			continue
		}
		g := Group{Key: key, Predicates: make([]Predicate, 0, len(conds))}
		for i, c := range conds {
			boolean := c.Boolean
			if i == 0 || boolean == "" {
				boolean = And
			}
			g.Predicates = append(g.Predicates, Predicate{
				Field:    c.Field,
				Operator: c.Operator,
				Value:    conditionValue(c, raw),
				Boolean:  boolean,
			})
		}
		groups = append(groups, g)
	}
	return groups
}

func conditionValue(c Condition, raw any) any {
	v := FormatValue(c.Operator, raw, c.Type)
	if !isBetween(c.Operator) {
		return v
	}
	bounds, _ := v.([]any)
	for len(bounds) < 2 {
		bounds = append(bounds, nil)
	}
	return bounds
}

// Emit writes groups to f, each inside its own AND-joined group.
func Emit(f Filterer, groups []Group) {
	for _, g := range groups {
		preds := g.Predicates
		f.Group(And, func(inner Filterer) {
			for _, p := range preds {
				inner.Where(p.Field, p.Operator, p.Value, p.Boolean)
			}
		})
	}
}
