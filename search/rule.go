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
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// RuleKind tags the shape a rule was declared with.
type RuleKind int

const (
	// FieldOnly is a positional entry: the value names a field compared
	// with equality.
	FieldOnly RuleKind = iota
	// OperatorOnly applies one operator to the parameter's own column.
	OperatorOnly
	// Compound fans one parameter out to several (column, operator) pairs.
	Compound
)

func (k RuleKind) String() string {
	switch k {
	case FieldOnly:
		return "field"
	case OperatorOnly:
		return "operator"
	case Compound:
		return "compound"
	default:
		return "unknown"
	}
}

// Condition is one (column, operator) instruction of a rule. Type is the
// optional value hint taken from a trailing ":type" on the operator, and
// Boolean is the combinator joining it to the previous condition.
type Condition struct {
	Field    string
	Operator string
	Type     string
	Boolean  Boolean
}

// Rule is the parsed form of a rule spec.
type Rule struct {
	Kind       RuleKind
	Operator   string
	Type       string
	Conditions []Condition
}

// conditions returns the condition list applied for the parameter key.
// Single-operator rules target the key itself.
func (r Rule) conditions(key string) []Condition {
	if r.Kind == Compound {
		return r.Conditions
	}
	op := r.Operator
	if op == "" {
		op = OpEq
	}
	return []Condition{{Field: key, Operator: op, Type: r.Type, Boolean: And}}
}

// RuleTable maps a query-parameter name to its rule.
type RuleTable map[string]Rule

// Merge returns a new table holding t overridden by other, key by key.
func (t RuleTable) Merge(other RuleTable) RuleTable {
	out := make(RuleTable, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Keys returns the rule names in sorted order.
func (t RuleTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var delimiters = map[byte]Boolean{'|': Or, ',': And}

// ParseRules normalizes a raw rule table. It accepts string-keyed maps
// (as decoded from YAML or JSON), positional []string or []any lists and
// an existing RuleTable. Malformed entries fall back to equality; parsing
// never fails.
//
//	{"status": "="}                            status = ?
//	{"0": "status"} or []string{"status"}      status = ?
//	{"created_at": "between:date"}             created_at BETWEEN ? AND ?, dates normalized
//	{"q": "name:like|email:like"}              (name LIKE ? OR email LIKE ?)
//	{"q": []any{[]any{"name", "like"}, "or", []any{"email", "like"}}}
func ParseRules(raw any) RuleTable {
	t := RuleTable{}
	switch v := raw.(type) {
	case nil:
	case RuleTable:
		for k, r := range v {
			t[k] = r
		}
	case map[string]Rule:
		for k, r := range v {
			t[k] = r
		}
	case map[string]string:
		for k, s := range v {
			t.add(k, s)
		}
	case map[string]any:
		for k, s := range v {
			t.add(k, s)
		}
	case map[any]any:
		// YAML mappings with non-string keys such as "0: status"
		for k, s := range v {
			t.add(fmt.Sprint(k), s)
		}
	case []string:
		for _, field := range v {
			t.addField(field)
		}
	case []any:
		for _, item := range v {
			switch e := item.(type) {
			case string:
				t.addField(e)
			default:
				for k, r := range ParseRules(e) {
					t[k] = r
				}
			}
		}
	default:
		getLogger().WithField("type", fmt.Sprintf("%T", raw)).Debug("search: ignoring rules of unsupported type")
	}
	return t
}

func (t RuleTable) addField(field string) {
	field = strings.TrimSpace(field)
	if field == "" {
		return
	}
	t[field] = Rule{Kind: FieldOnly, Operator: OpEq}
}

func (t RuleTable) add(key string, value any) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if _, err := strconv.Atoi(key); err == nil {
		if field, ok := value.(string); ok {
			t.addField(field)
		}
		return
	}
	switch v := value.(type) {
	case Rule:
		t[key] = v
	case string:
		t[key] = parseRuleString(v)
	case []string:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		t[key] = parseRuleList(items)
	case [][]string:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		t[key] = parseRuleList(items)
	case []any:
		t[key] = parseRuleList(v)
	default:
		getLogger().WithFields(logrus.Fields{"rule": key, "type": fmt.Sprintf("%T", value)}).
			Debug("search: malformed rule, using equality")
		t[key] = equality()
	}
}

func equality() Rule { return Rule{Kind: OperatorOnly, Operator: OpEq} }

func parseRuleString(s string) Rule {
	s = strings.TrimSpace(s)
	if s == "" {
		return equality()
	}
	if strings.ContainsAny(s, "|,") {
		return compound(splitCompound(s))
	}
	op, hint, _ := strings.Cut(s, ":")
	return Rule{Kind: OperatorOnly, Operator: operator(op), Type: typeHint(hint)}
}

// splitCompound walks s left to right, cutting at '|' (or) and ',' (and).
// Empty segments are dropped; the delimiter nearest to the next pair wins.
func splitCompound(s string) []Condition {
	var conds []Condition
	pending := And
	start := 0
	flush := func(seg string) {
		if c, ok := parsePair(seg); ok {
			c.Boolean = pending
			conds = append(conds, c)
		}
	}
	for i := 0; i < len(s); i++ {
		if b, ok := delimiters[s[i]]; ok {
			flush(s[start:i])
			pending = b
			start = i + 1
		}
	}
	flush(s[start:])
	return conds
}

// parsePair reads "field[:operator[:type]]".
func parsePair(seg string) (Condition, bool) {
	parts := strings.SplitN(strings.TrimSpace(seg), ":", 3)
	field := strings.TrimSpace(parts[0])
	if field == "" {
		return Condition{}, false
	}
	c := Condition{Field: field, Operator: OpEq}
	if len(parts) > 1 {
		c.Operator = operator(parts[1])
	}
	if len(parts) > 2 {
		c.Type = typeHint(parts[2])
	}
	return c, true
}

func parseRuleList(items []any) Rule {
	var conds []Condition
	pending := And
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if b := strings.ToLower(strings.TrimSpace(v)); b == string(And) || b == string(Or) {
				pending = Boolean(b)
				continue
			}
			if c, ok := parsePair(v); ok {
				c.Boolean = pending
				conds = append(conds, c)
				pending = And
			}
		case []string:
			if c, ok := pairFromSlice(v); ok {
				c.Boolean = pending
				conds = append(conds, c)
				pending = And
			}
		case []any:
			strs := make([]string, 0, len(v))
			for _, e := range v {
				strs = append(strs, fmt.Sprint(e))
			}
			if c, ok := pairFromSlice(strs); ok {
				c.Boolean = pending
				conds = append(conds, c)
				pending = And
			}
		}
	}
	return compound(conds)
}

// pairFromSlice reads [field] or [field, "operator[:type]"].
func pairFromSlice(v []string) (Condition, bool) {
	if len(v) == 0 {
		return Condition{}, false
	}
	field := strings.TrimSpace(v[0])
	if field == "" {
		return Condition{}, false
	}
	c := Condition{Field: field, Operator: OpEq}
	if len(v) > 1 {
		op, hint, _ := strings.Cut(v[1], ":")
		c.Operator = operator(op)
		c.Type = typeHint(hint)
	}
	return c, true
}

func compound(conds []Condition) Rule {
	if len(conds) == 0 {
		return equality()
	}
	conds[0].Boolean = And
	return Rule{Kind: Compound, Conditions: conds}
}

func operator(op string) string {
	n, ok := NormalizeOperator(op)
	if !ok {
		getLogger().WithField("operator", op).Debug("search: unknown operator, using equality")
	}
	return n
}

func typeHint(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
