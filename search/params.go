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
	"net/url"
	"sort"
	"strings"

	"github.com/tomoncle/quarry/types"
)

// Params is an insertion-ordered set of query parameters. Compilation
// visits parameters in that order, which keeps the generated SQL stable.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{values: map[string]any{}}
}

// ParamsOf builds a parameter set from alternating name/value arguments.
// Arguments whose name is not a string are ignored.
func ParamsOf(kv ...any) *Params {
	p := NewParams()
	for i := 0; i+1 < len(kv); i += 2 {
		if name, ok := kv[i].(string); ok {
			p.Set(name, kv[i+1])
		}
	}
	return p
}

// ParamsFromMap copies m in sorted key order, maps carry no order of their own.
func ParamsFromMap(m map[string]any) *Params {
	p := NewParams()
	p.MergeMap(m)
	return p
}

// ParamsFromValues copies url.Values in sorted key order. Single values
// become strings, repeated values stay []string.
func ParamsFromValues(values url.Values) *Params {
	p := NewParams()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		vs := values[k]
		switch len(vs) {
		case 0:
		case 1:
			p.Set(k, vs[0])
		default:
			p.Set(k, append([]string(nil), vs...))
		}
	}
	return p
}

// Set stores value under name. A name already present keeps its position.
func (p *Params) Set(name string, value any) *Params {
	if p.values == nil {
		p.values = map[string]any{}
	}
	if _, ok := p.values[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.values[name] = value
	return p
}

func (p *Params) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Keys returns the parameter names in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Merge copies other into p, later values replacing earlier ones.
func (p *Params) Merge(other *Params) *Params {
	if other == nil {
		return p
	}
	for _, k := range other.keys {
		p.Set(k, other.values[k])
	}
	return p
}

// MergeMap copies m into p in sorted key order.
func (p *Params) MergeMap(m map[string]any) *Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.Set(k, m[k])
	}
	return p
}

// Map returns the parameters as a plain map.
func (p *Params) Map() map[string]any {
	out := make(map[string]any, p.Len())
	for _, k := range p.Keys() {
		out[k] = p.values[k]
	}
	return out
}

// isBlank reports whether v must not produce a predicate: nil, strings
// that are empty after trimming, and collections holding only blanks.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		for _, s := range t {
			if strings.TrimSpace(s) != "" {
				return false
			}
		}
		return true
	case []any:
		for _, e := range t {
			if !isBlank(e) {
				return false
			}
		}
		return true
	case map[string]any:
		return len(t) == 0
	case types.JsonObject:
		return len(t) == 0
	default:
		return false
	}
}
