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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/tomoncle/quarry/types"
)

// Source is where a search reads its query and sort payloads from.
// Names may address nested values with dots ("search.name").
type Source interface {
	Get(name string) (any, bool)
	Has(name string) bool
	All() map[string]any
}

type objectSource struct {
	obj types.JsonObject
}

func (s objectSource) Get(name string) (any, bool) { return s.obj.Lookup(name) }

func (s objectSource) Has(name string) bool {
	_, ok := s.obj.Lookup(name)
	return ok
}

func (s objectSource) All() map[string]any { return map[string]any(s.obj.Clone()) }

// MapSource serves values from an already decoded document.
func MapSource(m map[string]any) Source {
	return objectSource{obj: types.JsonObject(m).Clone()}
}

// FormSource reads url.Values, expanding bracket notation:
// search[name]=bob becomes {"search": {"name": "bob"}} and
// tags[]=a&tags[]=b becomes {"tags": ["a", "b"]}.
func FormSource(values url.Values) Source {
	obj := types.JsonObject{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range values[k] {
			insertForm(obj, splitFormKey(k), v)
		}
	}
	return objectSource{obj: obj}
}

// HTTPSource reads the query string and form body of r.
func HTTPSource(r *http.Request) (Source, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse request form: %w", err)
	}
	return FormSource(r.Form), nil
}

// JSONSource decodes a JSON object body.
func JSONSource(body io.Reader) (Source, error) {
	obj := types.JsonObject{}
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode json source: %w", err)
	}
	return objectSource{obj: obj}, nil
}

// splitFormKey turns "a[b][]" into ["a", "b", ""].
func splitFormKey(key string) []string {
	head, rest, found := strings.Cut(key, "[")
	if !found || !strings.HasSuffix(rest, "]") {
		return []string{key}
	}
	parts := []string{head}
	for _, p := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
		parts = append(parts, p)
	}
	return parts
}

func insertForm(obj types.JsonObject, path []string, value string) {
	key := path[0]
	if len(path) == 1 {
		switch cur := obj[key].(type) {
		case nil:
			obj[key] = value
		case string:
			obj[key] = []any{cur, value}
		case []any:
			obj[key] = append(cur, value)
		}
		return
	}
	if path[1] == "" {
		list, _ := obj[key].([]any)
		obj[key] = append(list, value)
		return
	}
	child, ok := obj[key].(types.JsonObject)
	if !ok {
		child = types.JsonObject{}
		obj[key] = child
	}
	insertForm(child, path[1:], value)
}
