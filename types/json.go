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

package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// JsonObject is a nested string-keyed document. It maps JSON columns and
// also carries decoded request payloads (JSON bodies, bracketed forms).
type JsonObject map[string]interface{}

// Value implements driver.Valuer for JsonObject.
func (j JsonObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for JsonObject.
func (j *JsonObject) Scan(value interface{}) error {
	if value == nil {
		*j = make(JsonObject)
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("json object: unsupported source type")
	}
}

// Lookup resolves a key, descending into nested objects on dots:
// "search.name" reads j["search"]["name"]. An exact key match wins over
// the dotted path.
func (j JsonObject) Lookup(key string) (interface{}, bool) {
	if j == nil {
		return nil, false
	}
	if v, ok := j[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	switch child := j[head].(type) {
	case JsonObject:
		return child.Lookup(rest)
	case map[string]interface{}:
		return JsonObject(child).Lookup(rest)
	default:
		return nil, false
	}
}

// Clone returns a deep copy of nested objects and slices.
func (j JsonObject) Clone() JsonObject {
	if j == nil {
		return nil
	}
	out := make(JsonObject, len(j))
	for k, v := range j {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case JsonObject:
		return t.Clone()
	case map[string]interface{}:
		return map[string]interface{}(JsonObject(t).Clone())
	case []interface{}:
		cp := make([]interface{}, len(t))
		for i := range t {
			cp[i] = cloneValue(t[i])
		}
		return cp
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
