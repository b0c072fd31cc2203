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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/quarry/types"
)

func TestParams_KeepsInsertionOrder(t *testing.T) {
	p := ParamsOf("z", 1, "a", 2, 3, "ignored", "m", 4)
	p.Set("z", 5)
	assert.Equal(t, []string{"z", "a", "m"}, p.Keys())
	v, ok := p.Get("z")
	assert.True(t, ok)
	assert.Equal(t, 5, v)
	assert.Equal(t, map[string]any{"z": 5, "a": 2, "m": 4}, p.Map())
}

func TestParams_FromMapAndValues(t *testing.T) {
	p := ParamsFromMap(map[string]any{"b": 1, "a": 2})
	assert.Equal(t, []string{"a", "b"}, p.Keys())

	v := url.Values{"tags": {"x", "y"}, "name": {"bob"}, "empty": {}}
	p = ParamsFromValues(v)
	assert.Equal(t, []string{"name", "tags"}, p.Keys())
	tags, _ := p.Get("tags")
	assert.Equal(t, []string{"x", "y"}, tags)
	name, _ := p.Get("name")
	assert.Equal(t, "bob", name)
}

func TestParams_NilSafe(t *testing.T) {
	var p *Params
	assert.Zero(t, p.Len())
	assert.Nil(t, p.Keys())
	_, ok := p.Get("x")
	assert.False(t, ok)
}

func TestIsBlank(t *testing.T) {
	blank := []any{nil, "", "   ", []string{"", " "}, []any{nil, ""}, map[string]any{}, types.JsonObject{}}
	for _, v := range blank {
		assert.True(t, isBlank(v), "%#v", v)
	}
	filled := []any{"0", 0, false, []string{"", "x"}, []any{0}, map[string]any{"a": 1}}
	for _, v := range filled {
		assert.False(t, isBlank(v), "%#v", v)
	}
}
