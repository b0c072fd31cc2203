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

import "github.com/tomoncle/quarry/types"

// Options holds the per-model defaults of request driven pagination.
type Options struct {
	PageSize         int            `mapstructure:"page_size" yaml:"page_size" json:"page_size"`
	RequestParamName string         `mapstructure:"request_param_name" yaml:"request_param_name" json:"request_param_name"`
	SortParamName    string         `mapstructure:"sort_param_name" yaml:"sort_param_name" json:"sort_param_name"`
	PageName         string         `mapstructure:"page_name" yaml:"page_name" json:"page_name"`
	Rules            map[string]any `mapstructure:"rules" yaml:"rules" json:"rules"`
}

// DefaultOptions returns page size 25, request parameter "search", sort
// parameter "sort" and page name "page".
func DefaultOptions() Options {
	return Options{
		PageSize:         DefaultPageSize,
		RequestParamName: DefaultRequestParamName,
		SortParamName:    DefaultSortParamName,
		PageName:         types.DefaultPageName,
	}
}

// Merge overlays the non-zero fields of other onto o. Rules are merged by
// key.
func (o Options) Merge(other Options) Options {
	if other.PageSize > 0 {
		o.PageSize = other.PageSize
	}
	if other.RequestParamName != "" {
		o.RequestParamName = other.RequestParamName
	}
	if other.SortParamName != "" {
		o.SortParamName = other.SortParamName
	}
	if other.PageName != "" {
		o.PageName = other.PageName
	}
	if len(other.Rules) > 0 {
		rules := make(map[string]any, len(o.Rules)+len(other.Rules))
		for k, v := range o.Rules {
			rules[k] = v
		}
		for k, v := range other.Rules {
			rules[k] = v
		}
		o.Rules = rules
	}
	return o
}
