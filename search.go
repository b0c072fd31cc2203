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

package quarry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/types"
)

func (s *baseServiceImpl[T]) NewSearch() *search.Request[T] {
	return search.NewRequest[T](search.DefaultSize).
		Rules(s.rules).
		PageName(s.options.PageName)
}

func (s *baseServiceImpl[T]) Search(ctx context.Context, req *search.Request[T]) ([]*T, error) {
	return s.baseRepo().Search(ctx, req)
}

func (s *baseServiceImpl[T]) SearchPage(ctx context.Context, req *search.Request[T]) (*types.Pagination[T], error) {
	return s.baseRepo().SearchPage(ctx, req)
}

func (s *baseServiceImpl[T]) Paginate(ctx context.Context, src search.Source, wheres map[string]any, orders map[string]string) (*types.Pagination[T], error) {
	opts := s.options
	req := search.NewRequest[T](opts.PageSize).
		Rules(s.rules).
		Wheres(wheres).
		Sort(orders).
		PageName(opts.PageName).
		Request(src, opts.RequestParamName, opts.SortParamName)
	if src != nil {
		if v, ok := src.Get(opts.PageName); ok {
			req.Page(pageNumber(v))
		}
	}
	return req.ApplyPage(ctx, s.baseRepo())
}

// pageNumber reads a page index from a request value; anything that is
// not a positive integer selects the first page.
func pageNumber(v any) int {
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}
	n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
