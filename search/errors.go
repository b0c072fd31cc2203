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

import "errors"

var (
	// ErrInvalidArgument is returned by Apply when the repository cannot
	// serve the search: it is nil, yields no query, or lacks pagination.
	ErrInvalidArgument = errors.New("search: invalid argument")
	// ErrAlreadyApplied is returned when a request is applied twice.
	ErrAlreadyApplied = errors.New("search: request already applied")
)
