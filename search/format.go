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
	"time"

	"github.com/araddon/dateparse"
)

const (
	// RangeSeparator splits the two bounds of a between value.
	RangeSeparator = " - "
	// DateTimeLayout is the canonical form of date-hinted bounds.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// FormatValue turns a raw parameter value into the value bound for op.
//
// like operators wrap the value in '%' on both sides. between operators
// split a string on " - " into at most two bounds (a slice passes through)
// and, for the "date" and "datetime" hints, rewrite each bound as
// "2006-01-02 15:04:05"; bounds that do not parse are kept as given. A
// string for in/not in is split on commas. Other operators return raw.
func FormatValue(op string, raw any, hint string) any {
	op, _ = NormalizeOperator(op)
	switch {
	case isLike(op):
		return "%" + toString(raw) + "%"
	case isBetween(op):
		bounds := splitRange(raw)
		switch hint {
		case "date", "datetime":
			for i := range bounds {
				bounds[i] = normalizeDate(bounds[i])
			}
		}
		return bounds
	case isIn(op):
		if s, ok := raw.(string); ok {
			items := strings.Split(s, ",")
			out := make([]any, 0, len(items))
			for _, item := range items {
				if item = strings.TrimSpace(item); item != "" {
					out = append(out, item)
				}
			}
			return out
		}
		return toSlice(raw)
	default:
		return raw
	}
}

func splitRange(raw any) []any {
	if s, ok := raw.(string); ok {
		parts := strings.SplitN(s, RangeSeparator, 2)
		out := make([]any, len(parts))
		for i := range parts {
			out[i] = parts[i]
		}
		return out
	}
	bounds := toSlice(raw)
	if len(bounds) > 2 {
		bounds = bounds[:2]
	}
	return bounds
}

func normalizeDate(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.Local)
	if err != nil {
		return v
	}
	return t.Format(DateTimeLayout)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, " ")
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// toSlice copies slices into a fresh []any and wraps scalars.
func toSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return append([]any(nil), t...)
	case []string:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	case []int:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	case []int64:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out
	case nil:
		return nil
	default:
		return []any{v}
	}
}
