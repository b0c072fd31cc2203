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

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// MetricsHook records query latency and failures as Prometheus metrics:
//
//	quarry_db_query_duration_seconds{operation}
//	quarry_db_query_errors_total{operation,kind}
type MetricsHook struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

var _ bun.QueryHook = (*MetricsHook)(nil)

// NewMetricsHook registers the hook collectors with reg. Collectors already
// registered by an earlier hook are reused.
func NewMetricsHook(reg prometheus.Registerer) (*MetricsHook, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quarry",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Duration of SQL statements by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quarry",
		Subsystem: "db",
		Name:      "query_errors_total",
		Help:      "Failed SQL statements by operation and error kind.",
	}, []string{"operation", "kind"})

	var err error
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if errs, err = register(reg, errs); err != nil {
		return nil, err
	}
	return &MetricsHook{duration: duration, errors: errs}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	op := event.Operation()
	h.duration.WithLabelValues(op).Observe(time.Since(event.StartTime).Seconds())
	if event.Err == nil || errors.Is(event.Err, sql.ErrNoRows) {
		return
	}
	kind := "unknown"
	if ok, sqlErr := IsSqlError(event.Err); ok {
		kind = sqlErr.String()
	}
	h.errors.WithLabelValues(op, kind).Inc()
}
