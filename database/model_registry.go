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
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/uptrace/bun"
)

// registeredModel is a Bun model pointer plus its creation rank. Lower
// ranks are created first so referenced tables exist before dependents.
type registeredModel struct {
	instance any
	priority int
	seq      int
}

type modelRegistry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*registeredModel
	seq    int
}

var models = &modelRegistry{byType: map[reflect.Type]*registeredModel{}}

func (r *modelRegistry) add(instance any, priority int) {
	t := reflect.TypeOf(instance)
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byType[t]; ok {
		m.priority = priority
		return
	}
	r.seq++
	r.byType[t] = &registeredModel{instance: instance, priority: priority, seq: r.seq}
}

// sorted orders by priority, then registration order.
func (r *modelRegistry) sorted() []registeredModel {
	r.mu.RLock()
	out := make([]registeredModel, 0, len(r.byType))
	for _, m := range r.byType {
		out = append(out, *m)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority < out[j].priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// RegisterModel records a model for Open: it is registered with every new
// connection and, with AutoCreate, gets its table created. instance is a
// struct pointer such as (*User)(nil). Registering a type again only
// updates its priority.
func RegisterModel(instance any, priority int) {
	if instance == nil {
		return
	}
	models.add(instance, priority)
}

// RegisteredModelInstances returns the registered model pointers by
// priority.
func RegisteredModelInstances() []any {
	sorted := models.sorted()
	out := make([]any, len(sorted))
	for i, m := range sorted {
		out[i] = m.instance
	}
	return out
}

// CreateTables creates the missing table of every registered model in
// priority order.
func CreateTables(ctx context.Context, db bun.IDB) error {
	for _, instance := range RegisteredModelInstances() {
		if _, err := db.NewCreateTable().Model(instance).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", instance, err)
		}
		GetLogger().Debug("Table ready", "model", fmt.Sprintf("%T", instance))
	}
	return nil
}
