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
	"errors"
	"fmt"

	"github.com/tomoncle/quarry/utils"
)

// ErrAborted is returned when a Before hook vetoes an operation. The hook
// error is wrapped alongside it.
var ErrAborted = errors.New("operation aborted by hook")

// Hooks are optional lifecycle callbacks of a Service. A nil hook is
// skipped. Before hooks run ahead of the statement and abort it by
// returning an error; Post hooks run only after it succeeded.
type Hooks[T any] struct {
	BeforeCreate func(ctx context.Context, model *T) error
	PostCreate   func(ctx context.Context, model *T)
	BeforeUpdate func(ctx context.Context, model *T) error
	PostUpdate   func(ctx context.Context, model *T)
	BeforeDelete func(ctx context.Context, id any) error
	PostDelete   func(ctx context.Context, id any)
	BeforeSave   func(ctx context.Context, model *T) error
	PostSave     func(ctx context.Context, model *T)
}

func abort(op string, err error) error {
	utils.NewLogger("SERVICE").WithField("operation", op).WithError(err).Debug("hook aborted operation")
	return fmt.Errorf("%w: before %s: %w", ErrAborted, op, err)
}

func (s *baseServiceImpl[T]) runCreate(ctx context.Context, models []*T, exec func() error) error {
	if before := s.hooks.BeforeCreate; before != nil {
		for _, m := range models {
			if err := before(ctx, m); err != nil {
				return abort("create", err)
			}
		}
	}
	if err := exec(); err != nil {
		return err
	}
	if post := s.hooks.PostCreate; post != nil {
		for _, m := range models {
			post(ctx, m)
		}
	}
	return nil
}

func (s *baseServiceImpl[T]) runUpdate(ctx context.Context, model *T, exec func() error) error {
	if before := s.hooks.BeforeUpdate; before != nil {
		if err := before(ctx, model); err != nil {
			return abort("update", err)
		}
	}
	if err := exec(); err != nil {
		return err
	}
	if post := s.hooks.PostUpdate; post != nil {
		post(ctx, model)
	}
	return nil
}

func (s *baseServiceImpl[T]) runSave(ctx context.Context, model *T, exec func() error) error {
	if before := s.hooks.BeforeSave; before != nil {
		if err := before(ctx, model); err != nil {
			return abort("save", err)
		}
	}
	if err := exec(); err != nil {
		return err
	}
	if post := s.hooks.PostSave; post != nil {
		post(ctx, model)
	}
	return nil
}

func (s *baseServiceImpl[T]) runDelete(ctx context.Context, id any, exec func() error) error {
	if before := s.hooks.BeforeDelete; before != nil {
		if err := before(ctx, id); err != nil {
			return abort("delete", err)
		}
	}
	if err := exec(); err != nil {
		return err
	}
	if post := s.hooks.PostDelete; post != nil {
		post(ctx, id)
	}
	return nil
}
