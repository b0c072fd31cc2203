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
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/quarry/utils"
)

var (
	loggerOnce sync.Once
	logger     *logrus.Logger
)

func getLogger() *logrus.Logger {
	loggerOnce.Do(func() { logger = utils.NewLogger("SEARCH") })
	return logger
}
