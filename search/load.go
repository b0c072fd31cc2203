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
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRules decodes one YAML rule table.
//
//	status: "="
//	q: "name:like|email:like"
//	created_at: "between:date"
func LoadRules(r io.Reader) (RuleTable, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return RuleTable{}, nil
		}
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return ParseRules(raw), nil
}

// LoadRuleSets decodes a YAML document keyed by model name, each entry a
// rule table.
//
//	users:
//	  q: "name:like|email:like"
//	orders:
//	  - status
func LoadRuleSets(r io.Reader) (map[string]RuleTable, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		// an empty document is an empty rule set
		if errors.Is(err, io.EOF) {
			return map[string]RuleTable{}, nil
		}
		return nil, fmt.Errorf("failed to parse rule sets: %w", err)
	}
	sets := make(map[string]RuleTable, len(raw))
	for name, rules := range raw {
		sets[name] = ParseRules(rules)
	}
	return sets, nil
}

// LoadRuleSetsFile reads LoadRuleSets input from path.
func LoadRuleSetsFile(path string) (map[string]RuleTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadRuleSets(f)
}
