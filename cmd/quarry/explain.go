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

package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tomoncle/quarry/config"
	"github.com/tomoncle/quarry/repository"
	"github.com/tomoncle/quarry/search"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mssqldialect"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

type explainOptions struct {
	configFile string
	rulesFile  string
	model      string
	table      string
	dialect    string
	rules      []string
	params     []string
	sort       string
	size       int
	page       int
}

// row stands in for a model; explain never scans results.
type row struct{}

func newExplainCmd() *cobra.Command {
	o := &explainOptions{}
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Compile rules and parameters and print the predicates and SQL",
		Example: `  quarry explain --rule q='name:like|email:like' --rule status== -p q=bob -p status=1 --sort=-id
  quarry explain --rules rules.yaml --model users -p created_at='2020-01-01 - 2020-01-31' --dialect pg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExplain(cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.configFile, "config", "", "application config file holding per-model search options")
	f.StringVar(&o.rulesFile, "rules", "", "YAML rules file, keyed by model when --model is set")
	f.StringVar(&o.model, "model", "", "model whose rules are taken from --config or --rules")
	f.StringVar(&o.table, "table", "", "table name in the rendered SQL (defaults to --model or \"t\")")
	f.StringVar(&o.dialect, "dialect", "sqlite", "SQL dialect: sqlite, mysql, pg or mssql")
	f.StringArrayVar(&o.rules, "rule", nil, "inline rule key=spec, repeatable")
	f.StringArrayVarP(&o.params, "param", "p", nil, "query parameter key=value, repeatable; repeated keys build a list")
	f.StringVar(&o.sort, "sort", "", "sort instructions such as \"-id,name\"")
	f.IntVar(&o.size, "size", 0, "row bound or page size")
	f.IntVar(&o.page, "page", 0, "page index, enables OFFSET")
	return cmd
}

func runExplain(out io.Writer, o *explainOptions) error {
	d, err := dialectOf(o.dialect)
	if err != nil {
		return err
	}
	rules, opts, err := loadRules(o)
	if err != nil {
		return err
	}

	size := o.size
	if size <= 0 && o.page > 0 {
		size = opts.PageSize
	}
	req := search.NewRequest[row](size).Rules(rules).SortBy(o.sort)
	params, err := parsePairs(o.params)
	if err != nil {
		return err
	}
	req.Params(params)

	groups := req.Groups()
	printGroups(out, groups)

	query, err := renderSQL(d, tableName(o), groups, req.Orders(), size, o.page)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, color.New(color.FgCyan, color.Bold).Sprint("SQL"))
	fmt.Fprintln(out, query)
	return nil
}

func dialectOf(name string) (schema.Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return sqlitedialect.New(), nil
	case "mysql":
		return mysqldialect.New(), nil
	case "pg", "postgres", "postgresql":
		return pgdialect.New(), nil
	case "mssql", "sqlserver":
		return mssqldialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", name)
	}
}

// loadRules merges rules from the config file, the rules file and the
// inline flags, later sources overriding earlier ones by key.
func loadRules(o *explainOptions) (search.RuleTable, search.Options, error) {
	rules := search.RuleTable{}
	opts := search.DefaultOptions()

	if o.configFile != "" {
		cfg, err := config.Load(o.configFile)
		if err != nil {
			return nil, opts, err
		}
		cfg.Apply()
		opts = cfg.SearchOptions(o.model)
		rules = rules.Merge(search.ParseRules(opts.Rules))
	}

	if o.rulesFile != "" {
		if o.model != "" {
			sets, err := search.LoadRuleSetsFile(o.rulesFile)
			if err != nil {
				return nil, opts, err
			}
			set, ok := sets[o.model]
			if !ok {
				return nil, opts, fmt.Errorf("no rules for model %q in %s", o.model, o.rulesFile)
			}
			rules = rules.Merge(set)
		} else {
			f, err := os.Open(o.rulesFile)
			if err != nil {
				return nil, opts, fmt.Errorf("failed to open rules file: %w", err)
			}
			loaded, err := search.LoadRules(f)
			_ = f.Close()
			if err != nil {
				return nil, opts, err
			}
			rules = rules.Merge(loaded)
		}
	}

	inline := make(map[string]any, len(o.rules))
	for _, r := range o.rules {
		key, spec, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, opts, fmt.Errorf("invalid rule %q, want key=spec", r)
		}
		inline[key] = spec
	}
	return rules.Merge(search.ParseRules(inline)), opts, nil
}

// parsePairs keeps the flag order; a repeated key turns its value into a
// list.
func parsePairs(pairs []string) (*search.Params, error) {
	params := search.NewParams()
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", pair)
		}
		if prev, exists := params.Get(key); exists {
			switch p := prev.(type) {
			case []any:
				params.Set(key, append(p, value))
			default:
				params.Set(key, []any{p, value})
			}
			continue
		}
		params.Set(key, value)
	}
	return params, nil
}

func tableName(o *explainOptions) string {
	switch {
	case o.table != "":
		return o.table
	case o.model != "":
		return o.model
	default:
		return "t"
	}
}

func printGroups(out io.Writer, groups []search.Group) {
	title := color.New(color.FgCyan, color.Bold)
	if len(groups) == 0 {
		fmt.Fprintln(out, title.Sprint("Predicates"), "none")
		return
	}
	fmt.Fprintln(out, title.Sprint("Predicates"))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"key", "boolean", "field", "operator", "value"})
	table.SetAutoWrapText(false)
	for _, g := range groups {
		for i, p := range g.Predicates {
			key := ""
			if i == 0 {
				key = g.Key
			}
			table.Append([]string{key, string(p.Boolean), p.Field, p.Operator, fmt.Sprint(p.Value)})
		}
	}
	table.Render()
}

// renderSQL builds the statement on a connection that is never used;
// rendering only needs the dialect.
func renderSQL(d schema.Dialect, table string, groups []search.Group, orders []search.Sort, size, page int) (string, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		return "", fmt.Errorf("failed to open renderer: %w", err)
	}
	db := bun.NewDB(sqldb, d)
	defer func() { _ = db.Close() }()

	sel := db.NewSelect().TableExpr("?", bun.Ident(table))
	search.Emit(repository.NewFilter(sel), groups)
	for _, o := range orders {
		sel.OrderExpr("? "+o.Direction.Name(), bun.Ident(o.Column))
	}
	if size > 0 {
		sel.Limit(size)
		if page > 1 {
			sel.Offset((page - 1) * size)
		}
	}
	return sel.String(), nil
}
