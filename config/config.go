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

// Package config loads application settings from a YAML file and
// QUARRY_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/utils"
)

// EnvPrefix prefixes every environment override, QUARRY_DATABASE_HOST
// overrides database.host.
const EnvPrefix = "QUARRY"

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

type Config struct {
	Database database.ConnectionConfig `mapstructure:"database" yaml:"database" json:"database"`
	Log      LogConfig                 `mapstructure:"log" yaml:"log" json:"log"`

	// Search holds per-model search defaults keyed by model name.
	Search map[string]search.Options `mapstructure:"search" yaml:"search" json:"search"`
}

func Default() *Config {
	return &Config{
		Database: *database.DefaultConnectionConfig(),
		Log:      LogConfig{Level: "info", Format: "text"},
		Search:   map[string]search.Options{},
	}
}

// Load reads path (when not empty) over the defaults and applies
// environment overrides. A missing file is an error; an empty path loads
// defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Search == nil {
		cfg.Search = map[string]search.Options{}
	}
	return cfg, nil
}

// setDefaults registers every scalar key so AutomaticEnv can see it
// during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	db := cfg.Database
	for key, value := range map[string]any{
		"database.type":               db.Type,
		"database.dsn":                db.DSN,
		"database.host":               db.Host,
		"database.port":               db.Port,
		"database.username":           db.Username,
		"database.password":           db.Password,
		"database.dbname":             db.DBName,
		"database.sslmode":            db.SSLMode,
		"database.charset":            db.Charset,
		"database.max_idle_conns":     db.MaxIdleConns,
		"database.max_open_conns":     db.MaxOpenConns,
		"database.conn_max_lifetime":  db.ConnMaxLifetime,
		"database.conn_max_idle_time": db.ConnMaxIdleTime,
		"database.connect_timeout":    db.ConnectTimeout,
		"database.read_timeout":       db.ReadTimeout,
		"database.write_timeout":      db.WriteTimeout,
		"database.enable_query_log":   db.EnableQueryLog,
		"database.query_log_style":    db.QueryLogStyle,
		"database.slow_query_time":    db.SlowQueryTime,
		"database.enable_metrics":     db.EnableMetrics,
		"database.auto_create":        db.AutoCreate,
		"log.level":                   cfg.Log.Level,
		"log.format":                  cfg.Log.Format,
	} {
		v.SetDefault(key, value)
	}
}

// Apply configures the process-wide loggers.
func (c *Config) Apply() {
	utils.ConfigureLogLevel(c.Log.Level)
	utils.ConfigureConsoleLogFormat(c.Log.Format)
}

// SearchOptions returns the search defaults of model overlaid by its
// configured entry.
func (c *Config) SearchOptions(model string) search.Options {
	opts := search.DefaultOptions()
	if o, ok := c.Search[model]; ok {
		opts = opts.Merge(o)
	}
	return opts
}
