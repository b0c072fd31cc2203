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
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/quarry/utils"
)

const loggerName = "DATABASE"

var (
	logMu     sync.RWMutex
	pkgLogger Logger
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var logrusLevels = map[LogLevel]logrus.Level{
	LogLevelDebug: logrus.DebugLevel,
	LogLevelInfo:  logrus.InfoLevel,
	LogLevelWarn:  logrus.WarnLevel,
	LogLevelError: logrus.ErrorLevel,
}

func (l LogLevel) String() string {
	if lvl, ok := logrusLevels[l]; ok {
		return lvl.String()
	}
	return logrus.DebugLevel.String()
}

// Logger is the key/value logger of the database layer. fields alternate
// keys and values.
type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// InitLogger replaces the package logger. nil restores the default.
func InitLogger(log Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	pkgLogger = log
}

// GetLogger returns the package logger, a logrus logger named DATABASE
// unless InitLogger installed another one.
func GetLogger() Logger {
	logMu.RLock()
	l := pkgLogger
	logMu.RUnlock()
	if l != nil {
		return l
	}

	logMu.Lock()
	defer logMu.Unlock()
	if pkgLogger == nil {
		pkgLogger = NewDefaultLogger(utils.NewLogger(loggerName))
	}
	return pkgLogger
}

// DefaultLogger adapts a logrus logger to Logger.
type DefaultLogger struct {
	logger *logrus.Logger
}

func NewDefaultLogger(logger *logrus.Logger) *DefaultLogger {
	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) { l.log(logrus.DebugLevel, msg, fields) }
func (l *DefaultLogger) Info(msg string, fields ...interface{})  { l.log(logrus.InfoLevel, msg, fields) }
func (l *DefaultLogger) Warn(msg string, fields ...interface{})  { l.log(logrus.WarnLevel, msg, fields) }
func (l *DefaultLogger) Error(msg string, fields ...interface{}) { l.log(logrus.ErrorLevel, msg, fields) }

func (l *DefaultLogger) SetLevel(level LogLevel) {
	lvl, ok := logrusLevels[level]
	if !ok {
		lvl = logrus.DebugLevel
	}
	l.logger.SetLevel(lvl)
}

// log pairs fields up; a trailing key without value is dropped.
func (l *DefaultLogger) log(level logrus.Level, msg string, fields []interface{}) {
	if !l.logger.IsLevelEnabled(level) {
		return
	}
	data := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		data[fmt.Sprint(fields[i])] = fields[i+1]
	}
	l.logger.WithFields(data).Log(level, msg)
}
