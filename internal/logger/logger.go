// Package logger owns the process-wide structured logger. Records go to a
// rotated file under the config directory; debug runs mirror them to the
// console. Every helper is a no-op until Init has run, so packages may log
// from tests without setup.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/shopline/internal/constants"
)

const (
	maxFileMB   = 10
	keepFiles   = 3
	keepForDays = 28
)

// Logger is nil until Init
var Logger *log.Logger

var file string

type Config struct {
	Debug bool
	// Dir is the config directory; logs live in Dir/logs
	Dir string
	// Console receives a copy of every record when Debug is set.
	// Defaults to stderr.
	Console io.Writer
}

func Init(cfg Config) error {
	logDir := filepath.Join(cfg.Dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}
	file = filepath.Join(logDir, constants.AppName+".log")

	var w io.Writer = &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxFileMB,
		MaxBackups: keepFiles,
		MaxAge:     keepForDays,
		Compress:   true,
	}
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
		console := cfg.Console
		if console == nil {
			console = os.Stderr
		}
		w = io.MultiWriter(console, w)
	}

	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

// File is the active log file, empty before Init
func File() string {
	return file
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// With returns a child logger tagged with keyvals, for request-scoped
// fields such as op and request_id. Before Init it discards.
func With(keyvals ...interface{}) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard).With(keyvals...)
	}
	return Logger.With(keyvals...)
}
