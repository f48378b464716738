package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// std is the process-wide logger. Handlers and services log through the
// package-level printf-style helpers below.
var (
	std  = logrus.New()
	mu   sync.Mutex
	file *os.File
)

func init() {
	std.SetOutput(os.Stdout)
	std.SetLevel(logrus.InfoLevel)
	std.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
}

// InitLog directs log output to both stdout and the given file path,
// creating parent directories as needed.
func InitLog(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %q: %w", path, err)
	}
	file = f
	std.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// FlushLog closes the log file, if one was opened by InitLog.
func FlushLog() {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		_ = file.Sync()
		_ = file.Close()
		file = nil
		std.SetOutput(os.Stdout)
	}
}

// SetLevel adjusts the minimum level, e.g. "debug" when serving in debug mode.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	std.SetLevel(lvl)
}

func Debug(format string, args ...interface{}) { std.Debugf(format, args...) }
func Info(format string, args ...interface{})  { std.Infof(format, args...) }
func Warn(format string, args ...interface{})  { std.Warnf(format, args...) }
func Error(format string, args ...interface{}) { std.Errorf(format, args...) }
func Fatal(format string, args ...interface{}) { std.Fatalf(format, args...) }
