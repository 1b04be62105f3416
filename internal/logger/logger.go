// Package logger writes prefixed, levelled lines through the standard log
// package. Where log output goes (stderr or a file) is decided by main.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

var (
	mu       sync.RWMutex
	prefix   string
	logLevel = levelFromEnv()
)

func levelFromEnv() level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug", "trace":
		return levelDebug
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// SetPrefix tags every following line, e.g. "client" or "devserver".
func SetPrefix(p string) {
	mu.Lock()
	prefix = p
	mu.Unlock()
}

// SetLevel overrides LOG_LEVEL.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(name) {
	case "debug", "trace":
		logLevel = levelDebug
	case "error":
		logLevel = levelError
	default:
		logLevel = levelInfo
	}
}

func emit(l level, tag, msg string) {
	mu.RLock()
	p, threshold := prefix, logLevel
	mu.RUnlock()
	if l < threshold {
		return
	}
	if p != "" {
		p = "[" + p + "] "
	}
	log.Print(p + tag + msg)
}

func Debugf(format string, v ...any) {
	emit(levelDebug, "DEBUG: ", fmt.Sprintf(format, v...))
}

func Info(v ...any) {
	emit(levelInfo, "", fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	emit(levelInfo, "", fmt.Sprintf(format, v...))
}

func Error(v ...any) {
	emit(levelError, "ERROR: ", fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	emit(levelError, "ERROR: ", fmt.Sprintf(format, v...))
}

// DeferLogDuration is meant for defer: defer logger.DeferLogDuration("Load", time.Now())().
// Calls under 100ms are only logged at debug level.
func DeferLogDuration(fn string, start time.Time) func() {
	return func() {
		elapsed := time.Since(start)
		l := levelDebug
		if elapsed >= 100*time.Millisecond {
			l = levelInfo
		}
		emit(l, "", fmt.Sprintf("fn=%s duration_ms=%d", fn, elapsed.Milliseconds()))
	}
}
