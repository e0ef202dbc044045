package core

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelOff:
		return "off"
	default:
		return "unknown"
	}
}

// LogConfig holds logging configuration from YAML.
type LogConfig struct {
	Level      string            `yaml:"level,omitempty"`
	Components map[string]string `yaml:"components,omitempty"`
}

// LogSink receives formatted log lines. The embedding host registers one to
// carry monitor logs across its own boundary; it must not block.
type LogSink func(line string)

// Logger provides per-component log level filtering. Output goes to the
// standard log package until a sink is attached, then every line is handed
// to the sink instead.
type Logger struct {
	mu          sync.RWMutex
	globalLevel LogLevel
	components  map[string]LogLevel // lowercase component name → level
	sink        LogSink
}

// ParseLevel converts a string level name to LogLevel.
// Returns LevelInfo for unrecognized values.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none":
		return LevelOff
	default:
		return LevelInfo
	}
}

// NewLogger creates a Logger from config.
func NewLogger(cfg LogConfig) *Logger {
	l := &Logger{
		globalLevel: ParseLevel(cfg.Level),
		components:  make(map[string]LogLevel, len(cfg.Components)),
	}
	for name, level := range cfg.Components {
		l.components[strings.ToLower(name)] = ParseLevel(level)
	}
	return l
}

// SetSink routes all subsequent log output to the given sink.
// A nil sink restores output to the standard log package.
func (l *Logger) SetSink(s LogSink) {
	l.mu.Lock()
	l.sink = s
	l.mu.Unlock()
}

// levelFor returns the effective log level for a component tag.
func (l *Logger) levelFor(tag string) LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if lvl, ok := l.components[strings.ToLower(tag)]; ok {
		return lvl
	}
	return l.globalLevel
}

// emit formats one line and delivers it to the sink or the standard logger.
func (l *Logger) emit(level LogLevel, tag, format string, args ...any) {
	l.mu.RLock()
	sink := l.sink
	l.mu.RUnlock()

	if sink == nil {
		log.Printf("["+tag+"] "+format, args...)
		return
	}

	msg := fmt.Sprintf(format, args...)
	sink(time.Now().Format("2006-01-02 15:04:05.000") + " [" + level.String() + "] [" + tag + "] " + msg)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(tag, format string, args ...any) {
	if l.levelFor(tag) <= LevelDebug {
		l.emit(LevelDebug, tag, format, args...)
	}
}

// Infof logs at info level.
func (l *Logger) Infof(tag, format string, args ...any) {
	if l.levelFor(tag) <= LevelInfo {
		l.emit(LevelInfo, tag, format, args...)
	}
}

// Warnf logs at warn level.
func (l *Logger) Warnf(tag, format string, args ...any) {
	if l.levelFor(tag) <= LevelWarn {
		l.emit(LevelWarn, tag, format, args...)
	}
}

// Errorf logs at error level.
func (l *Logger) Errorf(tag, format string, args ...any) {
	if l.levelFor(tag) <= LevelError {
		l.emit(LevelError, tag, format, args...)
	}
}

// Log is the global logger instance. Initialized with default (info level).
var Log = NewLogger(LogConfig{})
