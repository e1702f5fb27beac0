// Package logger is the process-wide structured JSON logger. Every entry is a
// single line on stderr; values that look like email addresses are masked
// unless redaction is switched off.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return "INFO"
}

// ParseLevel maps a config string to a Level. Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes structured entries to out.
type Logger struct {
	mu        sync.Mutex
	level     Level
	redactPII bool
	out       io.Writer
}

var defaultLogger = &Logger{level: INFO, redactPII: true, out: os.Stderr}

// SetLevel sets the minimum level for the default logger.
func SetLevel(l Level) {
	defaultLogger.mu.Lock()
	defaultLogger.level = l
	defaultLogger.mu.Unlock()
}

// SetRedactPII toggles address masking for the default logger.
func SetRedactPII(r bool) {
	defaultLogger.mu.Lock()
	defaultLogger.redactPII = r
	defaultLogger.mu.Unlock()
}

// SetOutput redirects the default logger and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	prev := defaultLogger.out
	defaultLogger.out = w
	return prev
}

func Debug(msg string, fields ...interface{}) { defaultLogger.log(DEBUG, msg, fields...) }
func Info(msg string, fields ...interface{})  { defaultLogger.log(INFO, msg, fields...) }
func Warn(msg string, fields ...interface{})  { defaultLogger.log(WARN, msg, fields...) }
func Error(msg string, fields ...interface{}) { defaultLogger.log(ERROR, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	entry := map[string]interface{}{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": level.String(),
		"msg":   msg,
	}

	// fields are key/value pairs; a trailing odd key is kept with an empty value
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if _, reserved := entry[key]; reserved {
			key = "field_" + key
		}
		if i+1 >= len(fields) {
			entry[key] = ""
			break
		}
		entry[key] = l.value(key, fields[i+1])
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":%q,"msg":%q,"log_error":%q}`, level.String(), msg, err.Error()))
	}
	fmt.Fprintln(l.out, string(data))
}

func (l *Logger) value(key string, v interface{}) interface{} {
	switch t := v.(type) {
	case int, int64, int32, uint, uint64, float64, bool:
		return t
	case error:
		return l.redact(key, t.Error())
	default:
		return l.redact(key, fmt.Sprintf("%v", v))
	}
}

func (l *Logger) redact(key, val string) string {
	if !l.redactPII {
		return val
	}
	return redactPIIValue(key, val)
}
