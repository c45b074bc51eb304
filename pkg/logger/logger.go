package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// sink is shared by a logger and all of its children so that writes stay
// serialized and the log file is closed once.
type sink struct {
	mu         sync.Mutex
	output     io.Writer
	fileOutput *os.File
}

type Logger struct {
	level     Level
	component string
	format    string
	sink      *sink
	fields    map[string]interface{}
}

type Config struct {
	Level      string
	Format     string
	OutputFile string
	Component  string
	// Output defaults to stderr; stdout is reserved for the run summary.
	Output io.Writer
}

func New(cfg Config) (*Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	s := &sink{output: out}

	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		s.fileOutput = f
		s.output = io.MultiWriter(out, f)
	}

	return &Logger{
		level:     ParseLevel(cfg.Level),
		component: cfg.Component,
		format:    cfg.Format,
		sink:      s,
		fields:    make(map[string]interface{}),
	}, nil
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	l, _ := New(Config{Level: "error", Output: io.Discard})
	return l
}

func (l *Logger) clone() *Logger {
	return &Logger{
		level:     l.level,
		component: l.component,
		format:    l.format,
		sink:      l.sink,
		fields:    copyFields(l.fields),
	}
}

func (l *Logger) WithComponent(component string) *Logger {
	c := l.clone()
	c.component = component
	return c
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	c := l.clone()
	for k, v := range fields {
		c.fields[k] = v
	}
	return c
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func copyFields(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	if level < l.level {
		return
	}

	formattedMsg := msg
	if len(args) > 0 {
		formattedMsg = fmt.Sprintf(msg, args...)
	}

	_, file, line, _ := runtime.Caller(2)

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   formattedMsg,
		Component: l.component,
		File:      filepath.Base(file),
		Line:      line,
		Fields:    l.fields,
	}

	var output string
	if l.format == "json" {
		data, _ := json.Marshal(entry)
		output = string(data)
	} else {
		output = l.formatText(entry)
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	fmt.Fprintln(l.sink.output, output)
}

func (l *Logger) formatText(entry LogEntry) string {
	levelColors := map[string]string{
		"DEBUG": "\033[36m",
		"INFO":  "\033[32m",
		"WARN":  "\033[33m",
		"ERROR": "\033[31m",
	}
	reset := "\033[0m"

	ts := entry.Timestamp
	if len(ts) > 19 {
		ts = ts[:19]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s%-5s%s", ts, levelColors[entry.Level], entry.Level, reset)

	if entry.Component != "" {
		fmt.Fprintf(&b, " [%s]", entry.Component)
	}

	b.WriteString(" " + entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}

	return b.String()
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DebugLevel, msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(InfoLevel, msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WarnLevel, msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ErrorLevel, msg, args...)
}

func (l *Logger) Close() error {
	if l.sink.fileOutput != nil {
		return l.sink.fileOutput.Close()
	}
	return nil
}
