package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog wrapper. Warnings and errors are also handed to the attached
// LogCollector, which child loggers created with With share.
type Logger struct {
	zl   zerolog.Logger
	sink *sink
}

type sink struct {
	collector atomic.Pointer[LogCollector]
}

type Config struct {
	Level      string // debug, info, warn, error; empty means info
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		lv, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = lv
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zl := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()
	return &Logger{zl: zl, sink: &sink{}}, nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return f, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), sink: &sink{}}
}

// NewWithWriter logs JSON to w at the given level. Used by tests.
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level), sink: &sink{}}
}

// With returns a child logger carrying the given fields on every entry.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &Logger{zl: ctx.Logger(), sink: l.sink}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(l.zl.Debug(), "", msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.log(l.zl.Info(), "", msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) { l.log(l.zl.Warn(), "warn", msg, fields) }

func (l *Logger) Error(msg string, fields ...Field) { l.log(l.zl.Error(), "error", msg, fields) }

func (l *Logger) log(ev *zerolog.Event, collectAs, msg string, fields []Field) {
	for _, f := range fields {
		f.addTo(ev)
	}
	ev.Msg(msg)
	if collectAs != "" {
		l.collect(collectAs, msg, fields)
	}
}

func (l *Logger) collect(level, msg string, fields []Field) {
	if l.sink == nil {
		return
	}
	c := l.sink.collector.Load()
	if c == nil {
		return
	}

	// log -> Warn/Error -> caller
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(3); ok {
		if i := strings.LastIndex(file, "StockPredictor/"); i >= 0 {
			file = file[i+len("StockPredictor/"):]
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}

	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		values[f.Key] = f.Value
	}
	c.AddLog(level, msg, values, caller)
}

// AddCollector starts a collector, replacing and flushing any previous one.
func (l *Logger) AddCollector(config *CollectionConfig) {
	if old := l.sink.collector.Swap(NewLogCollector(config)); old != nil {
		old.Close()
	}
}

// RemoveCollector detaches the collector and waits for its final flush.
func (l *Logger) RemoveCollector() {
	if old := l.sink.collector.Swap(nil); old != nil {
		old.Close()
	}
}

// Field is a structured log attribute.
type Field struct {
	Key   string
	Value interface{}
	kind  fieldKind
}

type fieldKind uint8

const (
	kindAny fieldKind = iota
	kindString
	kindInt
	kindInt64
	kindFloat
	kindBool
	kindError
	kindDuration
)

func (f Field) addTo(ev *zerolog.Event) {
	switch f.kind {
	case kindString:
		ev.Str(f.Key, f.Value.(string))
	case kindInt:
		ev.Int(f.Key, f.Value.(int))
	case kindInt64:
		ev.Int64(f.Key, f.Value.(int64))
	case kindFloat:
		ev.Float64(f.Key, f.Value.(float64))
	case kindBool:
		ev.Bool(f.Key, f.Value.(bool))
	case kindError:
		ev.Str(f.Key, f.Value.(string))
	case kindDuration:
		ev.Int64(f.Key, f.Value.(int64))
	default:
		ev.Interface(f.Key, f.Value)
	}
}

func String(key, value string) Field { return Field{Key: key, Value: value, kind: kindString} }

func Int(key string, value int) Field { return Field{Key: key, Value: value, kind: kindInt} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value, kind: kindInt64} }

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value, kind: kindFloat}
}

func Bool(key string, value bool) Field { return Field{Key: key, Value: value, kind: kindBool} }

// Error records err under "error". A nil error is logged as an empty string.
func Error(err error) Field {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Field{Key: "error", Value: msg, kind: kindError}
}

// Duration is logged in milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.Milliseconds(), kind: kindDuration}
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}

func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }
