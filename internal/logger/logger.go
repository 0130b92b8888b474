package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a key/value logger over zap's sugared API. A nil *Logger
// discards everything, so components can take one optionally.
type Logger struct {
	s *zap.SugaredLogger
}

// callerSkip hides Debug/Info/Warn/Error and emit from reported callers.
const callerSkip = 2

// Options configures New.
type Options struct {
	Level string // debug, info, warn, error
	File  string // optional rotating JSON log file
}

// New builds a console logger on stderr, teed into a rotating file when
// opts.File is set.
func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level),
	}
	if opts.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(callerSkip))
	return &Logger{s: z.Sugar()}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *Logger {
	return &Logger{s: z.WithOptions(zap.AddCallerSkip(callerSkip)).Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

// Sync flushes buffered entries, including the rotating file sink. Errors
// from syncing a terminal stderr are expected and dropped.
func (l *Logger) Sync() {
	if l == nil {
		return
	}
	_ = l.s.Sync()
}

// Debug records per-record detail such as progress rows that match nothing.
func (l *Logger) Debug(msg string, kv ...any) { l.emit(zapcore.DebugLevel, msg, kv) }

// Info records stage milestones and attempts pointing outside the snapshot.
func (l *Logger) Info(msg string, kv ...any) { l.emit(zapcore.InfoLevel, msg, kv) }

// Warn records data the run corrected, such as a clamped incorrect count.
func (l *Logger) Warn(msg string, kv ...any) { l.emit(zapcore.WarnLevel, msg, kv) }

func (l *Logger) Error(msg string, kv ...any) { l.emit(zapcore.ErrorLevel, msg, kv) }

// With returns a logger that adds kv to every entry, e.g. the run id.
func (l *Logger) With(kv ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{s: l.s.With(kv...)}
}

func (l *Logger) emit(level zapcore.Level, msg string, kv []any) {
	if l == nil {
		return
	}
	l.s.Logw(level, msg, kv...)
}
