package log

import (
	"encoding/json"
	//nolint:depguard
	"log"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Fatal is for use before a Logger exists (config/bootstrap failures).
func Fatal(v ...any) {
	log.Fatal(v...)
}

// Logger wraps zap with named sub-module loggers whose levels can be tuned
// per module through environment variables (see levels.go).
type Logger struct {
	*zap.Logger
	path  []string
	build func(path []string) *zap.Logger
}

// Module derives a child logger named after the dotted module path.
func (l *Logger) Module(name string) *Logger {
	path := append(append([]string{}, l.path...), name)
	return &Logger{
		Logger: l.build(path),
		path:   path,
		build:  l.build,
	}
}

// New builds a logger; an empty configFile selects the console default.
// A non-empty configFile must contain a JSON-encoded zap.Config.
func New(configFile string) (*Logger, error) {
	if configFile == "" {
		return newConsoleLogger(), nil
	}

	bs, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	var cfg zap.Config
	if err := json.Unmarshal(bs, &cfg); err != nil {
		return nil, err
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	build := func(path []string) *zap.Logger {
		return zl.Named(strings.Join(path, "."))
	}
	return &Logger{Logger: zl.Named("main"), build: build}, nil
}

func newConsoleLogger() *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName: func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + name + "]")
		},
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)
	writer := zapcore.AddSync(os.Stdout)

	rootLevel := zapcore.InfoLevel
	if lv, ok := levelFromEnv("LOG_LEVEL"); ok {
		rootLevel = lv
	}

	newCore := func(lv zapcore.Level) *zap.Logger {
		core := zapcore.NewCore(encoder, writer, zap.NewAtomicLevelAt(lv))
		return zap.New(core, zap.AddStacktrace(zapcore.FatalLevel))
	}

	build := func(path []string) *zap.Logger {
		return newCore(moduleLevel(path)).Named(strings.Join(path, "."))
	}
	return &Logger{Logger: newCore(rootLevel).Named("main"), build: build}
}

// NewTest routes output through the test runner.
func NewTest(t *testing.T) *Logger {
	zl := zaptest.NewLogger(t)
	return &Logger{
		Logger: zl,
		build: func(path []string) *zap.Logger {
			return zl.Named(strings.Join(path, "."))
		},
	}
}

// NewNop discards everything.
func NewNop() *Logger {
	zl := zap.NewNop()
	return &Logger{
		Logger: zl,
		build:  func([]string) *zap.Logger { return zl },
	}
}
