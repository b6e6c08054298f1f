package log

import (
	"os"
	"strings"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap/zapcore"
)

// lookupEnv is swapped out in tests.
var lookupEnv = func(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func levelFromEnv(key string) (zapcore.Level, bool) {
	v, ok := lookupEnv(key)
	if !ok {
		return zapcore.InfoLevel, false
	}
	var lv zapcore.Level
	if err := lv.Set(strings.ToLower(v)); err != nil {
		return zapcore.InfoLevel, false
	}
	return lv, true
}

// moduleLevel resolves the level for a module path, most specific key first:
// LOG_LEVEL__A__B, LOG_LEVEL__A, then LOG_LEVEL.
func moduleLevel(path []string) zapcore.Level {
	keys := make([]string, 0, len(path)+1)
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strcase.ToScreamingSnake(p)
	}
	for i := len(parts); i > 0; i-- {
		keys = append(keys, "LOG_LEVEL__"+strings.Join(parts[:i], "__"))
	}
	keys = append(keys, "LOG_LEVEL")

	for _, k := range keys {
		if lv, ok := levelFromEnv(k); ok {
			return lv
		}
	}
	return zapcore.InfoLevel
}
