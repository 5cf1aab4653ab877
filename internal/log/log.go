package log

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     *stdlog.Logger
	loggerOnce sync.Once
	minLevel   = LevelInfo
)

// initLogger sets up the stderr logger; lines carry their own timestamp.
func initLogger() {
	loggerOnce.Do(func() {
		logger = stdlog.New(os.Stderr, "", 0)
	})
}

func SetLevel(l Level) {
	initLogger()
	minLevel = l
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a
// Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, msg, kv...)
}

func Warn(msg string, kv ...any) {
	logWithLevel(LevelWarn, msg, kv...)
}

// Error logs msg with err as the first pair.
func Error(msg string, err error, kv ...any) {
	logWithLevel(LevelError, msg, append([]any{"err", err}, kv...)...)
}

func logWithLevel(level Level, msg string, kv ...any) {
	initLogger()
	if !enabled(level) {
		return
	}
	logger.Printf("%s [%s] %s%s", time.Now().Format(time.RFC3339Nano), level, msg, formatKVs(kv...))
}

// levelRank orders levels; an unknown level ranks with debug.
var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

func enabled(level Level) bool {
	return levelRank[level] >= levelRank[minLevel]
}

// formatKVs renders pairs as " key=value". Pairs with a non-string key and a
// trailing unpaired value are dropped.
func formatKVs(kv ...any) string {
	var b strings.Builder
	for len(kv) >= 2 {
		if key, ok := kv[0].(string); ok {
			fmt.Fprintf(&b, " %s=%s", key, safeSprint(kv[1]))
		}
		kv = kv[2:]
	}
	return b.String()
}

// safeSprint prints register values in hex.
func safeSprint(v any) string {
	switch x := v.(type) {
	case uint32:
		return fmt.Sprintf("%#x", x)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprint(v)
	}
}
