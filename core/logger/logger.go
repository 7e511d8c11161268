package logger

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
	out      *stdlog.Logger
	outOnce  sync.Once
	minLevel = LevelInfo
)

func initLogger() {
	outOnce.Do(func() {
		out = stdlog.New(os.Stdout, "", 0)
	})
}

// SetLevel sets the minimum level that will be emitted.
func SetLevel(l string) {
	initLogger()
	switch strings.ToUpper(l) {
	case "DEBUG":
		minLevel = LevelDebug
	case "WARN":
		minLevel = LevelWarn
	case "ERROR":
		minLevel = LevelError
	default:
		minLevel = LevelInfo
	}
}

func Debug(msg string, kv ...any) { write(LevelDebug, msg, kv...) }
func Info(msg string, kv ...any)  { write(LevelInfo, msg, kv...) }
func Warn(msg string, kv ...any)  { write(LevelWarn, msg, kv...) }

// Error logs an error message. The variadic tail is either a bare error
// followed by key-value pairs, or key-value pairs only.
func Error(msg string, kv ...any) {
	if len(kv) > 0 {
		if err, ok := kv[0].(error); ok {
			kv = append([]any{"error", err}, kv[1:]...)
		}
	}
	write(LevelError, msg, kv...)
}

func write(level Level, msg string, kv ...any) {
	initLogger()
	if !enabled(level) {
		return
	}

	line := time.Now().Format(time.RFC3339) + " [" + string(level) + "] " + msg
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		line += " " + key + "=" + fmt.Sprint(kv[i+1])
	}
	out.Println(line)
}

func enabled(level Level) bool {
	rank := map[Level]int{LevelDebug: 0, LevelInfo: 1, LevelWarn: 2, LevelError: 3}
	return rank[level] >= rank[minLevel]
}
