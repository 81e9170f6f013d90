package logs

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
	DEBUG Level = "DEBUG"
)

// levelPriority defines the priority of each log level
// higher value= more severe
var levelPriority = map[Level]int{
	DEBUG: 1,
	INFO:  2,
	WARN:  3,
	ERROR: 4,
}

var zerologLevels = map[Level]zerolog.Level{
	DEBUG: zerolog.DebugLevel,
	INFO:  zerolog.InfoLevel,
	WARN:  zerolog.WarnLevel,
	ERROR: zerolog.ErrorLevel,
}

// ParseLevel converts a case-insensitive level name into a Level.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := levelPriority[level]; !ok {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

type Entry struct {
	TimeStamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

// Logger keeps the most recent entries in memory and mirrors every accepted
// entry to a zerolog sink.
type Logger struct {
	mu      sync.Mutex
	entries []Entry
	maxSize int
	level   Level
	sink    zerolog.Logger
}

// level: minimum log level to record(e.g., INFO, WARN, ERROR,DEBUG)
//
// maxsize: maximum number of log entries kept in memory
//
// writers: optional outputs for the structured sink; none means memory only
func NewLogger(maxSize int, level Level, writers ...io.Writer) *Logger {
	sink := zerolog.Nop()
	if len(writers) > 0 {
		sink = zerolog.New(zerolog.SyncWriter(zerolog.MultiLevelWriter(writers...))).
			With().
			Timestamp().
			Logger()
	}

	return &Logger{
		entries: make([]Entry, 0, max(maxSize, 0)),
		maxSize: maxSize,
		level:   level,
		sink:    sink,
	}
}

// log is the internal logging function
// it applies level filtering and ring buffer behavior
func (l *Logger) log(level Level, msg string) {
	//filter logs below the current level
	if levelPriority[level] < levelPriority[l.level] {
		return
	}

	now := time.Now()

	// maxSize <= 0 keeps nothing in memory and only feeds the sink
	if l.maxSize > 0 {
		l.mu.Lock()
		if len(l.entries) >= l.maxSize {
			//remove oldest entry(ring behavior)
			l.entries = l.entries[1:]
		}

		l.entries = append(l.entries, Entry{
			TimeStamp: now,
			Level:     level,
			Message:   msg,
		})
		l.mu.Unlock()
	}

	l.sink.WithLevel(zerologLevels[level]).Msg(msg)
}

func (l *Logger) Debug(msg string) {
	l.log(DEBUG, msg)
}

func (l *Logger) Info(msg string) {
	l.log(INFO, msg)
}

func (l *Logger) Warn(msg string) {
	l.log(WARN, msg)
}

func (l *Logger) Error(msg string) {
	l.log(ERROR, msg)
}

// Debugf, Infof, Warnf and Errorf format msg with fmt.Sprintf.
func (l *Logger) Debugf(format string, args ...any) {
	l.log(DEBUG, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) {
	l.log(INFO, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log(WARN, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log(ERROR, fmt.Sprintf(format, args...))
}

func (l *Logger) GetLast(n int) []Entry {
	if n <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		out := make([]Entry, len(l.entries))
		copy(out, l.entries)
		return out
	}

	start := len(l.entries) - n
	out := make([]Entry, n)
	copy(out, l.entries[start:])
	return out
}
