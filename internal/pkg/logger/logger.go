package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const ringBufferSize = 1000

// Log is the process-wide logger. Until Init runs it writes to stderr.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// LogRing holds the last 1000 log lines, served by GetAppLog. Set by Init.
var LogRing *RingBuffer

// RingBuffer is a thread-safe ring of the last N log lines. It
// implements io.Writer so it can sit behind zerolog's multi writer.
type RingBuffer struct {
	mu     sync.RWMutex
	lines  []string
	index  int
	filled bool
}

func (r *RingBuffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	s := strings.TrimRight(string(p), "\n\r")
	lines := strings.Split(s, "\n")
	r.mu.Lock()
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(r.lines) < ringBufferSize {
			r.lines = append(r.lines, line)
		} else {
			r.lines[r.index] = line
			r.index = (r.index + 1) % ringBufferSize
			r.filled = true
		}
	}
	r.mu.Unlock()
	return len(p), nil
}

// Lines returns the buffered lines in chronological order.
func (r *RingBuffer) Lines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.filled {
		result := make([]string, len(r.lines))
		copy(result, r.lines)
		return result
	}
	result := make([]string, ringBufferSize)
	for i := 0; i < ringBufferSize; i++ {
		result[i] = r.lines[(r.index+i)%ringBufferSize]
	}
	return result
}

// Init sets up the global logger: a rotating file under logDir, the
// in-memory ring, and a pretty console writer when debug is set.
func Init(logDir string, level string, debug bool) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	ring := &RingBuffer{lines: make([]string, 0, ringBufferSize)}
	LogRing = ring

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "cs2panel.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	writers := []io.Writer{fileWriter, ring}
	if debug {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	multi := zerolog.MultiLevelWriter(writers...)
	Log = zerolog.New(multi).Level(lvl).With().Timestamp().Logger()
	return nil
}
