package logs

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("LevelFiltering", func(t *testing.T) {
		logger := NewLogger(10, INFO)
		// Minimum level is INFO
		logger.Debug("should not be logged")
		logger.Info("should be logged")
		logger.Warn("should be logged")
		logger.Error("should be logged")

		entries := logger.GetLast(10)
		assert.Len(t, entries, 3, "Logger should have ignored DEBUG but kept INFO, WARN, and ERROR")
		assert.Equal(t, INFO, entries[0].Level)
		assert.Equal(t, WARN, entries[1].Level)
		assert.Equal(t, ERROR, entries[2].Level)
	})

	t.Run("RingBufferBehavior", func(t *testing.T) {
		// max size is 2 so adding a 3rd entry pushes out the first entry (FIFO)
		logger := NewLogger(2, DEBUG)

		logger.Info("first")
		logger.Info("second")
		logger.Info("third")

		entries := logger.GetLast(10)
		assert.Len(t, entries, 2, "Logger should only keep maxSize entries")
		assert.Equal(t, "second", entries[0].Message)
		assert.Equal(t, "third", entries[1].Message)
	})

	t.Run("ConcurrentLogging", func(t *testing.T) {
		logger := NewLogger(100, DEBUG)
		var wg sync.WaitGroup
		numLogs := 50

		for i := 0; i < numLogs; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				logger.Info("concurrent log " + strconv.Itoa(i))
			}(i)
		}
		wg.Wait()

		entries := logger.GetLast(100)
		assert.Len(t, entries, numLogs, "Logger should have all concurrent log entries")
	})

	t.Run("GetLastBoundaries", func(t *testing.T) {
		logger := NewLogger(10, DEBUG)
		logger.Info("msg1")
		logger.Info("msg2")
		logger.Info("msg3")

		assert.Len(t, logger.GetLast(10), 3)
		assert.Len(t, logger.GetLast(3), 3)
		assert.Empty(t, logger.GetLast(0))
		assert.Empty(t, logger.GetLast(-1))

		lastTwo := logger.GetLast(2)
		assert.Len(t, lastTwo, 2)
		assert.Equal(t, "msg2", lastTwo[0].Message)
		assert.Equal(t, "msg3", lastTwo[1].Message)
	})

	t.Run("DeepCopyProtection", func(t *testing.T) {
		logger := NewLogger(10, DEBUG)
		logger.Info("original message")

		entries := logger.GetLast(1)
		entries[0].Message = "modified message"

		entriesAfterModification := logger.GetLast(1)
		assert.Equal(t, "original message", entriesAfterModification[0].Message, "Modifying retrieved entries should not affect internal log storage")
	})

	t.Run("FormattedHelpers", func(t *testing.T) {
		logger := NewLogger(10, DEBUG)
		logger.Infof("purged %d keys", 3)

		entries := logger.GetLast(1)
		require.Len(t, entries, 1)
		assert.Equal(t, "purged 3 keys", entries[0].Message)
	})
}

func TestLogger_SinkReceivesStructuredEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(10, INFO, &buf)

	logger.Debug("filtered")
	logger.Warn("evictor lagging")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "filtered entries must not reach the sink")

	var record map[string]any
	require.NoError(t, jsoniter.Unmarshal(lines[0], &record))
	assert.Equal(t, "warn", record["level"])
	assert.Equal(t, "evictor lagging", record["message"])
	assert.Contains(t, record, "time")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(" debug ")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, WARN, level)

	_, err = ParseLevel("trace")
	assert.Error(t, err)
}

func TestOpenFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stasis.json")

	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	logger := NewLogger(10, DEBUG, f)
	logger.Info("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}
