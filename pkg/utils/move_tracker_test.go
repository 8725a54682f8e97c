package utils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveTrackerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	mt := NewMoveTrackerWriter(&buf)

	require.NoError(t, mt.LogMove(1, MoveCommitted, 4, 0, 1, 2, 7))
	require.NoError(t, mt.LogMove(1, MoveRolledBack, 5, 1, 0, 1, 7))
	assert.Equal(t, 2, mt.Count())

	var events []MoveEvent
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var e MoveEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].MoveNumber)
	assert.Equal(t, MoveCommitted, events[0].Kind)
	assert.Equal(t, 4, events[0].Vertex)
	assert.Equal(t, 7, events[0].Cut)
	assert.Equal(t, MoveRolledBack, events[1].Kind)
	assert.Equal(t, 2, events[1].MoveNumber)
}

func TestMoveTrackerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.jsonl")
	mt, err := NewMoveTracker(path)
	require.NoError(t, err)
	require.NoError(t, mt.LogMove(2, MoveUndone, 1, 1, 0, -1, 3))
	require.NoError(t, mt.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"undo"`)
}

func TestNilMoveTracker(t *testing.T) {
	var mt *MoveTracker
	assert.NoError(t, mt.LogMove(1, MoveCommitted, 0, 0, 1, 1, 0))
	assert.Zero(t, mt.Count())
	assert.NoError(t, mt.Close())
}
