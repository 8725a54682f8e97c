package utils

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// Move kinds recorded by the tracker.
const (
	MoveCommitted  = "commit"
	MoveRolledBack = "rollback"
	MoveUndone     = "undo"
)

type MoveEvent struct {
	MoveNumber int    `json:"move"`
	Pass       int    `json:"pass"`
	Kind       string `json:"kind"`
	Vertex     int    `json:"vertex"`
	From       int    `json:"from"`
	To         int    `json:"to"`
	Gain       int    `json:"gain"`
	Cut        int    `json:"cut"`
	Timestamp  int64  `json:"timestamp"`
}

// MoveTracker appends one JSON object per line. A nil tracker discards everything.
type MoveTracker struct {
	closer  io.Closer
	encoder *json.Encoder
	moves   int
}

func NewMoveTracker(filename string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	mt := NewMoveTrackerWriter(file)
	mt.closer = file
	return mt, nil
}

// NewMoveTrackerWriter tracks moves into w. Close does not close w.
func NewMoveTrackerWriter(w io.Writer) *MoveTracker {
	return &MoveTracker{encoder: json.NewEncoder(w)}
}

func (mt *MoveTracker) LogMove(pass int, kind string, vertex, from, to, gain, cut int) error {
	if mt == nil {
		return nil
	}
	mt.moves++
	return mt.encoder.Encode(MoveEvent{
		MoveNumber: mt.moves,
		Pass:       pass,
		Kind:       kind,
		Vertex:     vertex,
		From:       from,
		To:         to,
		Gain:       gain,
		Cut:        cut,
		Timestamp:  time.Now().Unix(),
	})
}

// Count returns the number of events logged so far.
func (mt *MoveTracker) Count() int {
	if mt == nil {
		return 0
	}
	return mt.moves
}

func (mt *MoveTracker) Close() error {
	if mt == nil || mt.closer == nil {
		return nil
	}
	return mt.closer.Close()
}
