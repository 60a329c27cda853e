package player

import (
	"errors"

	"anistream/models"
)

type State int

const (
	Idle State = iota
	Loading
	Ready
	Playing
	Paused
	Error
	Disposed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Error:
		return "error"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

var (
	ErrDisposed   = errors.New("player: session disposed")
	ErrSuperseded = errors.New("player: superseded by a newer request")
	ErrNotReady   = errors.New("player: no media loaded")
	ErrNoRequest  = errors.New("player: nothing to retry")
)

// Request identifies one resolution cycle.
type Request struct {
	EpisodeID string
	Server    string
	Category  string
}

// Failure is what a user sees when a cycle ends in Error. Key identifies the
// episode so the case can be reproduced.
type Failure struct {
	Key     string
	Message string
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	ID         string
	State      State
	Generation uint64
	Request    Request
	Sources    *models.EpisodeSources
	Selection  *models.PlaybackSelection
	Failure    *Failure
}

// Transition is delivered to subscribers on every state change.
type Transition struct {
	From       State
	To         State
	Generation uint64
	Failure    *Failure
}
