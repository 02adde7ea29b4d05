// Package session holds the per-session UI state commands read and write:
// the cine flag, per-viewport cine playback and the toolbar.
package session

import (
	"sync"

	"github.com/go-logr/logr"
)

// CineButtonID is the toolbar button reflecting the cine flag.
const CineButtonID = "Cine"

// CineState is the playback state of one grid position.
type CineState struct {
	IsPlaying       bool
	FramesPerSecond int
}

// State is the mutable session state.
type State struct {
	mu sync.RWMutex

	cineEnabled   bool
	cines         map[int]CineState
	primaryToolID string
	buttons       map[string]bool

	log logr.Logger
}

func NewState(log logr.Logger) *State {
	return &State{
		cines:   make(map[int]CineState),
		buttons: make(map[string]bool),
		log:     log,
	}
}

func (s *State) CineEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cineEnabled
}

func (s *State) SetCineEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cineEnabled = enabled
}

// SetCine records the playback state of a grid position.
func (s *State) SetCine(index int, cine CineState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cines[index] = cine
}

// Cine returns the playback state of a grid position; unset positions are stopped.
func (s *State) Cine(index int) CineState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cines[index]
}

// PrimaryToolID is the toolbar's record of the primary tool.
func (s *State) PrimaryToolID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.primaryToolID
}

func (s *State) SetPrimaryToolID(toolName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primaryToolID = toolName
	s.log.V(1).Info("primary tool recorded", "toolName", toolName)
}

// SetButtonActive sets the toggled state of a toolbar button.
func (s *State) SetButtonActive(buttonID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons[buttonID] = active
}

func (s *State) ButtonActive(buttonID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buttons[buttonID]
}

// Reset clears the toolbar and cine state.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cineEnabled = false
	s.cines = make(map[int]CineState)
	s.primaryToolID = ""
	s.buttons = make(map[string]bool)
}
