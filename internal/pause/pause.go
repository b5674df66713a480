// Package pause holds the global transfer gate.
package pause

import dErrors "ledgerguard/pkg/domain-errors"

// State starts unpaused.
type State struct {
	paused bool
}

func (s *State) Paused() bool { return s.paused }

func (s *State) CanPause() error {
	if s.paused {
		return dErrors.New(dErrors.CodeConflict, "Pausable: paused")
	}
	return nil
}

// Pause fails when already paused.
func (s *State) Pause() error {
	if err := s.CanPause(); err != nil {
		return err
	}
	s.paused = true
	return nil
}

func (s *State) CanUnpause() error {
	if !s.paused {
		return dErrors.New(dErrors.CodeConflict, "Pausable: not paused")
	}
	return nil
}

// Unpause fails when not paused.
func (s *State) Unpause() error {
	if err := s.CanUnpause(); err != nil {
		return err
	}
	s.paused = false
	return nil
}
