package recovery

import (
	"fmt"
	"sync"
)

// StrictStrategy implements a fail-fast recovery strategy.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(ctx Context, err error, location Location) Action {
	return ActionFail
}

// LenientStrategy keeps going and records every error it was shown. It is
// safe to share between concurrent renders.
type LenientStrategy struct {
	mu     sync.Mutex
	Errors []error
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

func (s *LenientStrategy) OnError(ctx Context, err error, location Location) Action {
	s.mu.Lock()
	s.Errors = append(s.Errors, fmt.Errorf("[%s] line %d, column %d: %w", location.Component, location.Line, location.Column, err))
	s.mu.Unlock()
	return ActionWarn
}

// Collected returns a copy of the recorded errors.
func (s *LenientStrategy) Collected() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.Errors...)
}

// Reset drops the recorded errors.
func (s *LenientStrategy) Reset() {
	s.mu.Lock()
	s.Errors = nil
	s.mu.Unlock()
}
