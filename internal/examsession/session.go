// Package examsession implements the client side of a timed exam: a state
// machine that drives the countdown, holds the answer sheet, and funnels the
// manual and timeout submission paths into a single guarded call.
//
// Everything here is a deterrent for honest clients. The restrictions can be
// bypassed by a determined user; score integrity rests entirely on the
// server-side scoring step.
package examsession

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// State of an exam session. Transitions are one-way:
// Loading → Active → Submitting → Terminated.
type State int32

const (
	StateLoading State = iota
	StateActive
	StateSubmitting
	StateTerminated
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateActive:
		return "ACTIVE"
	case StateSubmitting:
		return "SUBMITTING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Session errors.
var (
	ErrNotActive          = errors.New("session is not active")
	ErrAlreadyStarted     = errors.New("session already started")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	ErrNoSubmitFunc       = errors.New("config: Submit is required")
)

// Result is the graded outcome returned by the scoring endpoint.
type Result struct {
	Score   int
	Correct int
	Wrong   int
	Total   int
}

// SubmitFunc performs the authoritative submission of the answer sheet.
type SubmitFunc func(ctx context.Context, answers map[int]string) (*Result, error)

// Lockdown is the set of input/navigation restrictions held while the exam
// is active. Engage is called on start; Release must always run on
// termination, success or failure, so the user is never trapped in a
// locked-down surface.
type Lockdown interface {
	Engage() error
	Release()
}

// NopLockdown is a Lockdown that restricts nothing. Useful for headless
// clients and tests.
type NopLockdown struct{}

func (NopLockdown) Engage() error { return nil }
func (NopLockdown) Release()      {}

// Config configures a Session.
type Config struct {
	// Duration is the exam length (paper duration, not token lifetime).
	Duration time.Duration
	// Tick is the countdown granularity. Defaults to one second.
	Tick time.Duration
	// Submit is called exactly once, by whichever trigger wins.
	Submit SubmitFunc
	// Lockdown is engaged on Start and released on termination. Optional.
	Lockdown Lockdown
	// OnTick is invoked after every countdown decrement with the time left.
	OnTick func(remaining time.Duration)
	// OnWarn receives focus-loss style warnings. Suppressed while a
	// submission is in flight, so an auto-submit never also warns.
	OnWarn func(reason string)
}

// Session is a single exam attempt's client-side lifecycle.
type Session struct {
	cfg Config

	mu        sync.Mutex
	state     State
	answers   map[int]string
	remaining time.Duration
	result    *Result
	err       error

	inFlight  atomic.Bool
	stopTimer chan struct{}
	done      chan struct{}
}

// New creates a Session in the Loading state.
func New(cfg Config) (*Session, error) {
	if cfg.Submit == nil {
		return nil, ErrNoSubmitFunc
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Lockdown == nil {
		cfg.Lockdown = NopLockdown{}
	}
	return &Session{
		cfg:       cfg,
		state:     StateLoading,
		answers:   make(map[int]string),
		remaining: cfg.Duration,
		stopTimer: make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start engages the lockdown and begins the countdown. The context is
// retained for the auto-submit path; cancelling it tears the session down
// without submitting.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	if err := s.cfg.Lockdown.Engage(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = StateActive
	s.mu.Unlock()

	go s.countdown(ctx)
	return nil
}

// countdown decrements once per tick and triggers the auto-submit at zero.
func (s *Session) countdown(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.state != StateActive {
				s.mu.Unlock()
				return
			}
			s.remaining -= s.cfg.Tick
			if s.remaining < 0 {
				s.remaining = 0
			}
			remaining := s.remaining
			s.mu.Unlock()

			if s.cfg.OnTick != nil {
				s.cfg.OnTick(remaining)
			}
			if remaining <= 0 {
				// Time is up: converge on the same submission path
				// the manual trigger uses.
				_, _ = s.submit(ctx)
				return
			}

		case <-s.stopTimer:
			return

		case <-ctx.Done():
			s.abandon(ctx.Err())
			return
		}
	}
}

// SelectAnswer records the chosen option for a question. Later selections
// overwrite earlier ones. Only legal while Active.
func (s *Session) SelectAnswer(questionID int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return ErrNotActive
	}
	s.answers[questionID] = option
	return nil
}

// Answers returns a copy of the current answer sheet. Unanswered questions
// are absent.
func (s *Session) Answers() map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining returns the time left on the countdown.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Submit is the explicit user submission trigger.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	return s.submit(ctx)
}

// submit is the single convergence point for the manual and timeout
// triggers. The in-flight guard ensures at most one submission ever runs;
// the losing trigger gets ErrSubmissionInFlight. Lockdown release and the
// transition to Terminated happen unconditionally, even when the scoring
// call fails.
func (s *Session) submit(ctx context.Context) (*Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}

	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		s.inFlight.Store(false)
		return nil, ErrNotActive
	}
	s.state = StateSubmitting
	answers := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	s.mu.Unlock()

	close(s.stopTimer)

	result, err := s.cfg.Submit(ctx, answers)

	s.mu.Lock()
	s.state = StateTerminated
	s.result = result
	s.err = err
	s.mu.Unlock()

	s.cfg.Lockdown.Release()
	close(s.done)

	return result, err
}

// abandon tears the session down without submitting (context cancelled).
// A session that already entered Submitting is left to the submit path,
// which owns the terminal transition.
func (s *Session) abandon(cause error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateTerminated
	s.err = cause
	s.mu.Unlock()

	s.cfg.Lockdown.Release()
	close(s.done)
}

// Warn delivers a focus-loss style warning unless a submission is in
// flight — an auto-submit must not also pop a tab-switch warning.
func (s *Session) Warn(reason string) {
	if s.inFlight.Load() {
		return
	}
	if s.cfg.OnWarn != nil {
		s.cfg.OnWarn(reason)
	}
}

// Done is closed once the session reaches Terminated.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the stored result and error after termination.
func (s *Session) Outcome() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}
