package examsession

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recordingLockdown counts Engage/Release calls and can fail Engage.
type recordingLockdown struct {
	mu        sync.Mutex
	engaged   int
	released  int
	engageErr error
}

func (l *recordingLockdown) Engage() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engageErr != nil {
		return l.engageErr
	}
	l.engaged++
	return nil
}

func (l *recordingLockdown) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
}

func (l *recordingLockdown) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engaged, l.released
}

func okSubmit(ctx context.Context, answers map[int]string) (*Result, error) {
	return &Result{Score: 10, Correct: 2, Wrong: 0, Total: 2}, nil
}

func TestNewRequiresSubmitFunc(t *testing.T) {
	if _, err := New(Config{Duration: time.Minute}); !errors.Is(err, ErrNoSubmitFunc) {
		t.Fatalf("expected ErrNoSubmitFunc, got %v", err)
	}
}

func TestSelectAnswerOnlyWhileActive(t *testing.T) {
	s, err := New(Config{Duration: time.Minute, Submit: okSubmit})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SelectAnswer(1, "A"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive before Start, got %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectAnswer(1, "A"); err != nil {
		t.Fatalf("SelectAnswer while active: %v", err)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectAnswer(2, "B"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive after submit, got %v", err)
	}
}

func TestSelectAnswerOverwrites(t *testing.T) {
	s, _ := New(Config{Duration: time.Minute, Submit: okSubmit})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	_ = s.SelectAnswer(1, "A")
	_ = s.SelectAnswer(1, "C")

	if got := s.Answers()[1]; got != "C" {
		t.Fatalf("expected overwrite to C, got %q", got)
	}
}

func TestManualSubmitTerminatesAndReleasesLockdown(t *testing.T) {
	lock := &recordingLockdown{}
	var submitted map[int]string
	s, _ := New(Config{
		Duration: time.Minute,
		Lockdown: lock,
		Submit: func(ctx context.Context, answers map[int]string) (*Result, error) {
			submitted = answers
			return &Result{Score: 5, Correct: 1, Wrong: 0, Total: 2}, nil
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = s.SelectAnswer(1, "A")

	result, err := s.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 5 {
		t.Fatalf("expected score 5, got %d", result.Score)
	}
	if submitted[1] != "A" {
		t.Fatalf("submitted answers missing selection: %v", submitted)
	}
	if s.State() != StateTerminated {
		t.Fatalf("expected Terminated, got %v", s.State())
	}

	engaged, released := lock.counts()
	if engaged != 1 || released != 1 {
		t.Fatalf("expected 1 engage / 1 release, got %d / %d", engaged, released)
	}
}

func TestLockdownReleasedWhenSubmitFails(t *testing.T) {
	lock := &recordingLockdown{}
	s, _ := New(Config{
		Duration: time.Minute,
		Lockdown: lock,
		Submit: func(ctx context.Context, answers map[int]string) (*Result, error) {
			return nil, errors.New("server unreachable")
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(context.Background()); err == nil {
		t.Fatal("expected submit error")
	}

	if s.State() != StateTerminated {
		t.Fatalf("expected Terminated even on failure, got %v", s.State())
	}
	if _, released := lock.counts(); released != 1 {
		t.Fatalf("lockdown must be released on failure, releases = %d", released)
	}

	_, err := s.Outcome()
	if err == nil {
		t.Fatal("Outcome should retain the submit error")
	}
}

func TestEngageFailureAbortsStart(t *testing.T) {
	lock := &recordingLockdown{engageErr: errors.New("no tty")}
	s, _ := New(Config{Duration: time.Minute, Lockdown: lock, Submit: okSubmit})

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail when lockdown cannot engage")
	}
	if s.State() != StateLoading {
		t.Fatalf("failed Start must leave session in Loading, got %v", s.State())
	}
}

func TestAutoSubmitAtZero(t *testing.T) {
	lock := &recordingLockdown{}
	var calls atomic.Int32
	s, _ := New(Config{
		Duration: 30 * time.Millisecond,
		Tick:     10 * time.Millisecond,
		Lockdown: lock,
		Submit: func(ctx context.Context, answers map[int]string) (*Result, error) {
			calls.Add(1)
			return &Result{Total: 1}, nil
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("auto-submit never fired")
	}

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one submission, got %d", n)
	}
	if s.State() != StateTerminated {
		t.Fatalf("expected Terminated, got %v", s.State())
	}
	if _, released := lock.counts(); released != 1 {
		t.Fatalf("expected 1 release, got %d", released)
	}
}

func TestSubmissionGuardAllowsOnlyOneWinner(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	s, _ := New(Config{
		Duration: time.Minute,
		Submit: func(ctx context.Context, answers map[int]string) (*Result, error) {
			calls.Add(1)
			<-release
			return &Result{}, nil
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	go func() {
		_, _ = s.Submit(context.Background())
	}()

	// Wait for the first submission to enter the submit func.
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}

	close(release)
	<-s.Done()

	if n := calls.Load(); n != 1 {
		t.Fatalf("expected exactly one submission, got %d", n)
	}
}

func TestWarnSuppressedDuringSubmission(t *testing.T) {
	var warnings atomic.Int32
	release := make(chan struct{})
	s, _ := New(Config{
		Duration: time.Minute,
		OnWarn:   func(string) { warnings.Add(1) },
		Submit: func(ctx context.Context, answers map[int]string) (*Result, error) {
			<-release
			return &Result{}, nil
		},
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	s.Warn("focus lost")
	if warnings.Load() != 1 {
		t.Fatalf("expected warning while active, got %d", warnings.Load())
	}

	go func() {
		_, _ = s.Submit(context.Background())
	}()
	for !s.inFlight.Load() {
		time.Sleep(time.Millisecond)
	}

	s.Warn("focus lost")
	if warnings.Load() != 1 {
		t.Fatalf("warning must be suppressed in flight, got %d", warnings.Load())
	}

	close(release)
	<-s.Done()
}

func TestContextCancelAbandonsWithoutSubmitting(t *testing.T) {
	lock := &recordingLockdown{}
	var calls atomic.Int32
	s, _ := New(Config{
		Duration: time.Minute,
		Tick:     5 * time.Millisecond,
		Lockdown: lock,
		Submit: func(ctx context.Context, answers map[int]string) (*Result, error) {
			calls.Add(1)
			return &Result{}, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("cancel did not terminate the session")
	}

	if calls.Load() != 0 {
		t.Fatal("abandoned session must not submit")
	}
	if _, released := lock.counts(); released != 1 {
		t.Fatalf("expected 1 release on abandon, got %d", released)
	}
	if _, err := s.Outcome(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled outcome, got %v", err)
	}
}

func TestStartTwiceFails(t *testing.T) {
	s, _ := New(Config{Duration: time.Minute, Submit: okSubmit})
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}
