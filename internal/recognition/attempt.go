// Package recognition runs simulated voice and photo food recognition as
// cancellable attempts. Nothing reaches the ledger until an attempt's result
// is accepted.
package recognition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/intake"
)

// Kind selects the recognition modality.
type Kind string

const (
	KindVoice Kind = "voice"
	KindPhoto Kind = "photo"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindVoice, KindPhoto:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown recognition kind %q", apperr.ErrInvalidInput, s)
}

// State is the lifecycle position of an attempt.
type State string

const (
	StateIdle        State = "idle"
	StateCapturing   State = "capturing"
	StateRecording   State = "recording"
	StateProcessing  State = "processing"
	StateResultReady State = "result_ready"
	StateFailed      State = "failed"
)

// Result is what a recognizer produced.
type Result struct {
	Name       string  `json:"name"`
	Grams      float64 `json:"grams"`
	Calories   float64 `json:"calories"`
	Confidence float64 `json:"confidence,omitempty"`
	Transcript string  `json:"transcript,omitempty"`
}

// Source converts the result into the intake source for kind.
func (r Result) Source(kind Kind) intake.Source {
	if kind == KindPhoto {
		return intake.PhotoResult{Name: r.Name, Grams: r.Grams, Calories: r.Calories, Confidence: r.Confidence}
	}
	return intake.VoiceResult{Name: r.Name, Grams: r.Grams, Calories: r.Calories}
}

// Recognizer turns captured bytes into a Result.
type Recognizer interface {
	Recognize(ctx context.Context, capture []byte) (Result, error)
}

// Snapshot is a point-in-time view of an attempt.
type Snapshot struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	State       State     `json:"state"`
	Result      *Result   `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CapturePath string    `json:"capture_path,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Attempt is one recognition run:
//
//	idle -> capturing|recording -> processing -> result_ready|failed
//
// Cancel returns to idle from any state.
type Attempt struct {
	id   string
	kind Kind
	rec  Recognizer

	mu          sync.Mutex
	state       State
	result      *Result
	errMsg      string
	capturePath string
	updatedAt   time.Time
	gen         int
	cancel      context.CancelFunc
	done        chan struct{}
}

func newAttempt(id string, kind Kind, rec Recognizer) *Attempt {
	return &Attempt{id: id, kind: kind, rec: rec, state: StateIdle, updatedAt: time.Now()}
}

// ID returns the attempt id.
func (a *Attempt) ID() string { return a.id }

// Kind returns the attempt modality.
func (a *Attempt) Kind() Kind { return a.kind }

// Snapshot returns the current state.
func (a *Attempt) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Snapshot{
		ID:          a.id,
		Kind:        a.kind,
		State:       a.state,
		Error:       a.errMsg,
		CapturePath: a.capturePath,
		UpdatedAt:   a.updatedAt,
	}
	if a.result != nil {
		r := *a.result
		s.Result = &r
	}
	return s
}

// Begin moves an idle or failed attempt into capturing (photo) or
// recording (voice).
func (a *Attempt) Begin() error {
	_, err := a.begin()
	return err
}

// begin is Begin returning the capture path of a failed run it cleared.
func (a *Attempt) begin() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var dropped string
	switch a.state {
	case StateIdle:
	case StateFailed:
		dropped = a.resetLocked()
	default:
		return "", fmt.Errorf("%w: attempt %s is %s", apperr.ErrConflict, a.id, a.state)
	}
	a.setState(a.captureState())
	return dropped, nil
}

func (a *Attempt) captureState() State {
	if a.kind == KindVoice {
		return StateRecording
	}
	return StateCapturing
}

// Submit hands captured bytes to the recognizer. Processing waits delay and
// then runs in the background until it finishes or the attempt is cancelled.
func (a *Attempt) Submit(capture []byte, capturePath string, delay time.Duration) error {
	gen, err := a.reserve()
	if err != nil {
		return err
	}
	return a.run(gen, capture, capturePath, delay)
}

// reserve moves a capturing or recording attempt into processing ahead of
// run and returns the generation run must present. Later submits fail with
// ErrConflict from here on.
func (a *Attempt) reserve() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateCapturing && a.state != StateRecording {
		return 0, fmt.Errorf("%w: attempt %s is %s", apperr.ErrConflict, a.id, a.state)
	}
	a.setState(StateProcessing)
	return a.gen, nil
}

// release returns a reserved attempt to capturing or recording.
func (a *Attempt) release(gen int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen || a.state != StateProcessing {
		return
	}
	a.setState(a.captureState())
}

// run starts background processing of a reserved attempt.
func (a *Attempt) run(gen int, capture []byte, capturePath string, delay time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen || a.state != StateProcessing {
		return fmt.Errorf("%w: attempt %s was cancelled while submitting", apperr.ErrConflict, a.id)
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	a.capturePath = capturePath

	go a.process(ctx, gen, a.done, capture, delay)
	return nil
}

func (a *Attempt) process(ctx context.Context, gen int, done chan struct{}, capture []byte, delay time.Duration) {
	defer close(done)

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}

	res, err := a.rec.Recognize(ctx, capture)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen || a.state != StateProcessing {
		return
	}
	if err != nil {
		a.errMsg = err.Error()
		a.setState(StateFailed)
		return
	}
	a.result = &res
	a.setState(StateResultReady)
}

// Cancel abandons the attempt and returns it to idle. Any result is dropped.
// It returns the path of the capture the attempt no longer refers to.
func (a *Attempt) Cancel() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resetLocked()
}

// Wait blocks until background processing finishes or ctx is done.
func (a *Attempt) Wait(ctx context.Context) error {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// take claims the ready result and its capture path and returns the attempt
// to idle, or fails with ErrNotReady.
func (a *Attempt) take() (Result, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateResultReady || a.result == nil {
		return Result{}, "", fmt.Errorf("%w: attempt %s is %s", apperr.ErrNotReady, a.id, a.state)
	}
	res := *a.result
	return res, a.resetLocked(), nil
}

// restore puts back a result claimed by take whose commit failed. It reports
// false when the attempt moved on in between.
func (a *Attempt) restore(res Result, capturePath string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateIdle {
		return false
	}
	a.result = &res
	a.capturePath = capturePath
	a.setState(StateResultReady)
	return true
}

// resetLocked returns the attempt to idle and hands back the capture path it
// cleared.
func (a *Attempt) resetLocked() string {
	dropped := a.capturePath
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.gen++
	a.result = nil
	a.errMsg = ""
	a.capturePath = ""
	a.setState(StateIdle)
	return dropped
}

func (a *Attempt) setState(s State) {
	a.state = s
	a.updatedAt = time.Now()
}
