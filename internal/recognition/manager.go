package recognition

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/intake"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/storage"
)

// DefaultDelay is the simulated processing time.
const DefaultDelay = 2 * time.Second

// Committer commits an intake source. *pipeline.Committer satisfies it.
type Committer interface {
	Commit(ctx context.Context, date string, slot models.MealSlot, src intake.Source) (*models.LoggedEntry, error)
}

// Manager owns recognition attempts by id.
type Manager struct {
	delay       time.Duration
	recognizers map[Kind]Recognizer
	captures    storage.Provider
	logger      *slog.Logger

	mu       sync.Mutex
	attempts map[string]*Attempt
}

// Option configures a Manager.
type Option func(*Manager)

// WithDelay sets the processing delay.
func WithDelay(d time.Duration) Option {
	return func(m *Manager) { m.delay = d }
}

// WithRecognizer replaces the recognizer for kind.
func WithRecognizer(kind Kind, r Recognizer) Option {
	return func(m *Manager) { m.recognizers[kind] = r }
}

// WithCaptureStore keeps photo captures in p.
func WithCaptureStore(p storage.Provider) Option {
	return func(m *Manager) { m.captures = p }
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager with the simulated recognizers.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		delay: DefaultDelay,
		recognizers: map[Kind]Recognizer{
			KindVoice: SimulatedVoice{},
			KindPhoto: SimulatedPhoto{},
		},
		logger:   slog.Default(),
		attempts: make(map[string]*Attempt),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates an attempt of kind and begins capturing.
func (m *Manager) Start(kind Kind) (*Attempt, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	a := newAttempt(uuid.NewString(), kind, m.recognizers[kind])
	if err := a.Begin(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.attempts[a.id] = a
	m.mu.Unlock()
	return a, nil
}

// Get returns the attempt with id.
func (m *Manager) Get(id string) (*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, fmt.Errorf("%w: recognition attempt %s", apperr.ErrNotFound, id)
	}
	return a, nil
}

// Restart begins capturing again on an idle or failed attempt.
func (m *Manager) Restart(id string) (*Attempt, error) {
	a, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	dropped, err := a.begin()
	m.dropCapture(a.id, dropped)
	return a, err
}

// Submit ends capturing and starts processing. Photo bytes must match ext,
// the file extension, and are stored when a capture store is configured.
func (m *Manager) Submit(id string, capture []byte, ext string) (*Attempt, error) {
	a, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	photo := a.kind == KindPhoto && len(capture) > 0
	if photo {
		ext = strings.ToLower(ext)
		if err := storage.CheckCapture(capture, ext); err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
		}
	}

	gen, err := a.reserve()
	if err != nil {
		return nil, err
	}

	var capturePath string
	if photo && m.captures != nil {
		capturePath = path.Join(time.Now().UTC().Format("2006/01"), fmt.Sprintf("%s-%d%s", a.id, gen, ext))
		sum, err := m.captures.Write(capturePath, capture)
		if err != nil {
			a.release(gen)
			return nil, fmt.Errorf("recognition: store capture: %w", err)
		}
		m.logger.Debug("capture stored",
			slog.String("attempt", a.id),
			slog.String("path", capturePath),
			slog.String("checksum", sum))
	}

	if err := a.run(gen, capture, capturePath, m.delay); err != nil {
		m.dropCapture(a.id, capturePath)
		return nil, err
	}
	return a, nil
}

// Capture returns the stored photo of the attempt and its path.
func (m *Manager) Capture(id string) ([]byte, string, error) {
	a, err := m.Get(id)
	if err != nil {
		return nil, "", err
	}
	p := a.Snapshot().CapturePath
	if p == "" || m.captures == nil {
		return nil, "", fmt.Errorf("%w: attempt %s has no stored capture", apperr.ErrNotFound, id)
	}
	data, err := m.captures.Read(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: capture of attempt %s is gone", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, "", fmt.Errorf("recognition: read capture: %w", err)
	}
	return data, p, nil
}

// Cancel returns the attempt to idle and deletes its capture.
func (m *Manager) Cancel(id string) (*Attempt, error) {
	a, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	m.dropCapture(a.id, a.Cancel())
	return a, nil
}

// Accept commits the ready result into meals[slot] on date and removes the
// attempt. A non-nil edit replaces the recognized values.
func (m *Manager) Accept(ctx context.Context, id string, c Committer, date string, slot models.MealSlot, edit *Result) (*models.LoggedEntry, error) {
	a, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	res, capturePath, err := a.take()
	if err != nil {
		return nil, err
	}
	logged := res
	if edit != nil {
		logged = *edit
		logged.Confidence = res.Confidence
		logged.Transcript = res.Transcript
	}

	entry, err := c.Commit(ctx, date, slot, logged.Source(a.kind))
	if err != nil {
		if !a.restore(res, capturePath) {
			m.dropCapture(a.id, capturePath)
		}
		return nil, err
	}
	m.Discard(id)
	m.dropCapture(a.id, capturePath)
	return entry, nil
}

// Discard cancels and forgets the attempt and deletes its capture. Unknown
// ids are ignored.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	a, ok := m.attempts[id]
	delete(m.attempts, id)
	m.mu.Unlock()
	if ok {
		m.dropCapture(id, a.Cancel())
	}
}

// Sweep deletes stored captures that no live attempt refers to, such as
// those left behind by a previous process. It returns how many it removed.
func (m *Manager) Sweep() (int, error) {
	if m.captures == nil {
		return 0, nil
	}
	objs, err := m.captures.List("")
	if err != nil {
		return 0, fmt.Errorf("recognition: sweep captures: %w", err)
	}

	live := make(map[string]bool)
	m.mu.Lock()
	for _, a := range m.attempts {
		if p := a.Snapshot().CapturePath; p != "" {
			live[p] = true
		}
	}
	m.mu.Unlock()

	removed := 0
	for _, o := range objs {
		if live[o.Path] {
			continue
		}
		if err := m.captures.Delete(o.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("recognition: sweep captures: %w", err)
		}
		m.logger.Debug("orphan capture removed",
			slog.String("path", o.Path),
			slog.Int64("size", o.Size),
			slog.Time("updated_at", o.UpdatedAt))
		removed++
	}
	return removed, nil
}

// Close cancels every attempt and deletes their captures.
func (m *Manager) Close() {
	m.mu.Lock()
	attempts := m.attempts
	m.attempts = make(map[string]*Attempt)
	m.mu.Unlock()
	for id, a := range attempts {
		m.dropCapture(id, a.Cancel())
	}
}

func (m *Manager) dropCapture(id, p string) {
	if p == "" || m.captures == nil {
		return
	}
	if err := m.captures.Delete(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger.Warn("delete capture",
			slog.String("attempt", id),
			slog.String("path", p),
			slog.String("error", err.Error()))
		return
	}
	m.logger.Debug("capture deleted", slog.String("attempt", id), slog.String("path", p))
}
