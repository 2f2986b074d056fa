package recognition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/ledger"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/pipeline"
	"github.com/starford/nutrilog/internal/storage"
)

type fixedRecognizer struct {
	res Result
	err error
}

func (f fixedRecognizer) Recognize(context.Context, []byte) (Result, error) { return f.res, f.err }

// jpeg prefixes body with a JPEG signature.
func jpeg(body string) []byte {
	return append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), body...)
}

func captureStore(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func listCaptures(t *testing.T, fs *storage.FS) []storage.Object {
	t.Helper()
	objs, err := fs.List("")
	if err != nil {
		t.Fatal(err)
	}
	return objs
}

func waitFor(t *testing.T, a *Attempt) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestAttempt_VoiceLifecycle(t *testing.T) {
	m := NewManager(WithDelay(10 * time.Millisecond))
	a, err := m.Start(KindVoice)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s := a.Snapshot().State; s != StateRecording {
		t.Fatalf("state = %s, want recording", s)
	}
	if _, err := m.Submit(a.ID(), []byte("audio"), ""); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if s := a.Snapshot().State; s != StateProcessing {
		t.Fatalf("state = %s, want processing", s)
	}
	waitFor(t, a)

	snap := a.Snapshot()
	if snap.State != StateResultReady || snap.Result == nil {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Result.Transcript == "" || snap.Result.Grams <= 0 {
		t.Errorf("result = %+v", snap.Result)
	}
}

func TestAttempt_PhotoStartsCapturing(t *testing.T) {
	m := NewManager(WithDelay(time.Millisecond))
	a, _ := m.Start(KindPhoto)
	if s := a.Snapshot().State; s != StateCapturing {
		t.Errorf("state = %s, want capturing", s)
	}
}

func TestAttempt_CancelDuringProcessing(t *testing.T) {
	m := NewManager(WithDelay(time.Hour))
	a, _ := m.Start(KindVoice)
	_, _ = m.Submit(a.ID(), nil, "")

	if _, err := m.Cancel(a.ID()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, a)
	snap := a.Snapshot()
	if snap.State != StateIdle || snap.Result != nil {
		t.Errorf("snapshot after cancel = %+v", snap)
	}

	if _, err := m.Restart(a.ID()); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if s := a.Snapshot().State; s != StateRecording {
		t.Errorf("state = %s, want recording", s)
	}
}

func TestAttempt_CancelDropsReadyResult(t *testing.T) {
	store := ledger.NewStore()
	c := pipeline.NewCommitter(store)
	m := NewManager(WithDelay(time.Millisecond))
	a, _ := m.Start(KindVoice)
	_, _ = m.Submit(a.ID(), nil, "")
	waitFor(t, a)

	_, _ = m.Cancel(a.ID())
	if _, err := m.Accept(context.Background(), a.ID(), c, "2025-05-01", models.SlotLunch, nil); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
	day, _ := store.Get(context.Background(), "2025-05-01")
	if len(day.Entries()) != 0 {
		t.Error("cancelled result reached the ledger")
	}
}

func TestAttempt_WrongStateTransitions(t *testing.T) {
	m := NewManager(WithDelay(time.Hour))
	a, _ := m.Start(KindVoice)
	if err := a.Begin(); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Begin while recording err = %v", err)
	}
	_, _ = m.Submit(a.ID(), nil, "")
	if _, err := m.Submit(a.ID(), nil, ""); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("Submit while processing err = %v", err)
	}
	m.Close()
}

func TestAttempt_FailedState(t *testing.T) {
	m := NewManager(
		WithDelay(time.Millisecond),
		WithRecognizer(KindVoice, fixedRecognizer{err: errors.New("backend down")}),
	)
	a, _ := m.Start(KindVoice)
	_, _ = m.Submit(a.ID(), nil, "")
	waitFor(t, a)
	snap := a.Snapshot()
	if snap.State != StateFailed || snap.Error != "backend down" {
		t.Errorf("snapshot = %+v", snap)
	}

	if _, err := m.Restart(a.ID()); err != nil {
		t.Fatalf("Restart after failure: %v", err)
	}
	snap = a.Snapshot()
	if snap.State != StateRecording || snap.Error != "" {
		t.Errorf("after restart = %+v, want recording without error", snap)
	}
}

func TestManager_AcceptCommitsOnce(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewStore()
	c := pipeline.NewCommitter(store)
	m := NewManager(
		WithDelay(time.Millisecond),
		WithRecognizer(KindPhoto, fixedRecognizer{res: Result{Name: "Pizza", Grams: 200, Calories: 500, Confidence: 0.3}}),
	)
	a, _ := m.Start(KindPhoto)
	if _, err := m.Submit(a.ID(), jpeg("img"), ".jpg"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, a)

	entry, err := m.Accept(ctx, a.ID(), c, "2025-05-01", models.SlotDinner, nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if entry.Origin != models.OriginPhoto || entry.Nutrition.Calories != 500 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Food.NutritionPer100g.Calories != 250 {
		t.Errorf("per100g = %v, want 250", entry.Food.NutritionPer100g.Calories)
	}
	if _, err := m.Get(a.ID()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("attempt still present after accept: %v", err)
	}
	if _, err := m.Accept(ctx, a.ID(), c, "2025-05-01", models.SlotDinner, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second accept err = %v", err)
	}
}

func TestManager_AcceptWithEdit(t *testing.T) {
	c := pipeline.NewCommitter(ledger.NewStore())
	m := NewManager(WithDelay(time.Millisecond))
	a, _ := m.Start(KindVoice)
	_, _ = m.Submit(a.ID(), nil, "")
	waitFor(t, a)

	entry, err := m.Accept(context.Background(), a.ID(), c, "2025-05-01", models.SlotBreakfast,
		&Result{Name: "Porridge", Grams: 300, Calories: 210})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if entry.Food.Name != "Porridge" || entry.Grams != 300 || entry.Nutrition.Calories != 210 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Origin != models.OriginVoice {
		t.Errorf("origin = %q", entry.Origin)
	}
}

func TestManager_AcceptFailureKeepsResult(t *testing.T) {
	c := pipeline.NewCommitter(ledger.NewStore())
	m := NewManager(
		WithDelay(time.Millisecond),
		WithRecognizer(KindVoice, fixedRecognizer{res: Result{Name: "Soup", Grams: 250, Calories: 120}}),
	)
	a, _ := m.Start(KindVoice)
	_, _ = m.Submit(a.ID(), nil, "")
	waitFor(t, a)

	if _, err := m.Accept(context.Background(), a.ID(), c, "not-a-date", models.SlotLunch, nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if s := a.Snapshot().State; s != StateResultReady {
		t.Errorf("state = %s, want result_ready", s)
	}
}

func TestManager_StoresPhotoCapture(t *testing.T) {
	fs := captureStore(t)
	m := NewManager(WithDelay(time.Millisecond), WithCaptureStore(fs))
	a, _ := m.Start(KindPhoto)
	if _, err := m.Submit(a.ID(), jpeg("meal"), ".JPG"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, a)

	objs := listCaptures(t, fs)
	if len(objs) != 1 || objs[0].Path != a.Snapshot().CapturePath {
		t.Errorf("objects = %+v, capture path = %q", objs, a.Snapshot().CapturePath)
	}
	data, p, err := m.Capture(a.ID())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(data) != string(jpeg("meal")) || p != objs[0].Path {
		t.Errorf("capture = %q at %q", data, p)
	}
}

func TestManager_RejectedSubmitKeepsCapture(t *testing.T) {
	fs := captureStore(t)
	m := NewManager(WithDelay(time.Hour), WithCaptureStore(fs))
	defer m.Close()
	a, _ := m.Start(KindPhoto)
	if _, err := m.Submit(a.ID(), jpeg("first photo"), ".jpg"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := m.Submit(a.ID(), jpeg("second photo"), ".jpg"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second Submit err = %v, want ErrConflict", err)
	}

	snap := a.Snapshot()
	if snap.State != StateProcessing {
		t.Fatalf("state = %s, want processing", snap.State)
	}
	got, err := fs.Read(snap.CapturePath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(jpeg("first photo")) {
		t.Errorf("stored capture = %q, want the first photo", got)
	}
	if objs := listCaptures(t, fs); len(objs) != 1 {
		t.Errorf("objects = %+v, want 1", objs)
	}
}

func TestManager_DiscardDeletesCapture(t *testing.T) {
	fs := captureStore(t)
	m := NewManager(WithDelay(time.Hour), WithCaptureStore(fs))
	a, _ := m.Start(KindPhoto)
	if _, err := m.Submit(a.ID(), jpeg("x"), ".jpg"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	m.Discard(a.ID())
	if objs := listCaptures(t, fs); len(objs) != 0 {
		t.Errorf("objects after discard = %+v", objs)
	}
}

func TestManager_CancelDeletesCapture(t *testing.T) {
	fs := captureStore(t)
	m := NewManager(WithDelay(time.Hour), WithCaptureStore(fs))
	defer m.Close()
	a, _ := m.Start(KindPhoto)
	if _, err := m.Submit(a.ID(), jpeg("x"), ".jpg"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := m.Cancel(a.ID()); err != nil {
		t.Fatal(err)
	}
	if objs := listCaptures(t, fs); len(objs) != 0 {
		t.Errorf("objects after cancel = %+v", objs)
	}
	if _, _, err := m.Capture(a.ID()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Capture after cancel err = %v, want ErrNotFound", err)
	}

	// A new round after cancel stores its own capture.
	if _, err := m.Restart(a.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Submit(a.ID(), jpeg("y"), ".jpg"); err != nil {
		t.Fatalf("Submit after restart: %v", err)
	}
	if objs := listCaptures(t, fs); len(objs) != 1 || objs[0].Path != a.Snapshot().CapturePath {
		t.Errorf("objects = %+v", objs)
	}
}

func TestManager_AcceptDeletesCapture(t *testing.T) {
	fs := captureStore(t)
	c := pipeline.NewCommitter(ledger.NewStore())
	m := NewManager(WithDelay(time.Millisecond), WithCaptureStore(fs))
	a, _ := m.Start(KindPhoto)
	if _, err := m.Submit(a.ID(), jpeg("x"), ".jpg"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, a)

	if _, err := m.Accept(context.Background(), a.ID(), c, "bad-date", models.SlotLunch, nil); err == nil {
		t.Fatal("Accept with bad date should fail")
	}
	if objs := listCaptures(t, fs); len(objs) != 1 {
		t.Fatalf("failed accept dropped the capture: %+v", objs)
	}
	if _, err := m.Accept(context.Background(), a.ID(), c, "2025-05-01", models.SlotLunch, nil); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if objs := listCaptures(t, fs); len(objs) != 0 {
		t.Errorf("objects after accept = %+v", objs)
	}
}

func TestManager_SweepRemovesOrphans(t *testing.T) {
	fs := captureStore(t)
	if _, err := fs.Write("2025/01/old-0.jpg", jpeg("old")); err != nil {
		t.Fatal(err)
	}
	m := NewManager(WithDelay(time.Hour), WithCaptureStore(fs))
	defer m.Close()
	a, _ := m.Start(KindPhoto)
	if _, err := m.Submit(a.ID(), jpeg("live"), ".jpg"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	n, err := m.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	objs := listCaptures(t, fs)
	if len(objs) != 1 || objs[0].Path != a.Snapshot().CapturePath {
		t.Errorf("objects = %+v, want only the live capture", objs)
	}
}

func TestManager_RejectsUnknownCaptureType(t *testing.T) {
	m := NewManager(WithCaptureStore(captureStore(t)))
	a, _ := m.Start(KindPhoto)
	if _, err := m.Submit(a.ID(), []byte("x"), ".exe"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if s := a.Snapshot().State; s != StateCapturing {
		t.Errorf("state = %s, want capturing", s)
	}
}

func TestManager_RejectsContentNotMatchingExt(t *testing.T) {
	for name, m := range map[string]*Manager{
		"with store":    NewManager(WithCaptureStore(captureStore(t))),
		"without store": NewManager(),
	} {
		t.Run(name, func(t *testing.T) {
			a, _ := m.Start(KindPhoto)
			if _, err := m.Submit(a.ID(), []byte("any bytes named x.jpg"), ".jpg"); !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
			if s := a.Snapshot().State; s != StateCapturing {
				t.Errorf("state = %s, want capturing", s)
			}
		})
	}
}

func TestManager_UnknownKind(t *testing.T) {
	if _, err := NewManager().Start(Kind("smell")); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestSimulatedRecognizersAreDeterministic(t *testing.T) {
	ctx := context.Background()
	capture := []byte("same bytes")
	v1, err := SimulatedVoice{}.Recognize(ctx, capture)
	if err != nil {
		t.Fatal(err)
	}
	v2, _ := SimulatedVoice{}.Recognize(ctx, capture)
	if v1 != v2 {
		t.Errorf("voice results differ: %+v vs %+v", v1, v2)
	}
	for _, tr := range DefaultTranscripts {
		if _, err := (SimulatedVoice{Transcripts: []string{tr}}).Recognize(ctx, nil); err != nil {
			t.Errorf("canned transcript %q does not parse: %v", tr, err)
		}
	}
	p1, _ := SimulatedPhoto{}.Recognize(ctx, capture)
	p2, _ := SimulatedPhoto{}.Recognize(ctx, capture)
	if p1 != p2 {
		t.Errorf("photo results differ")
	}
}
