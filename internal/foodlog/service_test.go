package foodlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/nutrilog/internal/achievements"
	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/catalog"
	"github.com/starford/nutrilog/internal/ledger"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
	"github.com/starford/nutrilog/internal/pipeline"
	"github.com/starford/nutrilog/internal/recognition"
)

type fakeHistory []string

func (h fakeHistory) Dates(_ context.Context, limit int) ([]string, error) {
	if limit > 0 && limit < len(h) {
		return h[:limit], nil
	}
	return h, nil
}

func newService(t *testing.T, opts ...Option) (*Service, *achievements.Tracker) {
	t.Helper()
	store := ledger.NewStore()
	tracker := achievements.NewTracker()
	c := pipeline.NewCommitter(store, pipeline.WithHooks(tracker))
	rec := recognition.NewManager(recognition.WithDelay(time.Millisecond))
	t.Cleanup(rec.Close)
	all := append([]Option{WithRecognition(rec), WithTracker(tracker)}, opts...)
	return NewService(store, c, catalog.Default(), all...), tracker
}

func TestAddFoodToMeal_GramsTimesQuantity(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	apple, err := svc.GetFood("apple")
	if err != nil {
		t.Fatal(err)
	}

	entry, err := svc.AddFoodToMeal(ctx, "2025-07-01", models.SlotSnack, apple, 100, 2.5)
	if err != nil {
		t.Fatalf("AddFoodToMeal: %v", err)
	}
	if entry.Grams != 250 || entry.Nutrition.Calories != 130 {
		t.Errorf("entry = %v g / %v kcal, want 250 / 130", entry.Grams, entry.Nutrition.Calories)
	}

	if _, err := svc.AddFoodToMeal(ctx, "2025-07-01", models.SlotSnack, apple, 100, 0); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("qty 0 err = %v", err)
	}
}

func TestRemoveFoodFromMeal(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.LogCatalogFood(ctx, "2025-07-01", models.SlotLunch, "white-rice-cooked", nutrition.ServingSelection{})
	_, _ = svc.LogCatalogFood(ctx, "2025-07-01", models.SlotLunch, "dal", nutrition.ServingSelection{})
	_, _ = svc.LogCatalogFood(ctx, "2025-07-01", models.SlotBreakfast, "banana", nutrition.ServingSelection{})

	before, _ := svc.GetDailyLog(ctx, "2025-07-01")
	first := before.Meals[models.SlotLunch][0]

	removed, err := svc.RemoveFoodFromMeal(ctx, "2025-07-01", models.SlotLunch, 0, before.Revision)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed.ID != first.ID {
		t.Errorf("removed %s, want %s", removed.ID, first.ID)
	}
	after, _ := svc.GetDailyLog(ctx, "2025-07-01")
	if got, want := after.TotalNutrition.Calories, before.TotalNutrition.Calories-first.Nutrition.Calories; got != want {
		t.Errorf("calories = %v, want %v", got, want)
	}
	if len(after.Meals[models.SlotBreakfast]) != 1 {
		t.Error("breakfast changed")
	}

	if _, err := svc.RemoveFoodFromMeal(ctx, "2025-07-01", models.SlotLunch, 0, before.Revision); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale revision err = %v", err)
	}
}

func TestLogCatalogFood_UnknownFood(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.LogCatalogFood(context.Background(), "2025-07-01", models.SlotLunch, "unicorn", nutrition.ServingSelection{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBuilderFlow(t *testing.T) {
	svc, tracker := newService(t)
	ctx := context.Background()

	b := svc.NewBuilder()
	if _, err := svc.AddToBuilder(b.ID, "white-rice-cooked", nutrition.ServingSelection{Index: nutrition.CustomServing, ManualGrams: "100"}); err != nil {
		t.Fatal(err)
	}
	v, err := svc.AddToBuilder(b.ID, "dal", nutrition.ServingSelection{Index: 0, Quantity: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Components) != 2 || v.TotalGrams != 200 {
		t.Fatalf("view = %+v", v)
	}
	if v.TotalNutrition.Calories != 250 {
		t.Errorf("total = %v, want 250", v.TotalNutrition.Calories)
	}

	entries, err := svc.SaveBuilder(ctx, b.ID, "2025-07-02", models.SlotDinner, "Rice and dal")
	if err != nil {
		t.Fatalf("SaveBuilder: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
	if s := tracker.Summary(); s.MealsLogged != 2 || s.DailyLogCalls["2025-07-02"] != 2 {
		t.Errorf("tracker = %+v", s)
	}

	v, _ = svc.Builder(b.ID)
	if len(v.Components) != 0 {
		t.Error("builder not cleared")
	}
	if _, err := svc.SaveBuilder(ctx, b.ID, "2025-07-02", models.SlotDinner, ""); !errors.Is(err, apperr.ErrEmptyStaging) {
		t.Errorf("empty save err = %v", err)
	}
	if err := svc.DiscardBuilder(b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Builder(b.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestRecognitionFlow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	snap, err := svc.StartRecognition("voice")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AcceptRecognition(ctx, snap.ID, "2025-07-03", models.SlotLunch, nil); !errors.Is(err, apperr.ErrNotReady) {
		t.Errorf("early accept err = %v", err)
	}
	if _, err := svc.SubmitCapture(snap.ID, []byte("hello"), ""); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		s, _ := svc.Recognition(snap.ID)
		if s.State == recognition.StateResultReady {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("state = %s", s.State)
		}
		time.Sleep(5 * time.Millisecond)
	}

	entry, err := svc.AcceptRecognition(ctx, snap.ID, "2025-07-03", models.SlotLunch, nil)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if entry.Origin != models.OriginVoice {
		t.Errorf("origin = %q", entry.Origin)
	}
	if _, err := svc.StartRecognition("smell"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad kind err = %v", err)
	}
}

func TestHistory(t *testing.T) {
	svc, _ := newService(t, WithHistory(fakeHistory{"2025-07-02", "2025-07-01"}))
	ctx := context.Background()
	_, _ = svc.LogCatalogFood(ctx, "2025-07-01", models.SlotLunch, "banana", nutrition.ServingSelection{})

	days, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 || days[1].Entries != 1 || days[1].TotalNutrition.Calories != 105 {
		t.Errorf("history = %+v", days)
	}

	plain, _ := newService(t)
	if days, _ := plain.History(ctx, 10); days == nil || len(days) != 0 {
		t.Errorf("history without journal = %v", days)
	}
}
