package internal

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/nutrilog/internal/intake"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/sse"
	"github.com/starford/nutrilog/internal/storage"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(dir, "nutrilog.db")
	cfg.Captures.Path = filepath.Join(dir, "captures")
	cfg.Recognition.Delay = 10 * time.Millisecond
	return cfg
}

func TestBuild_PublishesLedgerAndAchievementEvents(t *testing.T) {
	broker := sse.NewBroker(time.Hour)
	defer broker.Close()
	ch := broker.Subscribe()

	c, err := build(testConfig(t), newLogger(io.Discard, 0), broker)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	calories := 250.0
	if _, err := c.svc.Log(context.Background(), "2026-03-01", models.SlotLunch, intake.QuickInput{Calories: &calories}); err != nil {
		t.Fatalf("log: %v", err)
	}

	want := []string{"event: entry.added", "event: log.updated", "event: achievement.unlocked"}
	var got bytes.Buffer
	timeout := time.After(2 * time.Second)
	for {
		done := true
		for _, w := range want {
			if !strings.Contains(got.String(), w) {
				done = false
			}
		}
		if done {
			break
		}
		select {
		case msg := <-ch:
			got.Write(msg)
		case <-timeout:
			t.Fatalf("events = %q, want %v", got.String(), want)
		}
	}
}

func TestBuild_JournalSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	logger := newLogger(io.Discard, 0)

	c, err := build(cfg, logger, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	calories := 120.0
	if _, err := c.svc.Log(context.Background(), "2026-03-01", models.SlotSnack, intake.QuickInput{Calories: &calories}); err != nil {
		t.Fatalf("log: %v", err)
	}
	c.Close()

	c, err = build(cfg, logger, nil)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	defer c.Close()

	day, err := c.svc.GetDailyLog(context.Background(), "2026-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if day.TotalNutrition.Calories != 120 {
		t.Errorf("calories after restart = %v, want 120", day.TotalNutrition.Calories)
	}
	history, err := c.svc.History(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Date != "2026-03-01" {
		t.Errorf("history = %+v", history)
	}
}

func TestBuild_SweepsOrphanCaptures(t *testing.T) {
	cfg := testConfig(t)
	captures, err := storage.NewFS(cfg.Captures.Path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := captures.Write("2026/02/left-over-0.png", []byte("\x89PNG\r\n\x1a\n")); err != nil {
		t.Fatal(err)
	}

	c, err := build(cfg, newLogger(io.Discard, 0), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer c.Close()

	objs, err := captures.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 0 {
		t.Errorf("captures after build = %+v, want none", objs)
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config should fail")
	}
	if err := RunMCP(context.Background()); err == nil {
		t.Fatal("RunMCP without config should fail")
	}
}
