package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/nutrilog/internal/ledger"
	"github.com/starford/nutrilog/internal/models"
)

var _ ledger.Persister = (*DB)(nil)

// SaveDay replaces every entry of date within one transaction.
func (db *DB) SaveDay(ctx context.Context, date string, entries []models.LoggedEntry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO days (date, updated_at) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET updated_at = excluded.updated_at
	`, date, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal: upsert day: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE date = ?`, date); err != nil {
		return fmt.Errorf("journal: clear day: %w", err)
	}

	if len(entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entries (id, date, slot, position, food, grams,
				calories, protein, carbs, fat, fiber, sugar, sodium, origin, logged_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("journal: prepare entry insert: %w", err)
		}
		defer stmt.Close()

		positions := make(map[models.MealSlot]int)
		for _, e := range entries {
			food, err := json.Marshal(e.Food)
			if err != nil {
				return fmt.Errorf("journal: encode food: %w", err)
			}
			pos := positions[e.Slot]
			positions[e.Slot]++
			n := e.Nutrition
			if _, err := stmt.ExecContext(ctx, e.ID, date, string(e.Slot), pos, string(food), e.Grams,
				n.Calories, n.Protein, n.Carbohydrates, n.Fat, n.Fiber, n.Sugar, n.Sodium,
				string(e.Origin), e.LoggedAt.UTC()); err != nil {
				return fmt.Errorf("journal: insert entry: %w", err)
			}
		}
	}

	return tx.Commit()
}

// LoadDay returns the entries of date ordered by slot position. found is
// false when the date was never written.
func (db *DB) LoadDay(ctx context.Context, date string) ([]models.LoggedEntry, bool, error) {
	var seen string
	err := db.conn.QueryRowContext(ctx, `SELECT date FROM days WHERE date = ?`, date).Scan(&seen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("journal: lookup day: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, slot, food, grams, calories, protein, carbs, fat, fiber, sugar, sodium, origin, logged_at
		FROM entries
		WHERE date = ?
		ORDER BY slot, position
	`, date)
	if err != nil {
		return nil, false, fmt.Errorf("journal: load day: %w", err)
	}
	defer rows.Close()

	out := []models.LoggedEntry{}
	for rows.Next() {
		var (
			e      models.LoggedEntry
			slot   string
			food   string
			origin string
		)
		n := &e.Nutrition
		if err := rows.Scan(&e.ID, &slot, &food, &e.Grams,
			&n.Calories, &n.Protein, &n.Carbohydrates, &n.Fat, &n.Fiber, &n.Sugar, &n.Sodium,
			&origin, &e.LoggedAt); err != nil {
			return nil, false, err
		}
		if err := json.Unmarshal([]byte(food), &e.Food); err != nil {
			return nil, false, fmt.Errorf("journal: decode food for %s: %w", e.ID, err)
		}
		e.Date = date
		e.Slot = models.MealSlot(slot)
		e.Origin = models.Origin(origin)
		out = append(out, e)
	}
	return out, true, rows.Err()
}

// Dates returns every date that has at least one entry, newest first.
func (db *DB) Dates(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT date FROM entries ORDER BY date DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: dates: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
