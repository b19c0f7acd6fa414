// Package sqlstore provides a SQLite-backed implementation of port.Store.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"yada/internal/domain"
	"yada/internal/port"
)

var _ port.Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath, creating parent directories and
// running migrations.
func New(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveFoods(ctx context.Context, foods []domain.Food) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"food_components", "foods"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, f := range foods {
		keywords, err := json.Marshal(f.Keywords)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO foods (id, name, keywords, composite, calories) VALUES (?, ?, ?, ?, ?)",
			f.ID, f.Name, string(keywords), f.Composite, f.Calories,
		)
		if err != nil {
			return fmt.Errorf("failed to insert food %s: %w", f.ID, err)
		}

		for i, c := range f.Components {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO food_components (food_id, position, component_id, servings) VALUES (?, ?, ?, ?)",
				f.ID, i, c.FoodID, c.Servings,
			)
			if err != nil {
				return fmt.Errorf("failed to insert component of %s: %w", f.ID, err)
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadFoods(ctx context.Context) ([]domain.Food, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, keywords, composite, calories FROM foods ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	var foods []domain.Food
	index := make(map[string]int)
	for rows.Next() {
		var (
			f        domain.Food
			keywords string
		)
		if err := rows.Scan(&f.ID, &f.Name, &keywords, &f.Composite, &f.Calories); err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &f.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode keywords of %s: %w", f.ID, err)
		}
		index[f.ID] = len(foods)
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	compRows, err := s.db.QueryContext(ctx,
		"SELECT food_id, component_id, servings FROM food_components ORDER BY food_id, position")
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer compRows.Close()

	for compRows.Next() {
		var (
			foodID string
			c      domain.Component
		)
		if err := compRows.Scan(&foodID, &c.FoodID, &c.Servings); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		if i, ok := index[foodID]; ok {
			foods[i].Components = append(foods[i].Components, c)
		}
	}
	return foods, compRows.Err()
}

func (s *SQLiteStore) SaveLedger(ctx context.Context, user string, state domain.LedgerState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entries", "commands"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user = ?", user); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	positions := make(map[string]int)
	for _, de := range state.Entries {
		pos := positions[de.Date]
		positions[de.Date] = pos + 1
		_, err = tx.ExecContext(ctx,
			"INSERT INTO entries (user, date, position, food_id, servings, logged_at) VALUES (?, ?, ?, ?, ?, ?)",
			user, de.Date, pos, de.Entry.FoodID, de.Entry.Servings, formatTime(de.Entry.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	for i, cmd := range state.History {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO commands (user, seq, kind, date, food_id, servings, logged_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			user, i, cmd.Kind.String(), cmd.Date, cmd.Entry.FoodID, cmd.Entry.Servings, formatTime(cmd.Entry.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("failed to insert command: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadLedger(ctx context.Context, user string) (domain.LedgerState, error) {
	var state domain.LedgerState

	rows, err := s.db.QueryContext(ctx,
		"SELECT date, food_id, servings, logged_at FROM entries WHERE user = ? ORDER BY date, position", user)
	if err != nil {
		return state, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			de       domain.DatedEntry
			loggedAt string
		)
		if err := rows.Scan(&de.Date, &de.Entry.FoodID, &de.Entry.Servings, &loggedAt); err != nil {
			return state, fmt.Errorf("failed to scan entry: %w", err)
		}
		if de.Entry.Timestamp, err = parseTime(loggedAt); err != nil {
			return state, err
		}
		state.Entries = append(state.Entries, de)
	}
	if err := rows.Err(); err != nil {
		return state, err
	}

	cmdRows, err := s.db.QueryContext(ctx,
		"SELECT kind, date, food_id, servings, logged_at FROM commands WHERE user = ? ORDER BY seq", user)
	if err != nil {
		return state, fmt.Errorf("failed to query commands: %w", err)
	}
	defer cmdRows.Close()

	for cmdRows.Next() {
		var (
			cmd            domain.Command
			kind, loggedAt string
		)
		if err := cmdRows.Scan(&kind, &cmd.Date, &cmd.Entry.FoodID, &cmd.Entry.Servings, &loggedAt); err != nil {
			return state, fmt.Errorf("failed to scan command: %w", err)
		}
		if cmd.Kind, err = domain.ParseCommandKind(kind); err != nil {
			return state, err
		}
		if cmd.Entry.Timestamp, err = parseTime(loggedAt); err != nil {
			return state, err
		}
		state.History = append(state.History, cmd)
	}
	return state, cmdRows.Err()
}

func (s *SQLiteStore) SaveProfile(ctx context.Context, user string, state domain.ProfileState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE user = ?", user); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}

	insert := func(seq int, p domain.Profile) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (user, seq, username, gender, height_cm, age, weight_kg, activity, method)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user, seq, p.Username, p.Gender.String(), p.HeightCM, p.Age, p.WeightKG, p.Activity.String(), p.Method,
		)
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
		return nil
	}

	if state.Active != nil {
		if err := insert(activeSeq, *state.Active); err != nil {
			return err
		}
	}
	for i, p := range state.History {
		if err := insert(i, p); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadProfile(ctx context.Context, user string) (domain.ProfileState, error) {
	var state domain.ProfileState

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, username, gender, height_cm, age, weight_kg, activity, method
		 FROM profiles WHERE user = ? ORDER BY seq`, user)
	if err != nil {
		return state, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq              int
			p                domain.Profile
			gender, activity string
		)
		if err := rows.Scan(&seq, &p.Username, &gender, &p.HeightCM, &p.Age, &p.WeightKG, &activity, &p.Method); err != nil {
			return state, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.Gender = domain.ParseGender(gender)
		if p.Activity, err = domain.ParseActivityLevel(activity); err != nil {
			return state, err
		}

		if seq == activeSeq {
			state.Active = &p
			continue
		}
		state.History = append(state.History, p)
	}
	return state, rows.Err()
}

func (s *SQLiteStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user FROM entries UNION SELECT user FROM commands UNION SELECT user FROM profiles ORDER BY user")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
