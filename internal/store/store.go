// Package store persists games and their turn history behind a small
// repository interface. SQLite is the default; postgres is selected by
// dialect. The GameState travels as one JSON document per game, with an
// immutable per-quarter snapshot trail in the turns table.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"foundry/internal/sim"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

var (
	ErrGameNotFound = errors.New("game not found")

	// ErrQuarterConflict means the turn was computed against a stale
	// snapshot: some other writer advanced the game first.
	ErrQuarterConflict = errors.New("game already advanced past this quarter")
)

type Store struct {
	db      *sqlx.DB
	dialect string
}

// Open connects and runs any pending migrations. dsn is a file path for
// sqlite and a connection URL for postgres.
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	var db *sqlx.DB
	var err error
	switch dialect {
	case "sqlite":
		db, err = sqlx.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	case "postgres":
		db, err = sqlx.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	dir := "migrations/" + s.dialect
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var done int
		err := s.db.GetContext(ctx, &done,
			s.db.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`), name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if done > 0 {
			continue
		}
		raw, err := migrationFS.ReadFile(dir + "/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(raw)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx,
			s.db.Rebind(`INSERT INTO schema_migrations (name) VALUES (?)`), name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// GameSummary is the list view: identity plus a few headline figures
// pulled out of the state document.
type GameSummary struct {
	GameID         string    `json:"game_id"`
	Name           string    `json:"name"`
	CurrentQuarter int       `json:"current_quarter"`
	CreatedAt      time.Time `json:"created_at"`
	StockPrice     float64   `json:"stock_price"`
	Cash           float64   `json:"cash"`
	MarketShare    float64   `json:"market_share"`
}

// TurnRecord is one persisted quarter: the action taken and the snapshot
// it produced.
type TurnRecord struct {
	Quarter   int              `json:"quarter"`
	Status    sim.TurnStatus   `json:"status"`
	Seed      int64            `json:"seed"`
	Action    sim.PlayerAction `json:"action"`
	State     sim.GameState    `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
}

func (s *Store) CreateGame(ctx context.Context, st sim.GameState) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO games (id, name, current_quarter, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		st.Metadata.GameID, st.Metadata.Name, st.Metadata.CurrentQuarter,
		string(doc), st.Metadata.CreatedAt.Format(time.RFC3339Nano), now)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *Store) GetGame(ctx context.Context, id string) (sim.GameState, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc,
		s.db.Rebind(`SELECT state FROM games WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.GameState{}, ErrGameNotFound
	}
	if err != nil {
		return sim.GameState{}, fmt.Errorf("select game: %w", err)
	}
	var st sim.GameState
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		return sim.GameState{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return st, nil
}

func (s *Store) ListGames(ctx context.Context) ([]GameSummary, error) {
	rows := []struct {
		ID             string `db:"id"`
		Name           string `db:"name"`
		CurrentQuarter int    `db:"current_quarter"`
		State          string `db:"state"`
		CreatedAt      string `db:"created_at"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, current_quarter, state, created_at FROM games ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	out := make([]GameSummary, 0, len(rows))
	for _, r := range rows {
		var st sim.GameState
		if err := json.Unmarshal([]byte(r.State), &st); err != nil {
			return nil, fmt.Errorf("unmarshal state for %s: %w", r.ID, err)
		}
		created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
		out = append(out, GameSummary{
			GameID:         r.ID,
			Name:           r.Name,
			CurrentQuarter: r.CurrentQuarter,
			CreatedAt:      created,
			StockPrice:     st.StockPrice,
			Cash:           st.Company.Cash,
			MarketShare:    st.Market.PlayerMarketShare,
		})
	}
	return out, nil
}

// SaveTurn atomically advances the game document and appends the turn
// snapshot. The update is guarded on the previous quarter number, so a
// turn computed against a stale state fails with ErrQuarterConflict
// instead of silently rewinding history.
func (s *Store) SaveTurn(ctx context.Context, st sim.GameState, action sim.PlayerAction, seed int64) error {
	stateDoc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	actionDoc, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.db.Rebind(
		`UPDATE games SET state = ?, current_quarter = ?, updated_at = ?
		 WHERE id = ? AND current_quarter = ?`),
		string(stateDoc), st.Metadata.CurrentQuarter, now,
		st.Metadata.GameID, st.Metadata.CurrentQuarter-1)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		if err := tx.GetContext(ctx, &exists,
			s.db.Rebind(`SELECT COUNT(*) FROM games WHERE id = ?`), st.Metadata.GameID); err != nil {
			return fmt.Errorf("check game: %w", err)
		}
		if exists == 0 {
			return ErrGameNotFound
		}
		return ErrQuarterConflict
	}

	_, err = tx.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO turns (game_id, quarter, status, seed, action, state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		st.Metadata.GameID, st.Metadata.CurrentQuarter, string(sim.TurnPersisted),
		seed, string(actionDoc), string(stateDoc), now)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, id string) ([]TurnRecord, error) {
	if _, err := s.GetGame(ctx, id); err != nil {
		return nil, err
	}

	rows := []struct {
		Quarter   int    `db:"quarter"`
		Status    string `db:"status"`
		Seed      int64  `db:"seed"`
		Action    string `db:"action"`
		State     string `db:"state"`
		CreatedAt string `db:"created_at"`
	}{}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT quarter, status, seed, action, state, created_at
		 FROM turns WHERE game_id = ? ORDER BY quarter ASC`), id)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	out := make([]TurnRecord, 0, len(rows))
	for _, r := range rows {
		rec := TurnRecord{
			Quarter: r.Quarter,
			Status:  sim.TurnStatus(r.Status),
			Seed:    r.Seed,
		}
		if err := json.Unmarshal([]byte(r.Action), &rec.Action); err != nil {
			return nil, fmt.Errorf("unmarshal action at quarter %d: %w", r.Quarter, err)
		}
		if err := json.Unmarshal([]byte(r.State), &rec.State); err != nil {
			return nil, fmt.Errorf("unmarshal state at quarter %d: %w", r.Quarter, err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
		out = append(out, rec)
	}
	return out, nil
}
