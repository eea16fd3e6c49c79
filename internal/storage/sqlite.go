package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"faultline/internal/cds"
	"faultline/internal/comptree"
	"faultline/internal/event"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			trace_path TEXT,
			verdict TEXT NOT NULL DEFAULT 'unresolved',
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL,
			id INTEGER NOT NULL,
			parent INTEGER NOT NULL,
			kind INTEGER NOT NULL,
			payload TEXT,
			call_stack JSON,
			PRIMARY KEY (session_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS vertices (
			session_id TEXT NOT NULL,
			id INTEGER NOT NULL,
			label TEXT,
			equation TEXT,
			call_stack JSON,
			tree_root INTEGER,
			judgement TEXT NOT NULL DEFAULT 'unassessed',
			PRIMARY KEY (session_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS arcs (
			session_id TEXT NOT NULL,
			from_id INTEGER NOT NULL,
			to_id INTEGER NOT NULL,
			PRIMARY KEY (session_id, from_id, to_id)
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, tracePath string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, trace_path) VALUES (?, ?)`, id, tracePath)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) SaveEvents(ctx context.Context, sessionID string, events []*event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (session_id, id, parent, kind, payload, call_stack) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		stack, err := json.Marshal(e.CallStack)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, sessionID, int64(e.ID), int64(e.Parent), int(e.Kind), e.Payload, string(stack)); err != nil {
			return fmt.Errorf("failed to save event %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadEvents(ctx context.Context, sessionID string) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent, kind, payload, call_stack FROM events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		var (
			id, parent int64
			kind       int
			payload    string
			stackJSON  string
		)
		if err := rows.Scan(&id, &parent, &kind, &payload, &stackJSON); err != nil {
			return nil, err
		}
		var stack []string
		if stackJSON != "" {
			if err := json.Unmarshal([]byte(stackJSON), &stack); err != nil {
				return nil, err
			}
		}
		events = append(events, &event.Event{
			ID:        event.ID(id),
			Parent:    event.ID(parent),
			Kind:      event.Kind(kind),
			Payload:   payload,
			CallStack: stack,
		})
	}
	return events, rows.Err()
}

// SaveGraph stores the graph as a snapshot: previous vertices and arcs of
// the session are replaced, so the database always mirrors the graph that
// was passed in last.
func (s *SQLiteStore) SaveGraph(ctx context.Context, sessionID string, g *comptree.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vertices WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM arcs WHERE session_id = ?`, sessionID); err != nil {
		return err
	}

	for _, v := range g.Vertices() {
		if v.IsRoot() {
			continue
		}
		stack, err := json.Marshal(v.Stmt.CallStack)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vertices (session_id, id, label, equation, call_stack, tree_root, judgement) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, int(v.ID), v.Stmt.Label, v.Stmt.Equation, string(stack), int64(v.Stmt.TreeRoot), v.Judgement.String()); err != nil {
			return fmt.Errorf("failed to save vertex %d: %w", v.ID, err)
		}
	}
	for _, a := range g.Arcs() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO arcs (session_id, from_id, to_id) VALUES (?, ?, ?)`,
			sessionID, int(a.From), int(a.To)); err != nil {
			return fmt.Errorf("failed to save arc %d->%d: %w", a.From, a.To, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadGraph(ctx context.Context, sessionID string) (*comptree.Graph, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, equation, call_stack, tree_root, judgement FROM vertices WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restored []comptree.RestoredVertex
	for rows.Next() {
		var (
			id        int
			label     string
			equation  string
			stackJSON string
			treeRoot  int64
			judgement string
		)
		if err := rows.Scan(&id, &label, &equation, &stackJSON, &treeRoot, &judgement); err != nil {
			return nil, err
		}
		if id != len(restored)+1 {
			return nil, fmt.Errorf("vertex snapshot for session %s is not dense at id %d", sessionID, id)
		}
		var stack []string
		if stackJSON != "" {
			if err := json.Unmarshal([]byte(stackJSON), &stack); err != nil {
				return nil, err
			}
		}
		restored = append(restored, comptree.RestoredVertex{
			Stmt: &cds.Statement{
				Label:     label,
				CallStack: stack,
				Equation:  equation,
				TreeRoot:  event.ID(treeRoot),
			},
			Judgement: parseJudgement(judgement),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	arcRows, err := s.db.QueryContext(ctx,
		`SELECT from_id, to_id FROM arcs WHERE session_id = ? ORDER BY from_id, to_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer arcRows.Close()

	var arcs []comptree.Arc
	for arcRows.Next() {
		var from, to int
		if err := arcRows.Scan(&from, &to); err != nil {
			return nil, err
		}
		arcs = append(arcs, comptree.Arc{From: comptree.VertexID(from), To: comptree.VertexID(to)})
	}
	if err := arcRows.Err(); err != nil {
		return nil, err
	}

	return comptree.Restore(restored, arcs)
}

func (s *SQLiteStore) SaveJudgement(ctx context.Context, sessionID string, id comptree.VertexID, j comptree.Judgement) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE vertices SET judgement = ? WHERE session_id = ? AND id = ?`,
		j.String(), sessionID, int(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no stored vertex %d in session %s", id, sessionID)
	}
	return nil
}

func (s *SQLiteStore) SetVerdict(ctx context.Context, sessionID string, verdict string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET verdict = ? WHERE id = ?`, verdict, sessionID)
	return err
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(trace_path, ''), verdict, created_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.TracePath, &info.Verdict, &info.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

func parseJudgement(s string) comptree.Judgement {
	switch s {
	case "right":
		return comptree.Right
	case "wrong":
		return comptree.Wrong
	default:
		return comptree.Unassessed
	}
}
