// Package store keeps named quota frames in SQLite.
//
// Each frame is stored twice: as its encoded document, which is what Get
// returns, and flattened into frame_nodes with one row per variable and level
// so frames can be inspected with plain SQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agentic-research/quotaframe/internal/codec"
	"github.com/agentic-research/quotaframe/internal/quota"
	"github.com/agentic-research/quotaframe/internal/validate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for frame names that are not in the store.
var ErrNotFound = errors.New("frame not found")

const schema = `
CREATE TABLE IF NOT EXISTS frames (
	name TEXT PRIMARY KEY,
	document JSON NOT NULL,
	is_valid INTEGER NOT NULL,
	error_count INTEGER NOT NULL,
	node_count INTEGER NOT NULL,
	updated INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS frame_nodes (
	frame TEXT NOT NULL REFERENCES frames(name) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	id TEXT NOT NULL,
	parent_id TEXT,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	definition_id TEXT NOT NULL,
	is_hidden INTEGER NOT NULL,
	target INTEGER,
	max_target INTEGER,
	max_overshoot INTEGER,
	PRIMARY KEY (frame, seq)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_frame_nodes_id ON frame_nodes(frame, id);
`

// Node kinds as stored in frame_nodes.kind.
const (
	KindVariable = "variable"
	KindLevel    = "level"
)

// Summary describes a stored frame.
type Summary struct {
	Name       string
	Valid      bool
	ErrorCount int
	NodeCount  int
	Updated    time.Time
}

// Node is one row of frame_nodes. Target fields are nil for variables.
type Node struct {
	Seq          int
	ID           string
	ParentID     string
	Kind         string
	Name         string
	DefinitionID string
	Hidden       bool
	Target       *int
	MaxTarget    *int
	MaxOvershoot *int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithValidator sets the validator used by Put.
func WithValidator(v *validate.Validator) Option {
	return func(s *Store) { s.validator = v }
}

// Store is a SQLite-backed frame store. It is safe for concurrent use.
type Store struct {
	db        *sql.DB
	logger    *zap.Logger
	validator *validate.Validator
	mu        sync.Mutex
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection keeps the foreign_keys pragma in effect
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db, logger: zap.NewNop(), validator: validate.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put validates f and stores it under name, replacing any previous frame of
// that name. Invalid frames are stored too; the result says whether f passed.
func (s *Store) Put(ctx context.Context, name string, f *quota.Frame) (validate.Result, error) {
	if name == "" {
		return validate.Result{}, errors.New("frame name must not be empty")
	}
	res := s.validator.Validate(f)
	doc, err := codec.Marshal(f, codec.Options{})
	if err != nil {
		return res, err
	}
	rows := flatten(f)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	// 1. Replace the frame row
	if _, err := tx.ExecContext(ctx, "DELETE FROM frame_nodes WHERE frame = ?", name); err != nil {
		return res, fmt.Errorf("clear nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO frames (name, document, is_valid, error_count, node_count, updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		name, string(doc), res.IsValid, len(res.Errors), len(rows), time.Now().Unix(),
	); err != nil {
		return res, fmt.Errorf("insert frame: %w", err)
	}

	// 2. Flattened nodes
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO frame_nodes (frame, seq, id, parent_id, kind, name, definition_id, is_hidden, target, max_target, max_overshoot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return res, fmt.Errorf("prepare nodes: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, n := range rows {
		if _, err := stmt.ExecContext(ctx, name, n.Seq, n.ID, nullString(n.ParentID), n.Kind, n.Name,
			n.DefinitionID, n.Hidden, n.Target, n.MaxTarget, n.MaxOvershoot); err != nil {
			return res, fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("frame stored",
		zap.String("name", name),
		zap.Bool("valid", res.IsValid),
		zap.Int("errors", len(res.Errors)),
		zap.Int("nodes", len(rows)),
	)
	return res, nil
}

// Get decodes the frame stored under name.
func (s *Store) Get(ctx context.Context, name string) (*quota.Frame, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM frames WHERE name = ?", name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", name, err)
	}
	return codec.Unmarshal([]byte(doc), codec.Options{})
}

// List returns a summary of every stored frame ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, is_valid, error_count, node_count, updated FROM frames ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updated int64
		if err := rows.Scan(&sum.Name, &sum.Valid, &sum.ErrorCount, &sum.NodeCount, &updated); err != nil {
			return nil, err
		}
		sum.Updated = time.Unix(updated, 0)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Nodes returns the flattened rows of the named frame in traversal order.
func (s *Store) Nodes(ctx context.Context, name string) ([]Node, error) {
	if err := s.exists(ctx, name); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, COALESCE(parent_id, ''), kind, name, definition_id, is_hidden, target, max_target, max_overshoot
		FROM frame_nodes WHERE frame = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("nodes of %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var out []Node
	for rows.Next() {
		var n Node
		var target, maxTarget, maxOvershoot sql.NullInt64
		if err := rows.Scan(&n.Seq, &n.ID, &n.ParentID, &n.Kind, &n.Name, &n.DefinitionID, &n.Hidden,
			&target, &maxTarget, &maxOvershoot); err != nil {
			return nil, err
		}
		n.Target = intPtr(target)
		n.MaxTarget = intPtr(maxTarget)
		n.MaxOvershoot = intPtr(maxOvershoot)
		out = append(out, n)
	}
	return out, rows.Err()
}

// Delete removes the named frame and its nodes.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM frames WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	s.logger.Info("frame deleted", zap.String("name", name))
	return nil
}

func (s *Store) exists(ctx context.Context, name string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM frames WHERE name = ?", name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return err
}

// flatten lists every node of f in walk order. Walk visits parents first, so
// each node's parent is recorded before the node itself is reached.
func flatten(f *quota.Frame) []Node {
	var out []Node
	parents := make(map[any]string)
	f.Walk(func(v *quota.FrameVariable) {
		for _, l := range v.Levels {
			parents[l] = v.ID.String()
		}
		out = append(out, Node{
			Seq:          len(out),
			ID:           v.ID.String(),
			ParentID:     parents[v],
			Kind:         KindVariable,
			Name:         v.Name,
			DefinitionID: v.DefinitionID.String(),
			Hidden:       v.IsHidden,
		})
	}, func(l *quota.FrameLevel) {
		for _, v := range l.Variables {
			parents[v] = l.ID.String()
		}
		out = append(out, Node{
			Seq:          len(out),
			ID:           l.ID.String(),
			ParentID:     parents[l],
			Kind:         KindLevel,
			Name:         l.Name,
			DefinitionID: l.DefinitionID.String(),
			Hidden:       l.IsHidden,
			Target:       l.Target,
			MaxTarget:    l.MaxTarget,
			MaxOvershoot: l.MaxOvershoot,
		})
	})
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
