package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/riskbox/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tool_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			box_left_x REAL NOT NULL,
			box_width REAL NOT NULL,
			entry_price REAL NOT NULL,
			stop_price REAL NOT NULL,
			target_price REAL NOT NULL,
			visible BOOLEAN NOT NULL DEFAULT 1,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS order_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			label TEXT NOT NULL,
			action TEXT NOT NULL,
			order_type TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			limit_price REAL NOT NULL DEFAULT 0,
			stop_price REAL NOT NULL DEFAULT 0,
			fill_price REAL NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			link_id TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_order_journal_order_id ON order_journal(order_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ToolStateRepository implementation

func (s *SQLiteStore) SaveToolState(ctx context.Context, state *domain.ToolState) error {
	query := `INSERT OR REPLACE INTO tool_state (id, box_left_x, box_width, entry_price, stop_price, target_price, visible, updated_at)
			  VALUES (1, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		state.BoxLeftX, state.BoxWidth, state.EntryPrice, state.StopPrice,
		state.TargetPrice, state.Visible, state.UpdatedAt)
	return err
}

func (s *SQLiteStore) LoadToolState(ctx context.Context) (*domain.ToolState, error) {
	query := `SELECT box_left_x, box_width, entry_price, stop_price, target_price, visible, updated_at FROM tool_state WHERE id = 1`
	row := s.db.QueryRowContext(ctx, query)

	var st domain.ToolState
	err := row.Scan(&st.BoxLeftX, &st.BoxWidth, &st.EntryPrice, &st.StopPrice, &st.TargetPrice, &st.Visible, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// OrderJournal implementation

func (s *SQLiteStore) RecordOrder(ctx context.Context, entry *domain.JournalEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	query := `INSERT INTO order_journal (order_id, label, action, order_type, quantity, limit_price, stop_price, fill_price, state, link_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		entry.OrderID, entry.Label, entry.Action, entry.OrderType, entry.Quantity,
		entry.LimitPrice, entry.StopPrice, entry.FillPrice, entry.State, entry.LinkID, entry.CreatedAt)
	return err
}

func (s *SQLiteStore) UpdateOrderState(ctx context.Context, orderID string, state domain.OrderState, fillPrice float64) error {
	query := `UPDATE order_journal SET state = ?, fill_price = ? WHERE order_id = ?`
	_, err := s.db.ExecContext(ctx, query, state, fillPrice, orderID)
	return err
}

func (s *SQLiteStore) ListOrders(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	query := `SELECT id, order_id, label, action, order_type, quantity, limit_price, stop_price, fill_price, state, link_id, created_at
			  FROM order_journal ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Label, &e.Action, &e.OrderType, &e.Quantity,
			&e.LimitPrice, &e.StopPrice, &e.FillPrice, &e.State, &e.LinkID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
