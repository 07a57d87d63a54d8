/*
This file contains the plan journal: a SQLite record of every
transaction the engine broadcast, for audit and reporting.

The journal is write-mostly. It records what was actually sent (txid,
amounts, fee, shape), never intent: a plan that failed before broadcast
leaves no entry.
*/
package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/trumpow/txcraft/database"
)

// Entry is one broadcast attempt.
type Entry struct {
	ID         int64
	TxID       string // empty when the broadcast failed
	Kind       string // KindPayment or KindConsolidation
	Status     string // StatusBroadcast or StatusFailed
	TotalInput int64
	OutputSum  int64
	Fee        int64
	NumInputs  int
	NumOutputs int
	CreatedAt  time.Time
}

// Entry kinds.
const (
	KindPayment       = "payment"
	KindConsolidation = "consolidation"
)

// Entry statuses.
const (
	StatusBroadcast = "broadcast"
	StatusFailed    = "failed"
)

// Store persists entries in SQLite.
type Store struct {
	db    *sql.DB
	stmts *database.StmtCache
}

// NewStore opens (creating if needed) the journal database at
// dbFilePath.
func NewStore(dbFilePath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbFilePath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, stmts: database.NewStmtCache(db)}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS plan_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tx_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		total_input INTEGER,
		output_sum INTEGER,
		fee INTEGER,
		num_inputs INTEGER,
		num_outputs INTEGER,
		created_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_journal_tx_id ON plan_journal (tx_id);
	`
	_, err := s.db.Exec(query)
	return err
}

// Record inserts an entry. CreatedAt and Status get defaults when
// unset.
func (s *Store) Record(e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusBroadcast
	}
	stmt, err := s.stmts.Prepare(`
	INSERT INTO plan_journal (tx_id, kind, status, total_input, output_sum, fee, num_inputs, num_outputs, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return err
	}
	res, err := stmt.Exec(e.TxID, e.Kind, e.Status, e.TotalInput, e.OutputSum, e.Fee,
		e.NumInputs, e.NumOutputs, e.CreatedAt.Unix())
	if err != nil {
		return err
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	stmt, err := s.stmts.Prepare(`
	SELECT id, tx_id, kind, status, total_input, output_sum, fee, num_inputs, num_outputs, created_at
	FROM plan_journal
	ORDER BY id DESC
	LIMIT ?;
	`)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.TxID, &e.Kind, &e.Status, &e.TotalInput, &e.OutputSum,
			&e.Fee, &e.NumInputs, &e.NumOutputs, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByTxID returns the entry for a txid, or nil when absent.
func (s *Store) ByTxID(txid string) (*Entry, error) {
	stmt, err := s.stmts.Prepare(`
	SELECT id, tx_id, kind, status, total_input, output_sum, fee, num_inputs, num_outputs, created_at
	FROM plan_journal
	WHERE tx_id = ?;
	`)
	if err != nil {
		return nil, err
	}
	var e Entry
	var created int64
	err = stmt.QueryRow(txid).Scan(&e.ID, &e.TxID, &e.Kind, &e.Status, &e.TotalInput,
		&e.OutputSum, &e.Fee, &e.NumInputs, &e.NumOutputs, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = time.Unix(created, 0).UTC()
	return &e, nil
}

// Close releases the prepared statements and the underlying database.
func (s *Store) Close() error {
	s.stmts.Clear()
	return s.db.Close()
}
