package storage

import (
	"context"
	"database/sql"
	"errors"
)

// SlotsSchema creates the table SQLSlotStore uses.
const SlotsSchema = `CREATE TABLE IF NOT EXISTS storage_slots (
    session_id VARCHAR(64)  NOT NULL,
    slot_name  VARCHAR(64)  NOT NULL,
    value      MEDIUMBLOB   NOT NULL,
    updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (session_id, slot_name)
)`

// SQLSlotStore keeps slots in a MySQL table.
type SQLSlotStore struct {
	DB *sql.DB
}

func NewSQLSlotStore(db *sql.DB) *SQLSlotStore { return &SQLSlotStore{DB: db} }

// EnsureSchema creates the slots table when it does not exist.
func (s *SQLSlotStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, SlotsSchema)
	return err
}

func (s *SQLSlotStore) Get(ctx context.Context, sessionID, name string) ([]byte, error) {
	var v []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM storage_slots WHERE session_id = ? AND slot_name = ?`,
		sessionID, name,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLSlotStore) Set(ctx context.Context, sessionID, name string, value []byte) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO storage_slots (session_id, slot_name, value) VALUES (?, ?, ?)
         ON DUPLICATE KEY UPDATE value = VALUES(value)`,
		sessionID, name, value,
	)
	return err
}

func (s *SQLSlotStore) Delete(ctx context.Context, sessionID, name string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM storage_slots WHERE session_id = ? AND slot_name = ?`,
		sessionID, name,
	)
	return err
}
