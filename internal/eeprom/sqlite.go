package eeprom

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists bytes in a single-table sqlite database. Absent
// addresses read as 0.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS nvram (
		addr INTEGER PRIMARY KEY,
		value INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create nvram table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ReadByte(addr int) (byte, error) {
	var v int
	err := s.db.QueryRow(`SELECT value FROM nvram WHERE addr = ?`, addr).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read addr %d: %w", addr, err)
	}
	return byte(v), nil
}

func (s *SQLiteStore) WriteByte(addr int, val byte) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO nvram (addr, value) VALUES (?, ?)`, addr, val)
	if err != nil {
		return fmt.Errorf("failed to write addr %d: %w", addr, err)
	}
	return nil
}

// Dump returns every stored byte keyed by address.
func (s *SQLiteStore) Dump() (map[int]byte, error) {
	rows, err := s.db.Query(`SELECT addr, value FROM nvram ORDER BY addr`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump nvram: %w", err)
	}
	defer rows.Close()

	out := make(map[int]byte)
	for rows.Next() {
		var addr, v int
		if err := rows.Scan(&addr, &v); err != nil {
			return nil, fmt.Errorf("failed to scan nvram row: %w", err)
		}
		out[addr] = byte(v)
	}
	return out, rows.Err()
}

// Reset zeroes every stored byte.
func (s *SQLiteStore) Reset() error {
	_, err := s.db.Exec(`UPDATE nvram SET value = 0`)
	if err != nil {
		return fmt.Errorf("failed to reset nvram: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
