package db

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Store handles all database operations with a shared connection pool.
// Multi-statement mutations run inside an explicit transaction via withTx;
// rollback is guaranteed on every non-commit exit path.
type Store struct {
	db *sql.DB
}

func NewStore(database string) (*Store, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.WithFields(log.Fields{"error": rbErr}).Error("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
