package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"text-analysis-api/models"
)

// Session is a connection pinned for one request. A fresh session is
// disconnected; Open connects it and Close releases the connection.
type Session struct {
	store *Store

	mu   sync.Mutex
	conn *sql.Conn
	db   *gorm.DB
}

func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	sqlDB, err := s.store.db.DB()
	if err != nil {
		return &Error{Op: "open", Err: err}
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return &Error{Op: "open", Err: err}
	}

	db := s.store.db.Session(&gorm.Session{Context: ctx, NewDB: true})
	db.Statement.ConnPool = conn

	s.conn = conn
	s.db = db
	return nil
}

// Close releases the pinned connection. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.db = nil
	if err != nil && !errors.Is(err, sql.ErrConnDone) {
		return &Error{Op: "close", Err: err}
	}
	return nil
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Insert assigns the record a fresh id and timestamp and writes it in its own
// transaction. On failure the record is left unstamped and nothing is written.
func (s *Session) Insert(ctx context.Context, rec models.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return "", ErrNotConnected
	}

	id := s.store.newID()
	// timestamptz resolution
	rec.Stamp(id, s.store.now().UTC().Truncate(time.Microsecond))

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		rec.Stamp("", time.Time{})
		return "", &Error{Op: "insert", Table: rec.TableName(), Err: tx.Error}
	}
	if err := tx.Create(rec).Error; err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
		rec.Stamp("", time.Time{})
		return "", &Error{Op: "insert", Table: rec.TableName(), Err: err}
	}
	if err := tx.Commit().Error; err != nil {
		rec.Stamp("", time.Time{})
		return "", &Error{Op: "commit", Table: rec.TableName(), Err: err}
	}
	return id, nil
}

func (s *Session) ListConsistency(ctx context.Context, limit int) ([]models.ConsistencyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrNotConnected
	}
	return listRecent[models.ConsistencyResult](ctx, s.db, models.ConsistencyResult{}.TableName(), limit)
}

func (s *Session) ListGibberish(ctx context.Context, limit int) ([]models.GibberishResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, ErrNotConnected
	}
	return listRecent[models.GibberishResult](ctx, s.db, models.GibberishResult{}.TableName(), limit)
}

func listRecent[T any](ctx context.Context, db *gorm.DB, table string, limit int) ([]T, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var rows []T
	err := db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, &Error{Op: "list", Table: table, Err: err}
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}
