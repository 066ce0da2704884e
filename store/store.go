package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultListLimit applies when a list call asks for zero or fewer rows.
const DefaultListLimit = 100

type Store struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
	log   *zap.Logger
}

type Option func(*Store)

// WithClock overrides the source of record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithIDGenerator overrides how prediction ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns a disconnected session bound to this store.
func (s *Store) Session() *Session {
	return &Session{store: s}
}

// WithSession opens a session, runs fn and closes the session on every path.
func (s *Store) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	sess := s.Session()
	if err := sess.Open(ctx); err != nil {
		return err
	}
	defer func() {
		err = closeAfter(s.log, err, sess.Close())
	}()
	return fn(sess)
}

// closeAfter keeps the outcome of the unit of work. A close failure after a
// successful unit is logged only: its writes are already committed.
func closeAfter(log *zap.Logger, fnErr, closeErr error) error {
	if closeErr == nil {
		return fnErr
	}
	if fnErr != nil {
		log.Warn("Failed to close store session", zap.NamedError("cause", fnErr), zap.Error(closeErr))
		return fnErr
	}
	log.Warn("Failed to close store session after committed work", zap.Error(closeErr))
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return &Error{Op: "ping", Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &Error{Op: "ping", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
