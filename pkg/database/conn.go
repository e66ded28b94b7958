package database

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ScopedConn holds a single dedicated connection taken from the pool on first
// use and handed back on Close. Acquire after Close takes a fresh connection.
type ScopedConn struct {
	db     DB
	logger ectologger.Logger
	name   string

	mu   sync.Mutex
	conn *sqlx.Conn
}

func NewScopedConn(db DB, name string, logger ectologger.Logger) *ScopedConn {
	return &ScopedConn{
		db:     db,
		name:   name,
		logger: logger,
	}
}

func (s *ScopedConn) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return s.conn, nil
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("conn", s.name).Error("Failed to acquire database connection")
		return nil, errors.Wrap(err, "failed to acquire "+s.name+" connection")
	}

	s.logger.WithContext(ctx).WithField("conn", s.name).Debug("Acquired database connection")
	s.conn = conn
	return conn, nil
}

// Close releases the connection. Calling it when nothing is held is a no-op.
func (s *ScopedConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		s.logger.WithError(err).WithField("conn", s.name).Warn("Error while releasing database connection")
		return errors.Wrap(err, "failed to release "+s.name+" connection")
	}
	s.logger.WithField("conn", s.name).Debug("Released database connection")
	return nil
}
