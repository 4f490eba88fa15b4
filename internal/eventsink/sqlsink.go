package eventsink

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/loykin/svcsuper/internal/supervisor"
)

// SQLSink writes lifecycle events into a service_events table, ported from
// internal/history/sqlsink.go's dialect-sniffing-by-DSN-prefix approach and
// the same SQLite/Postgres dual support. The schema is relabeled from
// process_history's PID/running/exit_err columns to the opaque-service
// event shape (kind, attempt, delay_ms, err).
type SQLSink struct {
	db      *sql.DB
	dialect string
}

// NewSQLSinkFromDSN mirrors internal/history/sqlsink.go's DSN sniffing:
// "postgres://"/"postgresql://" selects pgx, "sqlite://" or a bare path
// selects modernc.org/sqlite.
func NewSQLSinkFromDSN(dsn string) (*SQLSink, error) {
	d := strings.TrimSpace(dsn)
	if d == "" {
		return nil, errors.New("eventsink: empty DSN")
	}
	ld := strings.ToLower(d)

	var drv, dialect, path string
	switch {
	case strings.HasPrefix(ld, "postgres://"), strings.HasPrefix(ld, "postgresql://"):
		drv, dialect, path = "pgx", "postgres", d
	case strings.HasPrefix(ld, "sqlite://"):
		drv, dialect, path = "sqlite", "sqlite", strings.TrimPrefix(d, "sqlite://")
	default:
		drv, dialect, path = "sqlite", "sqlite", d
	}

	db, err := sql.Open(drv, path)
	if err != nil {
		return nil, err
	}
	s := &SQLSink{db: db, dialect: dialect}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLSink) ensureSchema(ctx context.Context) error {
	var stmts []string
	if s.dialect == "sqlite" {
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS service_events(
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_id TEXT NOT NULL,
				occurred_at TIMESTAMP NOT NULL,
				kind TEXT NOT NULL,
				name TEXT NOT NULL,
				attempt INTEGER NOT NULL,
				delay_ms INTEGER NOT NULL,
				err TEXT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_service_events_name ON service_events(name);`,
			`CREATE INDEX IF NOT EXISTS idx_service_events_kind ON service_events(kind);`,
		}
	} else {
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS service_events(
				id BIGSERIAL PRIMARY KEY,
				event_id TEXT NOT NULL,
				occurred_at TIMESTAMPTZ NOT NULL,
				kind TEXT NOT NULL,
				name TEXT NOT NULL,
				attempt INTEGER NOT NULL,
				delay_ms BIGINT NOT NULL,
				err TEXT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_service_events_name ON service_events(name);`,
			`CREATE INDEX IF NOT EXISTS idx_service_events_kind ON service_events(kind);`,
		}
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLSink) Send(ctx context.Context, e supervisor.LifecycleEvent) error {
	var errText interface{}
	if e.Err != nil {
		errText = e.Err.Error()
	}

	if s.dialect == "sqlite" {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO service_events(event_id, occurred_at, kind, name, attempt, delay_ms, err)
			VALUES(?, ?, ?, ?, ?, ?, ?);`,
			e.ID, e.Timestamp, string(e.Kind), e.Name, e.Attempt, e.DelayMs, errText)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_events(event_id, occurred_at, kind, name, attempt, delay_ms, err)
		VALUES($1,$2,$3,$4,$5,$6,$7);`,
		e.ID, e.Timestamp, string(e.Kind), e.Name, e.Attempt, e.DelayMs, errText)
	return err
}

func (s *SQLSink) Close() error { return s.db.Close() }
