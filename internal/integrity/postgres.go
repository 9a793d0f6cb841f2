package integrity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

// Postgres persists integrity records in a relational table. The primary key
// on trace_id makes the single-assignment invariant hold across processes:
// two writes for the same key can never both succeed.
type Postgres struct {
	db *sql.DB
}

var _ Registry = (*Postgres)(nil)

// OpenPostgres connects to the database behind the DSN.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Close releases the connection pool.
func (s *Postgres) Close() error { return s.db.Close() }

// DB exposes the pool for readiness pings.
func (s *Postgres) DB() *sql.DB { return s.db }

// EnsureSchema creates the records table when it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		create table if not exists integrity_records (
			trace_id      text primary key,
			hash_code     text not null,
			algorithm     text not null,
			content_hash  text not null,
			combined_hash text not null,
			created_at    timestamptz not null,
			file_size     bigint not null,
			owner_id      text not null,
			client_name   text not null,
			artifacts     jsonb not null
		)`)
	return err
}

func (s *Postgres) Store(ctx context.Context, rec Record) error {
	artifacts, err := json.Marshal(rec.Artifacts)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into integrity_records
			(trace_id, hash_code, algorithm, content_hash, combined_hash,
			 created_at, file_size, owner_id, client_name, artifacts)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.TraceID, rec.HashCode, rec.Algorithm, rec.ContentHash, rec.CombinedHash,
		rec.CreatedAt, rec.FileSize, rec.OwnerID, rec.ClientName, artifacts)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateTrace
		}
		return err
	}
	return nil
}

func (s *Postgres) Lookup(ctx context.Context, traceID string) (Record, error) {
	var (
		rec       Record
		artifacts []byte
	)
	err := s.db.QueryRowContext(ctx, `
		select trace_id, hash_code, algorithm, content_hash, combined_hash,
		       created_at, file_size, owner_id, client_name, artifacts
		from integrity_records where trace_id=$1`, traceID).Scan(
		&rec.TraceID, &rec.HashCode, &rec.Algorithm, &rec.ContentHash, &rec.CombinedHash,
		&rec.CreatedAt, &rec.FileSize, &rec.OwnerID, &rec.ClientName, &artifacts)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(artifacts, &rec.Artifacts); err != nil {
		return Record{}, err
	}
	return rec, nil
}
