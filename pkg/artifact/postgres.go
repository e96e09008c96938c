package artifact

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	xe "github.com/opst/tabserve/pkg/errors"
)

// something sending query with SQL.
//
// this is extracted interface from `pgxpool.Pool`, `pgxpool.Conn` and `pgx.Tx`.
type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresStore is a Store on the table "model_artifact".
type PostgresStore struct {
	q     Queryer
	close func()
}

var _ Store = &PostgresStore{}

const createTable = `
CREATE TABLE IF NOT EXISTS "model_artifact" (
	"name" varchar PRIMARY KEY,
	"body" bytea NOT NULL,
	"updated_at" timestamp with time zone NOT NULL DEFAULT now()
)`

// ConnectPostgres connects to postgres at uri, and returns PostgresStore on it.
func ConnectPostgres(ctx context.Context, uri string) (*PostgresStore, error) {
	pool, err := pgxpool.Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{q: pool, close: pool.Close}, nil
}

// NewPostgresStore creates PostgresStore with a connection given.
//
// The connection is not closed by Close.
func NewPostgresStore(q Queryer) *PostgresStore {
	return &PostgresStore{q: q, close: func() {}}
}

func (s *PostgresStore) Close() {
	s.close()
}

func (s *PostgresStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == "" {
		return nil, xe.Wrapf(xe.ErrArtifactLoad, "no serialized model name provided")
	}

	var body []byte
	if err := s.q.QueryRow(
		ctx, `SELECT "body" FROM "model_artifact" WHERE "name" = $1`, name,
	).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xe.Wrapf(xe.ErrArtifactLoad, `artifact "%s" is not found`, name)
		}
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
			if pgerr.Code == pgerrcode.UndefinedTable {
				return nil, xe.Wrap(
					xe.ErrArtifactLoad,
					`table "model_artifact" does not exist. publish an artifact first`, err,
				)
			}
		}
		return nil, xe.Wrap(xe.ErrArtifactLoad, `artifact "`+name+`" is not readable`, err)
	}

	return io.NopCloser(bytes.NewReader(body)), nil
}

// Put stores an artifact, replacing one with the same name.
//
// The content is verified by Load before storing.
func (s *PostgresStore) Put(ctx context.Context, name string, body []byte) error {
	if _, _, err := Load(bytes.NewReader(body)); err != nil {
		return err
	}
	if _, err := s.q.Exec(ctx, createTable); err != nil {
		return err
	}
	_, err := s.q.Exec(
		ctx,
		`INSERT INTO "model_artifact" ("name", "body") VALUES ($1, $2)
		ON CONFLICT ("name") DO UPDATE SET "body" = EXCLUDED."body", "updated_at" = now()`,
		name, body,
	)
	return err
}
