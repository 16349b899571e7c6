package assetstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/wippyai/sim-bridge/errors"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const schema = `CREATE TABLE IF NOT EXISTS templates (
	kind    TEXT NOT NULL,
	name    TEXT NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (kind, name)
)`

// SQLiteStore keeps templates as JSON payloads in a single table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates a database at path. ":memory:" opens a
// private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.InvalidInput(errors.PhaseStore, "asset database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.Store("create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Store("open sqlite", err)
	}
	// SQLite works best with a single writer; it also keeps ":memory:" on
	// one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Store("create templates table", err)
	}
	Logger().Debug("asset database opened", zap.String("path", path))
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return errors.Store("encode template", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (kind, name, payload) VALUES (?, ?, ?)
		 ON CONFLICT (kind, name) DO UPDATE SET payload = excluded.payload`,
		string(r.Kind), r.Name, payload)
	if err != nil {
		return errors.Store("upsert template", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, kind Kind, name string) (Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM templates WHERE kind = ? AND name = ?`,
		string(kind), name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, errors.NotFound(errors.PhaseStore, string(kind), name)
	}
	if err != nil {
		return Record{}, errors.Store("select template", err)
	}
	return decode(payload)
}

func (s *SQLiteStore) Delete(ctx context.Context, kind Kind, name string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM templates WHERE kind = ? AND name = ?`,
		string(kind), name)
	if err != nil {
		return errors.Store("delete template", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NotFound(errors.PhaseStore, string(kind), name)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM templates ORDER BY kind, name`)
	if err != nil {
		return nil, errors.Store("select templates", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Store("scan template", err)
		}
		r, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Store("iterate templates", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decode(payload []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(payload, &r); err != nil {
		return Record{}, errors.Store("decode template", err)
	}
	return r, r.Validate()
}
