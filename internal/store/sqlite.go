package store

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourorg/apidecl/pkg/types"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS interfaces (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			req_body_type TEXT NOT NULL,
			req_schema TEXT NOT NULL,
			req_is_schema INTEGER NOT NULL,
			res_body_type TEXT NOT NULL,
			res_schema TEXT NOT NULL,
			res_is_schema INTEGER NOT NULL,
			fetched_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snippets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			ref TEXT NOT NULL,
			body TEXT NOT NULL,
			top_name TEXT NOT NULL,
			discard_top INTEGER NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snippets_ref ON snippets(source, ref);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const interfaceColumns = `id,project_id,title,method,path,req_body_type,req_schema,req_is_schema,res_body_type,res_schema,res_is_schema,fetched_at`

func (s *SQLiteStore) SaveInterface(itf *types.Interface) error {
	if itf.FetchedAt.IsZero() {
		itf.FetchedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO interfaces(`+interfaceColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(id) DO UPDATE SET project_id=excluded.project_id,title=excluded.title,method=excluded.method,path=excluded.path,req_body_type=excluded.req_body_type,req_schema=excluded.req_schema,req_is_schema=excluded.req_is_schema,res_body_type=excluded.res_body_type,res_schema=excluded.res_schema,res_is_schema=excluded.res_is_schema,fetched_at=excluded.fetched_at`,
		itf.ID, itf.ProjectID, itf.Title, itf.Method, itf.Path, itf.ReqBodyType, itf.ReqSchema, itf.ReqIsSchema, itf.ResBodyType, itf.ResSchema, itf.ResIsSchema, itf.FetchedAt)
	return err
}

func (s *SQLiteStore) GetInterface(id int64) (*types.Interface, error) {
	row := s.db.QueryRow(`SELECT `+interfaceColumns+` FROM interfaces WHERE id=?`, id)
	itf, err := scanInterface(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return itf, err
}

func (s *SQLiteStore) ListInterfaces() ([]types.Interface, error) {
	rows, err := s.db.Query(`SELECT ` + interfaceColumns + ` FROM interfaces ORDER BY project_id ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Interface
	for rows.Next() {
		itf, err := scanInterface(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *itf)
	}
	return out, rows.Err()
}

// DeleteInterface removes the interface and every snippet generated from it.
func (s *SQLiteStore) DeleteInterface(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM snippets WHERE source=? AND ref=?`, types.SourceYApi, strconv.FormatInt(id, 10)); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM interfaces WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveSnippet(sn *types.Snippet) error {
	if sn.CreatedAt.IsZero() {
		sn.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`INSERT INTO snippets(source,ref,body,top_name,discard_top,text,created_at) VALUES(?,?,?,?,?,?,?)`,
		sn.Source, sn.Ref, string(sn.Body), sn.TopName, sn.DiscardTop, sn.Text, sn.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sn.ID = id
	return nil
}

func (s *SQLiteStore) GetSnippet(id int64) (*types.Snippet, error) {
	row := s.db.QueryRow(`SELECT id,source,ref,body,top_name,discard_top,text,created_at FROM snippets WHERE id=?`, id)
	sn, err := scanSnippet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sn, err
}

func (s *SQLiteStore) ListSnippets() ([]types.Snippet, error) {
	rows, err := s.db.Query(`SELECT id,source,ref,body,top_name,discard_top,text,created_at FROM snippets ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sn)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return errors.New("store is nil")
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInterface(row scanner) (*types.Interface, error) {
	var out types.Interface
	if err := row.Scan(&out.ID, &out.ProjectID, &out.Title, &out.Method, &out.Path, &out.ReqBodyType, &out.ReqSchema, &out.ReqIsSchema, &out.ResBodyType, &out.ResSchema, &out.ResIsSchema, &out.FetchedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func scanSnippet(row scanner) (*types.Snippet, error) {
	var out types.Snippet
	var body string
	if err := row.Scan(&out.ID, &out.Source, &out.Ref, &body, &out.TopName, &out.DiscardTop, &out.Text, &out.CreatedAt); err != nil {
		return nil, err
	}
	out.Body = types.Body(body)
	return &out, nil
}
