/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package journal appends executed, undone and redone commands to a SQL
// table. The embedded SQLite driver is the default; a shared Postgres
// database is reached through pgx.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"godiagram/internal/command"
	applog "godiagram/internal/log"
	"godiagram/internal/version"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

const schemaVersion = 1

//go:embed schema/*.sql
var schemaFS embed.FS

// Entry is one journal row.
type Entry struct {
	ID          int64
	Time        time.Time
	Session     string
	Diagram     string
	Kind        string
	Description string
	Permission  string
	ShapeIDs    []int
}

// Journal is safe for concurrent use; database/sql serializes access.
type Journal struct {
	db      *sql.DB
	driver  string
	session string
	log     *slog.Logger
}

// Open connects to the journal database and ensures the schema. For the
// sqlite driver dsn is a file path; its directory is created.
func Open(ctx context.Context, driver, dsn string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("journal"), "open").With(slog.String("driver", driver))
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("journal dsn is required")
	}
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		db, err = openSQLite(ctx, dsn)
	case DriverPostgres:
		db, err = openPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
	if err != nil {
		l.Error("journal open failed", slog.Any("err", err))
		return nil, err
	}
	j := &Journal{db: db, driver: driver, session: uuid.NewString(), log: applog.WithComponent("journal")}
	if err := j.ensureSchema(ctx); err != nil {
		_ = db.Close()
		l.Error("ensure journal schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("journal ready", slog.String("session", j.session))
	return j, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func (j *Journal) schemaFile() string {
	if j.driver == DriverPostgres {
		return "schema/postgres.sql"
	}
	return "schema/sqlite.sql"
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile(j.schemaFile())
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	for _, q := range strings.Split(string(ddl), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err = j.db.QueryRowContext(ctx, j.rebind(`SELECT schema FROM journal_meta WHERE id=1`)).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = j.db.ExecContext(ctx, j.rebind(`INSERT INTO journal_meta (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`),
			schemaVersion, version.String(), now, now)
		if err != nil {
			return fmt.Errorf("insert journal meta: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read journal meta: %w", err)
	case cur > schemaVersion:
		return fmt.Errorf("journal schema %d is newer than supported %d", cur, schemaVersion)
	default:
		if _, err := j.db.ExecContext(ctx, j.rebind(`UPDATE journal_meta SET app=?, updated_at=? WHERE id=1`), version.String(), now); err != nil {
			return fmt.Errorf("update journal meta: %w", err)
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for Postgres.
func (j *Journal) rebind(q string) string {
	if j.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Session identifies the entries written through this handle.
func (j *Journal) Session() string { return j.session }

// Record appends e. A zero Time is replaced with the current time and an
// empty Session with the session of j.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Session == "" {
		e.Session = j.session
	}
	ids := make([]string, len(e.ShapeIDs))
	for i, id := range e.ShapeIDs {
		ids[i] = strconv.Itoa(id)
	}
	_, err := j.db.ExecContext(ctx,
		j.rebind(`INSERT INTO journal (recorded_at, session, diagram, kind, description, permission, shapes) VALUES(?, ?, ?, ?, ?, ?, ?)`),
		e.Time.UTC().Format(time.RFC3339Nano), e.Session, e.Diagram, e.Kind, e.Description, e.Permission, strings.Join(ids, ","))
	if err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := j.db.QueryContext(ctx,
		j.rebind(`SELECT id, recorded_at, session, diagram, kind, description, permission, shapes FROM journal ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			j.log.Warn("rows close", slog.Any("err", err))
		}
	}()
	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			stamp  string
			shapes string
		)
		if err := rows.Scan(&e.ID, &stamp, &e.Session, &e.Diagram, &e.Kind, &e.Description, &e.Permission, &shapes); err != nil {
			return nil, err
		}
		if e.Time, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
			return nil, fmt.Errorf("journal entry %d: %w", e.ID, err)
		}
		for _, s := range strings.Split(shapes, ",") {
			if id, err := strconv.Atoi(s); err == nil {
				e.ShapeIDs = append(e.ShapeIDs, id)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Listener returns an executor listener recording every event for the
// named diagram. Write errors are logged, never propagated.
func (j *Journal) Listener(diagramName string) command.Listener {
	return func(kind command.EventKind, c command.Command) {
		e := Entry{
			Diagram:     diagramName,
			Kind:        kind.String(),
			Description: c.Description(),
			Permission:  c.RequiredPermission().String(),
		}
		for _, s := range c.Shapes() {
			e.ShapeIDs = append(e.ShapeIDs, s.ID())
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := j.Record(ctx, e); err != nil {
			j.log.Error("journal write failed", slog.String("cmd", e.Description), slog.Any("err", err))
		}
	}
}

// Close releases the database.
func (j *Journal) Close() error { return j.db.Close() }
