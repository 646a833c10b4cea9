// Package driver exposes a DBF database through the entry points of a
// database driver: open/close, statement execution, table description and
// token-addressed select cursors.
//
// A Driver is not safe for concurrent use. Other processes writing the
// same .dbf files at the same time are not detected.
package driver

import (
	"strings"

	"github.com/danfragoso/dbfsql/pkg/executor"
	"github.com/danfragoso/dbfsql/pkg/logging"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Token identifies an open cursor.
type Token int

// ColumnInfo describes a column to driver clients.
type ColumnInfo struct {
	Name       string `json:"name"`
	SQLType    string `json:"type"`
	Length     int    `json:"length"`
	Precision  int    `json:"precision,omitempty"`
	Scale      int    `json:"scale,omitempty"`
	Nullable   bool   `json:"nullable"`
	SelectPriv bool   `json:"select"`
	UpdatePriv bool   `json:"update"`
}

// Driver is an open database.
type Driver struct {
	db      *storage.Database
	exec    *executor.Executor
	cursors map[Token]*executor.Cursor
	next    Token
	errs    []string
}

// Open opens the database directory at path.
func Open(path string) (*Driver, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	return &Driver{
		db:      db,
		exec:    executor.New(db),
		cursors: make(map[Token]*executor.Cursor),
		next:    1,
	}, nil
}

// Close releases every cursor and saves all modified tables.
func (d *Driver) Close() error {
	d.ClearErrors()
	d.cursors = make(map[Token]*executor.Cursor)
	if err := d.db.Close(); err != nil {
		return d.fail(err)
	}
	return nil
}

// Database returns the underlying table registry.
func (d *Driver) Database() *storage.Database {
	return d.db
}

// Execute runs one statement. A SELECT result holds every selected row.
func (d *Driver) Execute(sql string) (*executor.Result, error) {
	d.ClearErrors()
	result, err := d.exec.Execute(sql)
	if err != nil {
		return nil, d.fail(err)
	}
	return result, nil
}

// ListTables returns the names of all tables.
func (d *Driver) ListTables() []string {
	return d.db.TableNames()
}

// DescribeTable loads and describes the columns of a table.
func (d *Driver) DescribeTable(name string) ([]ColumnInfo, error) {
	d.ClearErrors()
	t := d.db.FindTable(name)
	if t == nil {
		return nil, d.fail(sqlerr.New(sqlerr.TableNotFound, "Table '%s' doesn't exist.", name))
	}
	if err := t.LoadHead(); err != nil {
		return nil, d.fail(err)
	}
	return describe(t, t.Columns), nil
}

// OpenSelectCursor runs a SELECT and registers its cursor.
func (d *Driver) OpenSelectCursor(sql string) (Token, []ColumnInfo, error) {
	d.ClearErrors()
	cur, err := d.exec.Open(sql)
	if err != nil {
		return 0, nil, d.fail(err)
	}

	tok := d.next
	d.next++
	d.cursors[tok] = cur
	logging.WithComponent("driver").Debug("cursor opened", "token", int(tok), "rows", cur.Len())
	return tok, describe(cur.Table, cur.Columns()), nil
}

// DescribeCursor describes the selected columns of an open cursor.
func (d *Driver) DescribeCursor(tok Token) ([]ColumnInfo, error) {
	d.ClearErrors()
	cur, err := d.cursor(tok)
	if err != nil {
		return nil, err
	}
	return describe(cur.Table, cur.Columns()), nil
}

// Fetch moves the cursor and returns a copy of its row. ok is false past
// either end of the result.
func (d *Driver) Fetch(tok Token, pos executor.Position) ([]value.Value, bool, error) {
	d.ClearErrors()
	cur, err := d.cursor(tok)
	if err != nil {
		return nil, false, err
	}
	vals, ok, err := cur.Fetch(pos)
	if err != nil {
		return nil, false, d.fail(err)
	}
	return vals, ok, nil
}

// RowCount returns the number of rows selected by an open cursor.
func (d *Driver) RowCount(tok Token) (int, error) {
	d.ClearErrors()
	cur, err := d.cursor(tok)
	if err != nil {
		return 0, err
	}
	return cur.Len(), nil
}

// CloseCursor releases an open cursor.
func (d *Driver) CloseCursor(tok Token) error {
	d.ClearErrors()
	if _, err := d.cursor(tok); err != nil {
		return err
	}
	delete(d.cursors, tok)
	return nil
}

// OpenCursors returns the number of open cursors.
func (d *Driver) OpenCursors() int {
	return len(d.cursors)
}

// Errors returns the messages of the last failed call, one per line. Every
// driver call that can fail starts with an empty buffer.
func (d *Driver) Errors() string {
	return strings.Join(d.errs, "\n")
}

// ClearErrors empties the error buffer.
func (d *Driver) ClearErrors() {
	d.errs = nil
}

func (d *Driver) cursor(tok Token) (*executor.Cursor, error) {
	cur, ok := d.cursors[tok]
	if !ok {
		return nil, d.fail(sqlerr.New(sqlerr.CursorNotFound, "Cursor %d not found", int(tok)))
	}
	return cur, nil
}

func (d *Driver) fail(err error) error {
	d.errs = append(d.errs, err.Error())
	logging.WithComponent("driver").Debug("request failed", "kind", sqlerr.KindOf(err).String(), "error", err)
	return err
}
