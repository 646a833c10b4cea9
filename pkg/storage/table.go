package storage

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/danfragoso/dbfsql/pkg/logging"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Row is one record. Values has one entry per table column.
type Row struct {
	Alive  bool
	Values []value.Value
}

// Table is a DBF table with lazily loaded schema and rows.
type Table struct {
	Name string
	File string

	Read  bool
	Write bool

	Alive     bool
	Described bool // columns loaded
	Loaded    bool // rows loaded
	Updated   bool // needs saving

	Columns []Column
	Rows    []Row
}

func logger() *slog.Logger {
	return logging.WithComponent("storage")
}

// AddColumn appends a column descriptor. Names longer than MaxColumnName
// are truncated. Existing rows are not touched.
func (t *Table) AddColumn(name string, typ ColumnType, width, decimals int) error {
	if len(name) > MaxColumnName {
		truncated := name[:MaxColumnName]
		logger().Warn("column name truncated", "table", t.Name, "column", name, "name", truncated)
		name = truncated
	}

	if t.FindColumn(name) >= 0 {
		return sqlerr.New(sqlerr.DuplicateColumn, "Column '%s' already exists (duplicate name).", name)
	}

	t.Columns = append(t.Columns, Column{
		Name:     name,
		Type:     typ,
		Width:    width,
		Decimals: decimals,
	})
	return nil
}

// FindColumn returns the index of the named column, or -1.
func (t *Table) FindColumn(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// DropColumn removes the named column and its value from every row.
func (t *Table) DropColumn(name string) error {
	idx := t.FindColumn(name)
	if idx < 0 {
		return sqlerr.New(sqlerr.ColumnNotFound, "Column '%s' not found", name)
	}

	t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)
	for i := range t.Rows {
		vals := t.Rows[i].Values
		if idx < len(vals) {
			t.Rows[i].Values = append(vals[:idx], vals[idx+1:]...)
		}
	}
	return nil
}

// AddRow appends an alive row of NULLs and returns its index.
func (t *Table) AddRow() int {
	t.Rows = append(t.Rows, Row{Alive: true, Values: value.NullRow(len(t.Columns))})
	return len(t.Rows) - 1
}

// AliveRows returns the number of rows not marked deleted.
func (t *Table) AliveRows() int {
	n := 0
	for _, r := range t.Rows {
		if r.Alive {
			n++
		}
	}
	return n
}

// LoadHead reads the column descriptors from the table file.
func (t *Table) LoadHead() error {
	if t.Described {
		return nil
	}

	f, err := os.Open(t.File)
	if err != nil {
		return sqlerr.Wrap(sqlerr.IO, err, "Cannot open dbf file '%s'", t.File)
	}
	defer f.Close()

	h, err := readHead(f)
	if err != nil {
		return sqlerr.Wrap(sqlerr.IO, err, "Cannot read dbf header of '%s'", t.File)
	}

	t.Columns = h.columns
	t.Described = true
	logger().Debug("table described", "table", t.Name, "columns", len(t.Columns))
	return nil
}

// Load reads all rows from the table file. Records flagged as deleted in
// the file are kept as dead rows.
func (t *Table) Load() error {
	if t.Loaded {
		return nil
	}

	f, err := os.Open(t.File)
	if err != nil {
		return sqlerr.Wrap(sqlerr.IO, err, "Cannot open dbf file '%s'", t.File)
	}
	defer f.Close()

	h, rows, err := readTable(f)
	if err != nil {
		return sqlerr.Wrap(sqlerr.IO, err, "Cannot read dbf file '%s'", t.File)
	}

	if !t.Described {
		t.Columns = h.columns
		t.Described = true
	}
	t.Rows = rows
	t.Loaded = true
	logger().Debug("table loaded", "table", t.Name, "rows", len(rows))
	return nil
}

// Save writes the table back to its file if it was modified. Dead rows
// are not written.
func (t *Table) Save() error {
	if !t.Loaded || !t.Alive || !t.Updated {
		return nil
	}

	if err := writeFile(t.File, t.Columns, t.Rows); err != nil {
		return sqlerr.Wrap(sqlerr.IO, err, "Cannot write dbf file '%s'", t.File)
	}

	t.Updated = false
	logger().Debug("table saved", "table", t.Name, "rows", t.AliveRows())
	return nil
}

// Remove deletes the table file and marks the table dead.
func (t *Table) Remove() error {
	if err := os.Remove(t.File); err != nil && !errors.Is(err, os.ErrNotExist) {
		return sqlerr.Wrap(sqlerr.IO, err, "Cannot delete dbf file '%s'", t.File)
	}
	t.Alive = false
	return nil
}
