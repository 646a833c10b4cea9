package executor

import (
	"fmt"
	"strings"

	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Position moves a cursor before a fetch.
type Position int

const (
	Next Position = iota
	Previous
	First
	Last
	Current
)

var positionNames = map[Position]string{
	Next:     "next",
	Previous: "previous",
	First:    "first",
	Last:     "last",
	Current:  "current",
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// ParsePosition parses a position name case-insensitively. An empty name
// is Next.
func ParsePosition(s string) (Position, error) {
	if s == "" {
		return Next, nil
	}
	for p, name := range positionNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return Next, fmt.Errorf("unknown cursor position %q", s)
}

// Cursor iterates a SELECT result. The row set is a snapshot of row
// indices taken when the statement ran; rows deleted afterwards are still
// returned.
type Cursor struct {
	Stmt  *parser.SelectStmt
	Table *storage.Table
	Cols  []int // selected column indices
	Set   []int // selected row indices
	cur   int
}

func newCursor(stmt *parser.SelectStmt, t *storage.Table, cols, set []int) *Cursor {
	return &Cursor{Stmt: stmt, Table: t, Cols: cols, Set: set, cur: -1}
}

// Len returns the number of rows in the result.
func (c *Cursor) Len() int { return len(c.Set) }

// Columns returns the selected column definitions in cursor order.
func (c *Cursor) Columns() []storage.Column {
	cols := make([]storage.Column, len(c.Cols))
	for i, idx := range c.Cols {
		cols[i] = c.Table.Columns[idx]
	}
	return cols
}

// ColumnNames returns the selected column names in cursor order.
func (c *Cursor) ColumnNames() []string {
	names := make([]string, len(c.Cols))
	for i, idx := range c.Cols {
		names[i] = c.Table.Columns[idx].Name
	}
	return names
}

// Fetch moves the cursor and returns a copy of the row's selected values.
// ok is false when the new position is outside the result.
func (c *Cursor) Fetch(pos Position) (vals []value.Value, ok bool, err error) {
	switch pos {
	case Next:
		c.cur++
	case Previous:
		c.cur--
	case First:
		c.cur = 0
	case Last:
		c.cur = len(c.Set) - 1
	case Current:
	default:
		return nil, false, sqlerr.New(sqlerr.InternalConsistency, "Unknown cursor position %d", int(pos))
	}

	if c.cur < 0 || c.cur >= len(c.Set) {
		return nil, false, nil
	}

	ri := c.Set[c.cur]
	if ri >= len(c.Table.Rows) {
		return nil, false, sqlerr.New(sqlerr.InternalConsistency, "Row %d of table '%s' no longer exists", ri, c.Table.Name)
	}
	row := c.Table.Rows[ri].Values

	vals = make([]value.Value, len(c.Cols))
	for i, col := range c.Cols {
		if col >= len(row) {
			return nil, false, sqlerr.New(sqlerr.InternalConsistency, "Column %d of table '%s' no longer exists", col, c.Table.Name)
		}
		vals[i] = row[col]
		if vals[i] == nil {
			vals[i] = value.Null{}
		}
	}
	return vals, true, nil
}

// Rows fetches every remaining row.
func (c *Cursor) Rows() ([][]value.Value, error) {
	var rows [][]value.Value
	for {
		vals, ok, err := c.Fetch(Next)
		if err != nil {
			return nil, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, vals)
	}
}
