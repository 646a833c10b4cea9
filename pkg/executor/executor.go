// Package executor runs parsed statements against the tables of a
// storage.Database.
package executor

import (
	"log/slog"

	"github.com/danfragoso/dbfsql/pkg/analyzer"
	"github.com/danfragoso/dbfsql/pkg/logging"
	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Executor executes SQL statements.
type Executor struct {
	db *storage.Database
}

// New creates a new executor over db.
func New(db *storage.Database) *Executor {
	return &Executor{db: db}
}

// Database returns the database the executor works on.
func (e *Executor) Database() *storage.Database {
	return e.db
}

func logger() *slog.Logger {
	return logging.WithComponent("executor")
}

// Parse parses one statement, reporting failures as Syntax errors.
func Parse(sql string) (parser.Statement, error) {
	stmt, err := parser.ParseSQL(sql)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.Syntax, err, "SQL parser error in statement %q", sql)
	}
	return stmt, nil
}

// Execute parses and executes one SQL statement.
func (e *Executor) Execute(sql string) (*Result, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	return e.ExecuteStatement(stmt)
}

// Open executes a SELECT and returns its cursor positioned before the
// first row.
func (e *Executor) Open(sql string) (*Cursor, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*parser.SelectStmt)
	if !ok {
		return nil, sqlerr.New(sqlerr.Syntax, "Statement is not a SELECT: %s", stmt.Command())
	}
	t, err := e.prepare(sel)
	if err != nil {
		return nil, err
	}
	return e.selectCursor(sel, t)
}

// ExecuteStatement executes a parsed statement. A SELECT result carries
// every selected row along with the cursor that produced them.
func (e *Executor) ExecuteStatement(stmt parser.Statement) (*Result, error) {
	logger().Debug("execute", "command", stmt.Command().String(), "table", stmt.TableName())

	if s, ok := stmt.(*parser.CreateTableStmt); ok {
		return e.executeCreateTable(s)
	}

	t, err := e.prepare(stmt)
	if err != nil {
		return nil, err
	}

	switch s := stmt.(type) {
	case *parser.SelectStmt:
		return e.executeSelect(s, t)
	case *parser.InsertStmt:
		return e.executeInsert(s, t)
	case *parser.UpdateStmt:
		return e.executeUpdate(s, t)
	case *parser.DeleteStmt:
		return e.executeDelete(s, t)
	case *parser.DropTableStmt:
		return e.executeDropTable(t)
	case *parser.AlterTableStmt:
		switch action := s.Action.(type) {
		case *parser.AddColumnAction:
			return e.executeAddColumn(t, action)
		case *parser.DropColumnAction:
			return e.executeDropColumn(t, action)
		}
	}

	return nil, sqlerr.New(sqlerr.InternalConsistency, "unknown statement type: %T", stmt)
}

// prepare finds the statement's table, loads its schema and checks write
// permission for mutating commands.
func (e *Executor) prepare(stmt parser.Statement) (*storage.Table, error) {
	t := e.db.FindTable(stmt.TableName())
	if t == nil {
		return nil, sqlerr.New(sqlerr.TableNotFound, "Table '%s' doesn't exist.", stmt.TableName())
	}

	if err := t.LoadHead(); err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Unable to load table head")
	}

	if stmt.Command().Mutates() && !t.Write {
		return nil, sqlerr.New(sqlerr.PermissionDenied, "Unable to modify table, don't have write permission for DBF file.")
	}
	return t, nil
}

func (e *Executor) executeCreateTable(stmt *parser.CreateTableStmt) (*Result, error) {
	if e.db.FindTable(stmt.Table) != nil {
		return nil, sqlerr.New(sqlerr.TableAlreadyExists, "Table %s already exists", stmt.Table)
	}

	t := e.db.AddTable(stmt.Table)
	t.Read = true
	t.Write = true

	for _, def := range stmt.Columns {
		col := analyzer.ColumnFor(def)
		if err := t.AddColumn(col.Name, col.Type, col.Width, col.Decimals); err != nil {
			t.Alive = false
			return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Unable to create table")
		}
	}

	t.Described = true
	t.Loaded = true
	t.Updated = true
	return NewResult(parser.CmdCreate.String()), nil
}

func (e *Executor) executeDropTable(t *storage.Table) (*Result, error) {
	if err := t.Remove(); err != nil {
		return nil, err
	}
	return NewResult(parser.CmdDrop.String()), nil
}

func (e *Executor) executeAddColumn(t *storage.Table, action *parser.AddColumnAction) (*Result, error) {
	if err := t.Load(); err != nil {
		return nil, err
	}

	col := analyzer.ColumnFor(action.Column)
	if err := t.AddColumn(col.Name, col.Type, col.Width, col.Decimals); err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Unable to add column")
	}
	for i := range t.Rows {
		t.Rows[i].Values = append(t.Rows[i].Values, value.Null{})
	}

	t.Updated = true
	return NewResult(parser.CmdAddColumn.String()), nil
}

func (e *Executor) executeDropColumn(t *storage.Table, action *parser.DropColumnAction) (*Result, error) {
	if err := t.Load(); err != nil {
		return nil, err
	}

	if err := t.DropColumn(action.Column); err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Unable to delete column")
	}

	t.Updated = true
	return NewResult(parser.CmdDropColumn.String()), nil
}

func (e *Executor) executeInsert(stmt *parser.InsertStmt, t *storage.Table) (*Result, error) {
	cols, err := checkAssignments(t, stmt.Columns, stmt.Values)
	if err != nil {
		return nil, err
	}

	if err := t.Load(); err != nil {
		return nil, err
	}

	idx := t.AddRow()
	t.Updated = true

	// Values are stored one by one; later values see the earlier ones.
	ev := &evaluator{table: t}
	for i, expr := range stmt.Values {
		if err := ev.setVal(t.Rows[idx].Values, cols[i], expr); err != nil {
			return nil, err
		}
	}

	result := NewResult(parser.CmdInsert.String())
	result.SetRowCount(1)
	return result, nil
}

func (e *Executor) executeUpdate(stmt *parser.UpdateStmt, t *storage.Table) (*Result, error) {
	names := make([]string, len(stmt.Set))
	exprs := make([]parser.Expr, len(stmt.Set))
	for i, a := range stmt.Set {
		names[i] = a.Column
		exprs[i] = a.Value
	}

	cols, err := checkAssignments(t, names, exprs)
	if err != nil {
		return nil, err
	}

	set, err := selectRows(t, stmt.Where)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Error in selecting rows")
	}

	// Every new value is computed from the pre-update rows before any
	// row changes.
	ev := &evaluator{table: t}
	pending := make([][]value.Value, len(set))
	for i, ri := range set {
		pending[i] = make([]value.Value, len(exprs))
		for j, expr := range exprs {
			v, err := ev.storable(expr, t.Rows[ri].Values, cols[j])
			if err != nil {
				return nil, err
			}
			pending[i][j] = v
		}
	}

	for i, ri := range set {
		for j, col := range cols {
			t.Rows[ri].Values[col] = pending[i][j]
		}
		t.Updated = true
	}

	result := NewResult(parser.CmdUpdate.String())
	result.SetRowCount(len(set))
	return result, nil
}

func (e *Executor) executeDelete(stmt *parser.DeleteStmt, t *storage.Table) (*Result, error) {
	set, err := selectRows(t, stmt.Where)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Error in selecting rows")
	}

	for _, ri := range set {
		t.Rows[ri].Alive = false
		t.Updated = true
	}

	result := NewResult(parser.CmdDelete.String())
	result.SetRowCount(len(set))
	return result, nil
}

func (e *Executor) executeSelect(stmt *parser.SelectStmt, t *storage.Table) (*Result, error) {
	cur, err := e.selectCursor(stmt, t)
	if err != nil {
		return nil, err
	}

	result := NewResult(parser.CmdSelect.String())
	for _, col := range cur.Columns() {
		result.AddColumnWithType(col.Name, col.Type.String())
	}

	rows, err := cur.Rows()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result.AddRow(row...)
	}
	result.Cursor = cur
	return result, nil
}

func (e *Executor) selectCursor(stmt *parser.SelectStmt, t *storage.Table) (*Cursor, error) {
	cols, err := analyzer.New(t).ResolveColumns(stmt.Columns)
	if err != nil {
		return nil, err
	}

	set, err := selectRows(t, stmt.Where)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Error in selecting rows")
	}

	if stmt.OrderBy != nil {
		if err := orderRows(t, set, stmt.OrderBy); err != nil {
			return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Error in selecting rows")
		}
	}

	return newCursor(stmt, t, cols, set), nil
}

// checkAssignments resolves target columns and type-checks the values
// assigned to them.
func checkAssignments(t *storage.Table, names []string, exprs []parser.Expr) ([]int, error) {
	a := analyzer.New(t)

	cols, err := a.ResolveColumns(names)
	if err != nil {
		return nil, err
	}
	if err := a.CheckValues(cols, exprs); err != nil {
		return nil, err
	}
	for _, expr := range exprs {
		if _, ok := expr.(*parser.LiteralExpr); ok {
			continue
		}
		if _, err := a.TypeOf(expr); err != nil {
			return nil, err
		}
	}
	return cols, nil
}
