package parser

import (
	"strconv"

	"github.com/danfragoso/dbfsql/pkg/value"
)

// Node is the base interface for all AST nodes.
type Node interface {
	node()
}

// Statement represents a SQL statement.
type Statement interface {
	Node
	stmtNode()
	// Command identifies what the executor does with the statement.
	Command() Command
	// TableName is the table the statement operates on.
	TableName() string
}

// Expr represents an expression.
type Expr interface {
	Node
	exprNode()
}

// Command is the statement kind dispatched by the executor.
type Command int

const (
	CmdCreate Command = iota
	CmdDrop
	CmdAddColumn
	CmdDropColumn
	CmdInsert
	CmdSelect
	CmdUpdate
	CmdDelete
)

func (c Command) String() string {
	switch c {
	case CmdCreate:
		return "CREATE TABLE"
	case CmdDrop:
		return "DROP TABLE"
	case CmdAddColumn:
		return "ADD COLUMN"
	case CmdDropColumn:
		return "DROP COLUMN"
	case CmdInsert:
		return "INSERT"
	case CmdSelect:
		return "SELECT"
	case CmdUpdate:
		return "UPDATE"
	case CmdDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Mutates reports whether the command needs write access to the table.
func (c Command) Mutates() bool {
	switch c {
	case CmdDrop, CmdDelete, CmdInsert, CmdUpdate, CmdAddColumn, CmdDropColumn:
		return true
	}
	return false
}

// SelectStmt represents a SELECT statement. Empty Columns means *.
type SelectStmt struct {
	Table   string
	Columns []string
	Where   Expr
	OrderBy *OrderBy
}

func (s *SelectStmt) node()             {}
func (s *SelectStmt) stmtNode()         {}
func (s *SelectStmt) Command() Command  { return CmdSelect }
func (s *SelectStmt) TableName() string { return s.Table }

// OrderBy is the single sort column of a SELECT.
type OrderBy struct {
	Column string
	Desc   bool
}

// InsertStmt represents an INSERT statement. Empty Columns means all
// columns in declaration order.
type InsertStmt struct {
	Table   string
	Columns []string
	Values  []Expr
}

func (s *InsertStmt) node()             {}
func (s *InsertStmt) stmtNode()         {}
func (s *InsertStmt) Command() Command  { return CmdInsert }
func (s *InsertStmt) TableName() string { return s.Table }

// UpdateStmt represents an UPDATE statement.
type UpdateStmt struct {
	Table string
	Set   []Assignment
	Where Expr
}

func (s *UpdateStmt) node()             {}
func (s *UpdateStmt) stmtNode()         {}
func (s *UpdateStmt) Command() Command  { return CmdUpdate }
func (s *UpdateStmt) TableName() string { return s.Table }

// Assignment is one col = expr in UPDATE SET.
type Assignment struct {
	Column string
	Value  Expr
}

// DeleteStmt represents a DELETE statement.
type DeleteStmt struct {
	Table string
	Where Expr
}

func (s *DeleteStmt) node()             {}
func (s *DeleteStmt) stmtNode()         {}
func (s *DeleteStmt) Command() Command  { return CmdDelete }
func (s *DeleteStmt) TableName() string { return s.Table }

// CreateTableStmt represents a CREATE TABLE statement.
type CreateTableStmt struct {
	Table   string
	Columns []ColumnDef
}

func (s *CreateTableStmt) node()             {}
func (s *CreateTableStmt) stmtNode()         {}
func (s *CreateTableStmt) Command() Command  { return CmdCreate }
func (s *CreateTableStmt) TableName() string { return s.Table }

// DropTableStmt represents a DROP TABLE statement.
type DropTableStmt struct {
	Table string
}

func (s *DropTableStmt) node()             {}
func (s *DropTableStmt) stmtNode()         {}
func (s *DropTableStmt) Command() Command  { return CmdDrop }
func (s *DropTableStmt) TableName() string { return s.Table }

// AlterTableStmt represents ALTER TABLE ADD/DROP COLUMN.
type AlterTableStmt struct {
	Table  string
	Action AlterAction
}

func (s *AlterTableStmt) node()             {}
func (s *AlterTableStmt) stmtNode()         {}
func (s *AlterTableStmt) TableName() string { return s.Table }

func (s *AlterTableStmt) Command() Command {
	if _, ok := s.Action.(*DropColumnAction); ok {
		return CmdDropColumn
	}
	return CmdAddColumn
}

// AlterAction is the action of an ALTER TABLE statement.
type AlterAction interface {
	alterAction()
}

// AddColumnAction adds a column.
type AddColumnAction struct {
	Column ColumnDef
}

func (a *AddColumnAction) alterAction() {}

// DropColumnAction drops a column.
type DropColumnAction struct {
	Column string
}

func (a *DropColumnAction) alterAction() {}

// ColumnDef represents a column definition.
type ColumnDef struct {
	Name string
	Type DataType
}

// SQLType is a column type as written in SQL.
type SQLType int

const (
	SQLInteger SQLType = iota
	SQLVarchar
	SQLDate
	SQLDouble
)

func (t SQLType) String() string {
	switch t {
	case SQLInteger:
		return "INTEGER"
	case SQLVarchar:
		return "VARCHAR"
	case SQLDate:
		return "DATE"
	case SQLDouble:
		return "DOUBLE PRECISION"
	default:
		return "UNKNOWN"
	}
}

// DataType is a parsed column type. Width is only meaningful for VARCHAR.
type DataType struct {
	Type  SQLType
	Width int
}

func (d DataType) String() string {
	if d.Type == SQLVarchar {
		return "VARCHAR(" + strconv.Itoa(d.Width) + ")"
	}
	return d.Type.String()
}

// Operator is an expression operator.
type Operator int

const (
	// Arithmetic
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv

	// Comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpMatch

	// Logical
	OpAnd
	OpOr
	OpNot

	// Null tests
	OpIsNull
	OpNotNull
)

var operatorNames = map[Operator]string{
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpEq:      "=",
	OpNe:      "<>",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpMatch:   "~",
	OpAnd:     "AND",
	OpOr:      "OR",
	OpNot:     "NOT",
	OpIsNull:  "IS NULL",
	OpNotNull: "IS NOT NULL",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "?"
}

// IsArithmetic reports whether o is + - * or /.
func (o Operator) IsArithmetic() bool { return o >= OpAdd && o <= OpDiv }

// IsComparison reports whether o is a comparison or match operator.
func (o Operator) IsComparison() bool { return o >= OpEq && o <= OpMatch }

// LiteralExpr is a constant value.
type LiteralExpr struct {
	Value value.Value
}

func (e *LiteralExpr) node()     {}
func (e *LiteralExpr) exprNode() {}

// ColumnRef references a column of the statement's table.
type ColumnRef struct {
	Column string
}

func (e *ColumnRef) node()     {}
func (e *ColumnRef) exprNode() {}

// BinaryExpr represents a binary operation.
type BinaryExpr struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (e *BinaryExpr) node()     {}
func (e *BinaryExpr) exprNode() {}

// UnaryExpr is NOT, IS NULL or IS NOT NULL applied to Operand.
type UnaryExpr struct {
	Op      Operator
	Operand Expr
}

func (e *UnaryExpr) node()     {}
func (e *UnaryExpr) exprNode() {}
