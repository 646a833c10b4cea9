// Package analyzer performs the static checks run before a statement
// touches any row: column resolution, literal/column compatibility and
// type inference of expressions.
package analyzer

import (
	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Analyzer checks expressions against the columns of one table.
type Analyzer struct {
	table *storage.Table
}

// New creates an Analyzer for table. The table schema must be loaded.
func New(table *storage.Table) *Analyzer {
	return &Analyzer{table: table}
}

// ResolveColumns maps column names to indices. No names selects every
// column in declaration order.
func (a *Analyzer) ResolveColumns(names []string) ([]int, error) {
	if len(names) == 0 {
		cols := make([]int, len(a.table.Columns))
		for i := range cols {
			cols[i] = i
		}
		return cols, nil
	}

	cols := make([]int, len(names))
	for i, name := range names {
		idx := a.table.FindColumn(name)
		if idx < 0 {
			return nil, sqlerr.New(sqlerr.ColumnNotFound, "Column '%s' not found", name)
		}
		cols[i] = idx
	}
	return cols, nil
}

// CheckValues verifies that every literal value can be stored in its
// target column. NULL literals and computed expressions are checked when
// they are stored.
func (a *Analyzer) CheckValues(cols []int, vals []parser.Expr) error {
	if len(vals) > len(cols) {
		return sqlerr.New(sqlerr.TypeMismatch, "Too many values: %d values for %d columns.", len(vals), len(cols))
	}

	for i, expr := range vals {
		lit, ok := expr.(*parser.LiteralExpr)
		if !ok || value.IsNull(lit.Value) {
			continue
		}
		col := a.table.Columns[cols[i]]
		if !LiteralCompatible(col.Type, lit.Value.Type()) {
			return sqlerr.New(sqlerr.TypeMismatch, "Incompatible value type.")
		}
	}
	return nil
}

// CheckCondition infers the type of a WHERE expression. The result is
// TypeBool, or TypeNull when the condition can never be satisfied.
func (a *Analyzer) CheckCondition(expr parser.Expr) (value.Type, error) {
	t, err := a.TypeOf(expr)
	if err != nil {
		return t, sqlerr.Wrap(sqlerr.KindOf(err), err, "Incompatible types in WHERE condition")
	}

	switch t {
	case value.TypeBool, value.TypeNull:
		return t, nil
	default:
		return t, sqlerr.New(sqlerr.NonBooleanCondition, "Result of WHERE condition is not of type BOOL.")
	}
}

// TypeOf infers the static type of expr. NULL typing comes only from NULL
// literals; column values are typed by their declaration.
func (a *Analyzer) TypeOf(expr parser.Expr) (value.Type, error) {
	switch e := expr.(type) {
	case *parser.LiteralExpr:
		if e.Value == nil {
			return value.TypeNull, nil
		}
		return e.Value.Type(), nil

	case *parser.ColumnRef:
		idx := a.table.FindColumn(e.Column)
		if idx < 0 {
			return value.TypeNull, sqlerr.New(sqlerr.ColumnNotFound, "Column '%s' not found", e.Column)
		}
		return a.table.Columns[idx].Type.ValueType(), nil

	case *parser.UnaryExpr:
		operand, err := a.TypeOf(e.Operand)
		if err != nil {
			return value.TypeNull, err
		}
		return unaryType(e.Op, operand)

	case *parser.BinaryExpr:
		left, err := a.TypeOf(e.Left)
		if err != nil {
			return value.TypeNull, err
		}
		right, err := a.TypeOf(e.Right)
		if err != nil {
			return value.TypeNull, err
		}
		return binaryType(e.Op, left, right)
	}

	return value.TypeNull, sqlerr.New(sqlerr.InternalConsistency, "Unknown expression %T", expr)
}

func unaryType(op parser.Operator, operand value.Type) (value.Type, error) {
	switch op {
	case parser.OpIsNull, parser.OpNotNull:
		return value.TypeBool, nil
	case parser.OpNot:
		if operand == value.TypeNull {
			return value.TypeNull, nil
		}
		return value.TypeBool, nil
	}
	return value.TypeNull, unknownOperator(op)
}

func binaryType(op parser.Operator, left, right value.Type) (value.Type, error) {
	null := left == value.TypeNull || right == value.TypeNull

	if op != parser.OpAnd && op != parser.OpOr && (left == value.TypeBool || right == value.TypeBool) {
		return value.TypeNull, sqlerr.New(sqlerr.InvalidOperandType, "Operator '%s' not allowed on a logical value", op)
	}

	switch op {
	case parser.OpAdd, parser.OpSub, parser.OpMul, parser.OpDiv:
		if left == value.TypeString || right == value.TypeString {
			return value.TypeNull, sqlerr.New(sqlerr.InvalidOperandType, "Arithmetical operation with strings is not allowed")
		}
		if null {
			return value.TypeNull, nil
		}
		if left == value.TypeInteger && right == value.TypeInteger && op != parser.OpDiv {
			return value.TypeInteger, nil
		}
		return value.TypeDouble, nil

	case parser.OpEq, parser.OpNe:
		if (left == value.TypeString && right.IsNumeric()) || (right == value.TypeString && left.IsNumeric()) {
			return value.TypeNull, sqlerr.New(sqlerr.InvalidOperandType, "Comparison between string and number is not allowed")
		}
		if null {
			return value.TypeNull, nil
		}
		return value.TypeBool, nil

	case parser.OpLt, parser.OpLe, parser.OpGt, parser.OpGe:
		if left == value.TypeString || right == value.TypeString {
			return value.TypeNull, sqlerr.New(sqlerr.InvalidOperandType, "Comparison '%s' between strings not allowed", op)
		}
		if null {
			return value.TypeNull, nil
		}
		return value.TypeBool, nil

	case parser.OpMatch:
		if left.IsNumeric() || right.IsNumeric() {
			return value.TypeNull, sqlerr.New(sqlerr.InvalidOperandType, "Match (~) between numbers not allowed")
		}
		if null {
			return value.TypeNull, nil
		}
		return value.TypeBool, nil

	case parser.OpAnd:
		if null {
			return value.TypeNull, nil
		}
		return value.TypeBool, nil

	case parser.OpOr:
		if left == value.TypeNull && right == value.TypeNull {
			return value.TypeNull, nil
		}
		return value.TypeBool, nil
	}

	return value.TypeNull, unknownOperator(op)
}

func unknownOperator(op parser.Operator) error {
	return sqlerr.New(sqlerr.InternalConsistency, "Unknown operator %d", int(op))
}
