package executor

import (
	"strings"

	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// evaluator computes expression values for rows of one table. Expressions
// must have passed the analyzer first; operand kinds the analyzer rules
// out are reported as internal consistency errors.
type evaluator struct {
	table *storage.Table
}

// eval returns Null, a Bool or a column-typed value.
func (ev *evaluator) eval(expr parser.Expr, row []value.Value) (value.Value, error) {
	switch e := expr.(type) {
	case *parser.LiteralExpr:
		if e.Value == nil {
			return value.Null{}, nil
		}
		return e.Value, nil

	case *parser.ColumnRef:
		idx := ev.table.FindColumn(e.Column)
		if idx < 0 || idx >= len(row) {
			return nil, sqlerr.New(sqlerr.ColumnNotFound, "Column '%s' not found", e.Column)
		}
		if row[idx] == nil {
			return value.Null{}, nil
		}
		return row[idx], nil

	case *parser.UnaryExpr:
		operand, err := ev.eval(e.Operand, row)
		if err != nil {
			return nil, err
		}
		return evalUnary(e.Op, operand)

	case *parser.BinaryExpr:
		left, err := ev.eval(e.Left, row)
		if err != nil {
			return nil, err
		}
		right, err := ev.eval(e.Right, row)
		if err != nil {
			return nil, err
		}
		return evalBinary(e.Op, left, right)
	}

	return nil, sqlerr.New(sqlerr.InternalConsistency, "Unknown expression %T", expr)
}

func evalUnary(op parser.Operator, v value.Value) (value.Value, error) {
	switch op {
	case parser.OpIsNull:
		return value.Bool(value.IsNull(v)), nil
	case parser.OpNotNull:
		return value.Bool(!value.IsNull(v)), nil
	case parser.OpNot:
		if value.IsNull(v) {
			return value.Null{}, nil
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, sqlerr.New(sqlerr.InternalConsistency, "Value operand for NOT")
		}
		return !b, nil
	}
	return nil, sqlerr.New(sqlerr.InternalConsistency, "Unknown operator %d", int(op))
}

func evalBinary(op parser.Operator, left, right value.Value) (value.Value, error) {
	switch op {
	case parser.OpAnd:
		return evalAnd(left, right)
	case parser.OpOr:
		return evalOr(left, right)
	}

	if value.IsNull(left) || value.IsNull(right) {
		return value.Null{}, nil
	}

	switch {
	case op.IsArithmetic():
		return evalArithmetic(op, left, right)
	case op == parser.OpMatch:
		return evalMatch(left, right)
	case op.IsComparison():
		return evalComparison(op, left, right)
	}
	return nil, sqlerr.New(sqlerr.InternalConsistency, "Unknown operator %d", int(op))
}

func evalArithmetic(op parser.Operator, left, right value.Value) (value.Value, error) {
	li, lInt := left.(value.Integer)
	ri, rInt := right.(value.Integer)
	if lInt && rInt && op != parser.OpDiv {
		switch op {
		case parser.OpAdd:
			return li + ri, nil
		case parser.OpSub:
			return li - ri, nil
		case parser.OpMul:
			return li * ri, nil
		}
	}

	l, lok := value.Float(left)
	r, rok := value.Float(right)
	if !lok || !rok {
		return nil, sqlerr.New(sqlerr.InternalConsistency, "Non-numeric operand for '%s'", op)
	}

	var d float64
	switch op {
	case parser.OpAdd:
		d = l + r
	case parser.OpSub:
		d = l - r
	case parser.OpMul:
		d = l * r
	case parser.OpDiv:
		if r == 0 {
			return nil, sqlerr.New(sqlerr.DivisionByZero, "Division by zero")
		}
		d = l / r
	}

	return value.Double(d), nil
}

func evalComparison(op parser.Operator, left, right value.Value) (value.Value, error) {
	if ls, ok := left.(value.String); ok && (op == parser.OpEq || op == parser.OpNe) {
		rs, ok := right.(value.String)
		if !ok {
			return nil, sqlerr.New(sqlerr.InternalConsistency, "Comparison between string and number")
		}
		if op == parser.OpEq {
			return value.Bool(ls == rs), nil
		}
		return value.Bool(ls != rs), nil
	}

	l, lok := value.Float(left)
	r, rok := value.Float(right)
	if !lok || !rok {
		return nil, sqlerr.New(sqlerr.InternalConsistency, "Non-numeric operand for '%s'", op)
	}

	switch op {
	case parser.OpEq:
		return value.Bool(l == r), nil
	case parser.OpNe:
		return value.Bool(l != r), nil
	case parser.OpLt:
		return value.Bool(l < r), nil
	case parser.OpLe:
		return value.Bool(l <= r), nil
	case parser.OpGt:
		return value.Bool(l > r), nil
	default:
		return value.Bool(l >= r), nil
	}
}

// evalMatch tests whether the pattern, with every % removed, occurs in s.
func evalMatch(left, right value.Value) (value.Value, error) {
	s, lok := left.(value.String)
	pattern, rok := right.(value.String)
	if !lok || !rok {
		return nil, sqlerr.New(sqlerr.InternalConsistency, "Non-string operand for '~'")
	}

	needle := strings.TrimRight(strings.ReplaceAll(string(pattern), "%", ""), " \t\n\r\f\v")
	return value.Bool(strings.Contains(string(s), needle)), nil
}

// evalAnd: NULL wins over FALSE.
func evalAnd(left, right value.Value) (value.Value, error) {
	if value.IsNull(left) || value.IsNull(right) {
		return value.Null{}, nil
	}
	lb, lok := left.(value.Bool)
	rb, rok := right.(value.Bool)
	if lok && rok && bool(lb) && bool(rb) {
		return value.Bool(true), nil
	}
	if !lok || !rok {
		return nil, sqlerr.New(sqlerr.InternalConsistency, "Value operand for AND")
	}
	return value.Bool(false), nil
}

// evalOr is NULL only when both sides are NULL.
func evalOr(left, right value.Value) (value.Value, error) {
	if value.IsNull(left) && value.IsNull(right) {
		return value.Null{}, nil
	}
	if isTrue(left) || isTrue(right) {
		return value.Bool(true), nil
	}
	if !isTruth(left) || !isTruth(right) {
		return nil, sqlerr.New(sqlerr.InternalConsistency, "Value operand for OR")
	}
	return value.Bool(false), nil
}

func isTrue(v value.Value) bool {
	b, ok := v.(value.Bool)
	return ok && bool(b)
}

// isTruth reports whether v is a Bool or NULL.
func isTruth(v value.Value) bool {
	if value.IsNull(v) {
		return true
	}
	_, ok := v.(value.Bool)
	return ok
}
