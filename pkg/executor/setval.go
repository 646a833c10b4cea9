package executor

import (
	"strconv"
	"strings"

	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// coerce converts an evaluated value into the representation stored in a
// column of col's type. Anything that is not a string or a number,
// including predicate results, is stored as NULL.
func coerce(col storage.Column, v value.Value) (value.Value, error) {
	switch x := v.(type) {
	case nil, value.Null, value.Bool:
		return value.Null{}, nil

	case value.Integer:
		switch col.Type {
		case storage.ColInt:
			return x, nil
		case storage.ColDouble:
			return value.Double(x), nil
		default:
			return value.String(strconv.FormatInt(int64(x), 10)), nil
		}

	case value.Double:
		switch col.Type {
		case storage.ColInt:
			return value.Integer(int64(x)), nil
		case storage.ColDouble:
			return x, nil
		default:
			return value.String(strconv.FormatFloat(float64(x), 'g', 6, 64)), nil
		}

	case value.String:
		switch col.Type {
		case storage.ColInt:
			return value.Integer(leadingInt(string(x))), nil
		case storage.ColDouble:
			d, err := strconv.ParseFloat(strings.TrimLeft(string(x), " \t\n\r\f\v"), 64)
			if err != nil {
				return nil, sqlerr.New(sqlerr.TypeMismatch, "Cannot convert '%s' to a number for column '%s'.", string(x), col.Name)
			}
			return value.Double(d), nil
		default:
			return x, nil
		}
	}

	return nil, sqlerr.New(sqlerr.InternalConsistency, "Wrong value type %T for column '%s'", v, col.Name)
}

// leadingInt parses the longest integer prefix of s after leading
// whitespace. Text without one converts to 0.
func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r\f\v")

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	i, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if s[0] == '-' {
			return -1 << 63
		}
		return 1<<63 - 1
	}
	return i
}

// storable evaluates expr against row and converts the result for
// column col.
func (ev *evaluator) storable(expr parser.Expr, row []value.Value, col int) (value.Value, error) {
	v, err := ev.eval(expr, row)
	if err != nil {
		return nil, err
	}
	return coerce(ev.table.Columns[col], v)
}

// setVal stores expr, evaluated against the current contents of row, in
// column col.
func (ev *evaluator) setVal(row []value.Value, col int, expr parser.Expr) error {
	v, err := ev.storable(expr, row, col)
	if err != nil {
		return err
	}
	row[col] = v
	return nil
}
