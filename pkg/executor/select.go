package executor

import (
	"sort"
	"strings"

	"github.com/danfragoso/dbfsql/pkg/analyzer"
	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// selectRows returns the indices of the alive rows of t matching where,
// in table order. A nil where matches every alive row.
func selectRows(t *storage.Table, where parser.Expr) ([]int, error) {
	if err := t.Load(); err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Cannot load table")
	}

	set := make([]int, 0, len(t.Rows))

	if where == nil {
		for i, r := range t.Rows {
			if r.Alive {
				set = append(set, i)
			}
		}
		return set, nil
	}

	typ, err := analyzer.New(t).CheckCondition(where)
	if err != nil {
		return nil, err
	}
	if typ == value.TypeNull {
		// Unknown for every row.
		return set, nil
	}

	ev := &evaluator{table: t}
	for i, r := range t.Rows {
		if !r.Alive {
			continue
		}
		res, err := ev.eval(where, r.Values)
		if err != nil {
			return nil, sqlerr.Wrap(sqlerr.KindOf(err), err, "Error in evaluation of WHERE condition")
		}
		switch b := res.(type) {
		case value.Bool:
			if b {
				set = append(set, i)
			}
		case value.Null:
		default:
			return nil, sqlerr.New(sqlerr.InternalConsistency, "Unknown result (%s) of WHERE evaluation", res.Type())
		}
	}

	logger().Debug("rows selected", "table", t.Name, "rows", len(set))
	return set, nil
}

// orderRows stably sorts set by the named column. NULLs sort after every
// value; descending order negates the ascending comparison, so NULLs come
// first.
func orderRows(t *storage.Table, set []int, order *parser.OrderBy) error {
	col := t.FindColumn(order.Column)
	if col < 0 {
		return sqlerr.New(sqlerr.OrderColumnNotFound, "Unable to find order column '%s'", order.Column)
	}

	typ := t.Columns[col].Type
	sort.SliceStable(set, func(i, j int) bool {
		c := compareRows(typ, t.Rows[set[i]].Values[col], t.Rows[set[j]].Values[col])
		if order.Desc {
			c = -c
		}
		return c < 0
	})
	return nil
}

func compareRows(typ storage.ColumnType, a, b value.Value) int {
	switch {
	case value.IsNull(a) && value.IsNull(b):
		return 0
	case value.IsNull(a):
		return 1
	case value.IsNull(b):
		return -1
	}

	if typ == storage.ColChar {
		return strings.Compare(a.String(), b.String())
	}

	x, _ := value.Float(a)
	y, _ := value.Float(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
