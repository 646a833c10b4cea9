package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danfragoso/dbfsql/pkg/lexer"
	"github.com/danfragoso/dbfsql/pkg/value"
)

func parse(t *testing.T, input string) Statement {
	t.Helper()
	stmt, err := New(lexer.New(input)).Parse()
	require.NoError(t, err, input)
	return stmt
}

func parseWhere(t *testing.T, cond string) Expr {
	t.Helper()
	sel, ok := parse(t, "SELECT * FROM t WHERE "+cond).(*SelectStmt)
	require.True(t, ok)
	return sel.Where
}

func lit(v value.Value) *LiteralExpr { return &LiteralExpr{Value: v} }
func col(name string) *ColumnRef     { return &ColumnRef{Column: name} }

func TestParseSelectStar(t *testing.T) {
	sel := parse(t, "SELECT * FROM roads").(*SelectStmt)

	assert.Equal(t, "roads", sel.Table)
	assert.Empty(t, sel.Columns)
	assert.Nil(t, sel.Where)
	assert.Nil(t, sel.OrderBy)
	assert.Equal(t, CmdSelect, sel.Command())
}

func TestParseSelectColumnsOrder(t *testing.T) {
	tests := []struct {
		input string
		cols  []string
		order *OrderBy
	}{
		{"SELECT cat, name FROM roads", []string{"cat", "name"}, nil},
		{"SELECT cat FROM roads ORDER BY cat", []string{"cat"}, &OrderBy{Column: "cat"}},
		{"SELECT cat FROM roads ORDER BY cat ASC;", []string{"cat"}, &OrderBy{Column: "cat"}},
		{"select cat from roads order by name desc", []string{"cat"}, &OrderBy{Column: "name", Desc: true}},
		{"SELECT date FROM t", []string{"date"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sel := parse(t, tt.input).(*SelectStmt)
			assert.Equal(t, tt.cols, sel.Columns)
			assert.Equal(t, tt.order, sel.OrderBy)
		})
	}
}

func TestParseWherePrecedence(t *testing.T) {
	where := parseWhere(t, "a = 1 OR b > 2 AND NOT c < 3")

	expected := &BinaryExpr{
		Left: &BinaryExpr{Left: col("a"), Op: OpEq, Right: lit(value.Integer(1))},
		Op:   OpOr,
		Right: &BinaryExpr{
			Left: &BinaryExpr{Left: col("b"), Op: OpGt, Right: lit(value.Integer(2))},
			Op:   OpAnd,
			Right: &UnaryExpr{
				Op:      OpNot,
				Operand: &BinaryExpr{Left: col("c"), Op: OpLt, Right: lit(value.Integer(3))},
			},
		},
	}
	assert.Equal(t, expected, where)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	where := parseWhere(t, "a + b * 2 - 1 >= (a - 1) / 2")

	left := &BinaryExpr{
		Left: &BinaryExpr{
			Left:  col("a"),
			Op:    OpAdd,
			Right: &BinaryExpr{Left: col("b"), Op: OpMul, Right: lit(value.Integer(2))},
		},
		Op:    OpSub,
		Right: lit(value.Integer(1)),
	}
	right := &BinaryExpr{
		Left:  &BinaryExpr{Left: col("a"), Op: OpSub, Right: lit(value.Integer(1))},
		Op:    OpDiv,
		Right: lit(value.Integer(2)),
	}
	assert.Equal(t, &BinaryExpr{Left: left, Op: OpGe, Right: right}, where)
}

func TestParseComparisonOperators(t *testing.T) {
	tests := []struct {
		cond string
		op   Operator
	}{
		{"a = 1", OpEq},
		{"a <> 1", OpNe},
		{"a != 1", OpNe},
		{"a < 1", OpLt},
		{"a <= 1", OpLe},
		{"a > 1", OpGt},
		{"a >= 1", OpGe},
		{"a ~ 1", OpMatch},
		{"a LIKE 1", OpMatch},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			bin, ok := parseWhere(t, tt.cond).(*BinaryExpr)
			require.True(t, ok)
			assert.Equal(t, tt.op, bin.Op)
		})
	}
}

func TestParseNullTests(t *testing.T) {
	assert.Equal(t, &UnaryExpr{Op: OpIsNull, Operand: col("a")}, parseWhere(t, "a IS NULL"))
	assert.Equal(t, &UnaryExpr{Op: OpNotNull, Operand: col("a")}, parseWhere(t, "a IS NOT NULL"))
	assert.Equal(t,
		&UnaryExpr{Op: OpNot, Operand: &BinaryExpr{Left: col("a"), Op: OpMatch, Right: lit(value.String("x%"))}},
		parseWhere(t, "a NOT LIKE 'x%'"))
}

func TestParseLiterals(t *testing.T) {
	tests := []struct {
		cond     string
		expected value.Value
	}{
		{"a = 42", value.Integer(42)},
		{"a = -42", value.Integer(-42)},
		{"a = 2.5", value.Double(2.5)},
		{"a = -2.5", value.Double(-2.5)},
		{"a = 1e3", value.Double(1000)},
		{"a = 'it''s'", value.String("it's")},
		{"a = NULL", value.Null{}},
		{"a = 99999999999999999999", value.Double(1e20)},
	}

	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			bin := parseWhere(t, tt.cond).(*BinaryExpr)
			assert.Equal(t, lit(tt.expected), bin.Right)
		})
	}
}

func TestParseUnaryMinusExpression(t *testing.T) {
	bin := parseWhere(t, "-a = 1").(*BinaryExpr)
	assert.Equal(t, &BinaryExpr{Left: lit(value.Integer(0)), Op: OpSub, Right: col("a")}, bin.Left)
}

func TestParseInsert(t *testing.T) {
	ins := parse(t, "INSERT INTO roads (cat, name, len) VALUES (1, 'Main', 2.5 * 2)").(*InsertStmt)

	assert.Equal(t, "roads", ins.Table)
	assert.Equal(t, []string{"cat", "name", "len"}, ins.Columns)
	require.Len(t, ins.Values, 3)
	assert.Equal(t, lit(value.Integer(1)), ins.Values[0])
	assert.Equal(t, lit(value.String("Main")), ins.Values[1])
	assert.IsType(t, &BinaryExpr{}, ins.Values[2])
	assert.Equal(t, CmdInsert, ins.Command())
}

func TestParseInsertWithoutColumns(t *testing.T) {
	ins := parse(t, "INSERT INTO roads VALUES (NULL, 'x')").(*InsertStmt)
	assert.Empty(t, ins.Columns)
	assert.Len(t, ins.Values, 2)

	empty := parse(t, "INSERT INTO roads VALUES ()").(*InsertStmt)
	assert.Empty(t, empty.Values)
}

func TestParseUpdate(t *testing.T) {
	upd := parse(t, "UPDATE t SET a = b, b = a WHERE a IS NOT NULL").(*UpdateStmt)

	assert.Equal(t, "t", upd.Table)
	assert.Equal(t, []Assignment{
		{Column: "a", Value: col("b")},
		{Column: "b", Value: col("a")},
	}, upd.Set)
	assert.Equal(t, &UnaryExpr{Op: OpNotNull, Operand: col("a")}, upd.Where)
}

func TestParseDelete(t *testing.T) {
	del := parse(t, "DELETE FROM t").(*DeleteStmt)
	assert.Equal(t, "t", del.Table)
	assert.Nil(t, del.Where)

	del = parse(t, "DELETE FROM t WHERE a = 1").(*DeleteStmt)
	assert.NotNil(t, del.Where)
	assert.Equal(t, CmdDelete, del.Command())
}

func TestParseCreateTable(t *testing.T) {
	ct := parse(t, `CREATE TABLE roads (
		cat INTEGER,
		id INT,
		name VARCHAR(20),
		code CHAR,
		built DATE,
		len DOUBLE PRECISION,
		w DOUBLE,
		h REAL
	)`).(*CreateTableStmt)

	assert.Equal(t, "roads", ct.Table)
	assert.Equal(t, []ColumnDef{
		{Name: "cat", Type: DataType{Type: SQLInteger}},
		{Name: "id", Type: DataType{Type: SQLInteger}},
		{Name: "name", Type: DataType{Type: SQLVarchar, Width: 20}},
		{Name: "code", Type: DataType{Type: SQLVarchar, Width: 1}},
		{Name: "built", Type: DataType{Type: SQLDate}},
		{Name: "len", Type: DataType{Type: SQLDouble}},
		{Name: "w", Type: DataType{Type: SQLDouble}},
		{Name: "h", Type: DataType{Type: SQLDouble}},
	}, ct.Columns)
	assert.Equal(t, CmdCreate, ct.Command())
}

func TestParseDropTable(t *testing.T) {
	dt := parse(t, "DROP TABLE roads").(*DropTableStmt)
	assert.Equal(t, "roads", dt.Table)
	assert.Equal(t, CmdDrop, dt.Command())
	assert.True(t, dt.Command().Mutates())
}

func TestParseAlterTable(t *testing.T) {
	add := parse(t, "ALTER TABLE roads ADD COLUMN width DOUBLE").(*AlterTableStmt)
	assert.Equal(t, CmdAddColumn, add.Command())
	assert.Equal(t, &AddColumnAction{Column: ColumnDef{Name: "width", Type: DataType{Type: SQLDouble}}}, add.Action)

	add = parse(t, "ALTER TABLE roads ADD label VARCHAR(5)").(*AlterTableStmt)
	assert.Equal(t, &AddColumnAction{Column: ColumnDef{Name: "label", Type: DataType{Type: SQLVarchar, Width: 5}}}, add.Action)

	drop := parse(t, "ALTER TABLE roads DROP COLUMN width").(*AlterTableStmt)
	assert.Equal(t, CmdDropColumn, drop.Command())
	assert.Equal(t, &DropColumnAction{Column: "width"}, drop.Action)

	drop = parse(t, "ALTER TABLE roads DROP width").(*AlterTableStmt)
	assert.Equal(t, &DropColumnAction{Column: "width"}, drop.Action)
}

func TestParseMultiple(t *testing.T) {
	stmts, err := New(lexer.New(`
		CREATE TABLE t (a INT);
		-- seed
		INSERT INTO t VALUES (1);;
		SELECT * FROM t
	`)).ParseMultiple()

	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.IsType(t, &CreateTableStmt{}, stmts[0])
	assert.IsType(t, &InsertStmt{}, stmts[1])
	assert.IsType(t, &SelectStmt{}, stmts[2])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"", "unexpected token EOF at start of statement"},
		{"SELECT FROM t", "expected column name"},
		{"SELECT * t", "expected FROM, got IDENT"},
		{"SELECT * FROM t WHERE", "unexpected token EOF in expression"},
		{"SELECT * FROM t WHERE a IS 1", "expected NULL, got NUMBER"},
		{"SELECT * FROM t ORDER cat", "expected BY, got IDENT"},
		{"SELECT * FROM t extra", "unexpected token IDENT after end of statement"},
		{"INSERT t VALUES (1)", "expected INTO, got IDENT"},
		{"INSERT INTO t VALUES (1", "expected ), got EOF"},
		{"CREATE TABLE t ()", "expected column name"},
		{"CREATE TABLE t (a BLOB)", "expected data type"},
		{"CREATE TABLE t (a VARCHAR(0))", "width must be between 1 and 254"},
		{"CREATE TABLE t (a VARCHAR(300))", "width must be between 1 and 254"},
		{"ALTER TABLE t RENAME a", "expected ADD or DROP"},
		{"SELECT * FROM t WHERE a = 'open", "unterminated string"},
		{"SELECT * FROM t WHERE a NOT 1", "expected LIKE after NOT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseSQL(tt.input)
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.msg, perr.Message)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := ParseSQL("SELECT *\nFROM t\nWHERE a = = 1")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Line)
	assert.Contains(t, err.Error(), "line 3")
}
