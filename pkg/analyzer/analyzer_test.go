package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danfragoso/dbfsql/pkg/parser"
	"github.com/danfragoso/dbfsql/pkg/sqlerr"
	"github.com/danfragoso/dbfsql/pkg/storage"
	"github.com/danfragoso/dbfsql/pkg/value"
)

func setupTable() *storage.Table {
	return &storage.Table{
		Name:      "roads",
		Alive:     true,
		Described: true,
		Columns: []storage.Column{
			{Name: "cat", Type: storage.ColInt, Width: 11},
			{Name: "label", Type: storage.ColChar, Width: 20},
			{Name: "length", Type: storage.ColDouble, Width: 20, Decimals: 6},
		},
	}
}

func where(t *testing.T, cond string) parser.Expr {
	t.Helper()
	stmt, err := parser.ParseSQL("SELECT * FROM roads WHERE " + cond)
	require.NoError(t, err)
	return stmt.(*parser.SelectStmt).Where
}

func TestTypeOf(t *testing.T) {
	a := New(setupTable())

	tests := []struct {
		expr     string
		expected value.Type
	}{
		{"cat", value.TypeInteger},
		{"label", value.TypeString},
		{"length", value.TypeDouble},
		{"NULL", value.TypeNull},
		{"cat + 1", value.TypeInteger},
		{"cat * cat - 2", value.TypeInteger},
		{"cat / 2", value.TypeDouble},
		{"cat + 1.5", value.TypeDouble},
		{"length - cat", value.TypeDouble},
		{"cat + NULL", value.TypeNull},
		{"cat = 1", value.TypeBool},
		{"cat = length", value.TypeBool},
		{"label = 'x'", value.TypeBool},
		{"label <> NULL", value.TypeNull},
		{"cat < 3", value.TypeBool},
		{"NULL >= 3", value.TypeNull},
		{"label ~ '%ma%'", value.TypeBool},
		{"label LIKE NULL", value.TypeNull},
		{"cat IS NULL", value.TypeBool},
		{"NULL IS NOT NULL", value.TypeBool},
		{"cat = 1 AND label = 'a'", value.TypeBool},
		{"cat = 1 AND NULL = 1", value.TypeNull},
		{"cat = 1 OR NULL = 1", value.TypeBool},
		{"NULL = 1 OR NULL = 2", value.TypeNull},
		{"NOT cat = 1", value.TypeBool},
		{"NOT NULL = 1", value.TypeNull},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			typ, err := a.TypeOf(where(t, tt.expr))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, typ)
		})
	}
}

func TestTypeOfErrors(t *testing.T) {
	a := New(setupTable())

	tests := []struct {
		expr    string
		kind    sqlerr.Kind
		message string
	}{
		{"label + 1", sqlerr.InvalidOperandType, "Arithmetical operation with strings is not allowed"},
		{"NULL * label", sqlerr.InvalidOperandType, "Arithmetical operation with strings is not allowed"},
		{"label = 1", sqlerr.InvalidOperandType, "Comparison between string and number is not allowed"},
		{"2.5 <> label", sqlerr.InvalidOperandType, "Comparison between string and number is not allowed"},
		{"label < 'm'", sqlerr.InvalidOperandType, "Comparison '<' between strings not allowed"},
		{"cat >= label", sqlerr.InvalidOperandType, "Comparison '>=' between strings not allowed"},
		{"cat ~ '1'", sqlerr.InvalidOperandType, "Match (~) between numbers not allowed"},
		{"(cat = 1) = (cat = 2)", sqlerr.InvalidOperandType, "Operator '=' not allowed on a logical value"},
		{"label ~ (cat IS NULL)", sqlerr.InvalidOperandType, "Operator '~' not allowed on a logical value"},
		{"(cat > 1) + 1", sqlerr.InvalidOperandType, "Operator '+' not allowed on a logical value"},
		{"NULL < (cat = 1)", sqlerr.InvalidOperandType, "Operator '<' not allowed on a logical value"},
		{"missing = 1", sqlerr.ColumnNotFound, "Column 'missing' not found"},
		{"NOT missing IS NULL", sqlerr.ColumnNotFound, "Column 'missing' not found"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := a.TypeOf(where(t, tt.expr))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestCheckCondition(t *testing.T) {
	a := New(setupTable())

	typ, err := a.CheckCondition(where(t, "cat > 1"))
	require.NoError(t, err)
	assert.Equal(t, value.TypeBool, typ)

	typ, err = a.CheckCondition(where(t, "NULL = 1"))
	require.NoError(t, err)
	assert.Equal(t, value.TypeNull, typ)

	for _, cond := range []string{"cat", "cat + 1", "label", "2.5"} {
		_, err = a.CheckCondition(where(t, cond))
		assert.ErrorIs(t, err, sqlerr.NonBooleanCondition, cond)
	}

	_, err = a.CheckCondition(where(t, "label < 'b'"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlerr.InvalidOperandType)
	assert.Contains(t, err.Error(), "Incompatible types in WHERE condition")
}

func TestResolveColumns(t *testing.T) {
	a := New(setupTable())

	cols, err := a.ResolveColumns(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, cols)

	cols, err = a.ResolveColumns([]string{"LENGTH", "cat"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, cols)

	_, err = a.ResolveColumns([]string{"cat", "nope"})
	assert.ErrorIs(t, err, sqlerr.ColumnNotFound)
}

func TestCheckValues(t *testing.T) {
	a := New(setupTable())

	tests := []struct {
		sql     string
		wantErr bool
	}{
		{"INSERT INTO roads VALUES (1, 'a', 2.5)", false},
		{"INSERT INTO roads VALUES (1, 'a', 2)", false},
		{"INSERT INTO roads VALUES (NULL, NULL, NULL)", false},
		{"INSERT INTO roads VALUES (1)", false},
		{"INSERT INTO roads VALUES (1.5, 'a', 2)", true},
		{"INSERT INTO roads VALUES ('1', 'a', 2)", true},
		{"INSERT INTO roads VALUES (1, 2, 2)", true},
		{"INSERT INTO roads VALUES (1, 'a', 'x')", true},
		{"INSERT INTO roads VALUES (1, 'a', 2.5, 4)", true},
		{"INSERT INTO roads (label) VALUES ('x')", false},
		{"INSERT INTO roads (length) VALUES (cat + 1)", false},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			stmt, err := parser.ParseSQL(tt.sql)
			require.NoError(t, err)
			ins := stmt.(*parser.InsertStmt)

			cols, err := a.ResolveColumns(ins.Columns)
			require.NoError(t, err)

			err = a.CheckValues(cols, ins.Values)
			if tt.wantErr {
				assert.ErrorIs(t, err, sqlerr.TypeMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestColumnFor(t *testing.T) {
	tests := []struct {
		sql      string
		expected storage.Column
	}{
		{"CREATE TABLE t (a INTEGER)", storage.Column{Name: "a", Type: storage.ColInt, Width: 11}},
		{"CREATE TABLE t (a VARCHAR(30))", storage.Column{Name: "a", Type: storage.ColChar, Width: 30}},
		{"CREATE TABLE t (a DATE)", storage.Column{Name: "a", Type: storage.ColChar, Width: 10}},
		{"CREATE TABLE t (a DOUBLE PRECISION)", storage.Column{Name: "a", Type: storage.ColDouble, Width: 20, Decimals: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			stmt, err := parser.ParseSQL(tt.sql)
			require.NoError(t, err)
			def := stmt.(*parser.CreateTableStmt).Columns[0]
			assert.Equal(t, tt.expected, ColumnFor(def))
		})
	}
}
