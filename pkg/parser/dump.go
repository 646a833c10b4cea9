package parser

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/cznic/strutil"

	"github.com/danfragoso/dbfsql/pkg/lexer"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// Dump renders a statement tree, one node per line, children indented.
func Dump(stmt Statement) string {
	var b bytes.Buffer
	f := strutil.IndentFormatter(&b, "\t")

	f.Format("%s %s\n%i", stmt.Command(), stmt.TableName())

	switch s := stmt.(type) {
	case *CreateTableStmt:
		for _, col := range s.Columns {
			f.Format("column %s %s\n", col.Name, col.Type)
		}
	case *AlterTableStmt:
		switch a := s.Action.(type) {
		case *AddColumnAction:
			f.Format("column %s %s\n", a.Column.Name, a.Column.Type)
		case *DropColumnAction:
			f.Format("column %s\n", a.Column)
		}
	case *InsertStmt:
		dumpColumns(f, s.Columns)
		f.Format("values\n%i")
		for _, v := range s.Values {
			dumpExpr(f, v)
		}
		f.Format("%u")
	case *SelectStmt:
		dumpColumns(f, s.Columns)
		dumpWhere(f, s.Where)
		if s.OrderBy != nil {
			dir := "ASC"
			if s.OrderBy.Desc {
				dir = "DESC"
			}
			f.Format("order by %s %s\n", s.OrderBy.Column, dir)
		}
	case *UpdateStmt:
		for _, a := range s.Set {
			f.Format("set %s\n%i", a.Column)
			dumpExpr(f, a.Value)
			f.Format("%u")
		}
		dumpWhere(f, s.Where)
	case *DeleteStmt:
		dumpWhere(f, s.Where)
	}

	f.Format("%u")
	return b.String()
}

func dumpColumns(f strutil.Formatter, cols []string) {
	if len(cols) == 0 {
		f.Format("columns *\n")
		return
	}
	f.Format("columns %s\n", strings.Join(cols, ", "))
}

func dumpWhere(f strutil.Formatter, where Expr) {
	if where == nil {
		return
	}
	f.Format("where\n%i")
	dumpExpr(f, where)
	f.Format("%u")
}

func dumpExpr(f strutil.Formatter, e Expr) {
	switch x := e.(type) {
	case *LiteralExpr:
		f.Format("%s %s\n", x.Value.Type(), FormatLiteral(x.Value))
	case *ColumnRef:
		f.Format("column %s\n", x.Column)
	case *BinaryExpr:
		f.Format("%s\n%i", x.Op)
		dumpExpr(f, x.Left)
		dumpExpr(f, x.Right)
		f.Format("%u")
	case *UnaryExpr:
		f.Format("%s\n%i", x.Op)
		dumpExpr(f, x.Operand)
		f.Format("%u")
	}
}

// QuoteString returns s as a SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent returns name as an identifier, double-quoted when it is a
// keyword or not a plain word.
func QuoteIdent(name string) string {
	plain := name != "" && !(name[0] >= '0' && name[0] <= '9')
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			plain = false
			break
		}
	}
	if plain && lexer.LookupKeyword(strings.ToUpper(name)) == lexer.TokenIdent {
		return name
	}
	return `"` + name + `"`
}

// FormatLiteral renders v so that parsing the text yields the same value.
func FormatLiteral(v value.Value) string {
	switch x := v.(type) {
	case value.String:
		return QuoteString(string(x))
	case value.Double:
		s := strconv.FormatFloat(float64(x), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case nil:
		return "NULL"
	default:
		return v.String()
	}
}
