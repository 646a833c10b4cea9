package parser

import (
	"strconv"
	"strings"

	"github.com/danfragoso/dbfsql/pkg/lexer"
	"github.com/danfragoso/dbfsql/pkg/value"
)

// MaxCharWidth is the widest CHAR field a DBF file can hold.
const MaxCharWidth = 254

// Parser parses SQL statements into an AST.
type Parser struct {
	lexer     *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
}

// New creates a new Parser.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lexer: l}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// ParseSQL parses a single statement from sql.
func ParseSQL(sql string) (Statement, error) {
	return New(lexer.New(sql)).Parse()
}

// Parse parses exactly one SQL statement with an optional trailing semicolon.
func (p *Parser) Parse() (Statement, error) {
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if p.curTokenIs(lexer.TokenSemicolon) {
		p.nextToken()
	}
	if !p.curTokenIs(lexer.TokenEOF) {
		return nil, p.unexpected("after end of statement")
	}

	return stmt, nil
}

// ParseMultiple parses semicolon separated SQL statements.
func (p *Parser) ParseMultiple() ([]Statement, error) {
	var stmts []Statement

	for !p.curTokenIs(lexer.TokenEOF) {
		if p.curTokenIs(lexer.TokenSemicolon) {
			p.nextToken()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		if p.curTokenIs(lexer.TokenSemicolon) {
			p.nextToken()
		} else if !p.curTokenIs(lexer.TokenEOF) {
			return nil, p.unexpected("after end of statement")
		}
	}

	return stmts, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()

	// Skip comments
	for p.peekToken.Type == lexer.TokenComment {
		p.peekToken = p.lexer.NextToken()
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

// expect consumes the current token if it has type t.
func (p *Parser) expect(t lexer.TokenType) error {
	if !p.curTokenIs(t) {
		return p.curError("expected " + t.String() + ", got " + p.curToken.Type.String())
	}
	p.nextToken()
	return nil
}

func (p *Parser) curError(msg string) error {
	return newError(
		msg,
		p.curToken.Line,
		p.curToken.Column,
		p.curToken.Literal,
	)
}

// unexpected reports the current token, surfacing lexer errors verbatim.
func (p *Parser) unexpected(context string) error {
	if p.curTokenIs(lexer.TokenError) {
		return p.curError(p.curToken.Literal)
	}
	return p.curError("unexpected token " + p.curToken.Type.String() + " " + context)
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.curToken.Type {
	case lexer.TokenSELECT:
		return p.parseSelect()
	case lexer.TokenINSERT:
		return p.parseInsert()
	case lexer.TokenUPDATE:
		return p.parseUpdate()
	case lexer.TokenDELETE:
		return p.parseDelete()
	case lexer.TokenCREATE:
		return p.parseCreateTable()
	case lexer.TokenDROP:
		return p.parseDropTable()
	case lexer.TokenALTER:
		return p.parseAlterTable()
	default:
		return nil, p.unexpected("at start of statement")
	}
}

// isName reports whether the current token can be used as a table or
// column name. Type names are not reserved so that columns such as
// "date" stay addressable.
func (p *Parser) isName() bool {
	return p.curTokenIs(lexer.TokenIdent) || p.curToken.IsDataType() || p.curTokenIs(lexer.TokenPRECISION)
}

func (p *Parser) parseName(what string) (string, error) {
	if !p.isName() {
		return "", p.curError("expected " + what + " name")
	}
	name := p.curToken.Literal
	p.nextToken()
	return name, nil
}

// parseSelect parses SELECT * | cols FROM t [WHERE e] [ORDER BY col [ASC|DESC]].
func (p *Parser) parseSelect() (*SelectStmt, error) {
	stmt := &SelectStmt{}

	p.nextToken() // consume SELECT

	if p.curTokenIs(lexer.TokenStar) {
		p.nextToken()
	} else {
		cols, err := p.parseNameList("column")
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}

	if err := p.expect(lexer.TokenFROM); err != nil {
		return nil, err
	}

	table, err := p.parseName("table")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if stmt.Where, err = p.parseOptionalWhere(); err != nil {
		return nil, err
	}

	if p.curTokenIs(lexer.TokenORDER) {
		p.nextToken()
		if err := p.expect(lexer.TokenBY); err != nil {
			return nil, err
		}
		order, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = order
	}

	return stmt, nil
}

func (p *Parser) parseOrderBy() (*OrderBy, error) {
	col, err := p.parseName("column")
	if err != nil {
		return nil, err
	}
	order := &OrderBy{Column: col}

	if p.curTokenIs(lexer.TokenDESC) {
		order.Desc = true
		p.nextToken()
	} else if p.curTokenIs(lexer.TokenASC) {
		p.nextToken()
	}

	return order, nil
}

func (p *Parser) parseOptionalWhere() (Expr, error) {
	if !p.curTokenIs(lexer.TokenWHERE) {
		return nil, nil
	}
	p.nextToken()
	return p.parseExpr()
}

// parseInsert parses INSERT INTO t [(cols)] VALUES (exprs).
func (p *Parser) parseInsert() (*InsertStmt, error) {
	stmt := &InsertStmt{}

	p.nextToken() // consume INSERT

	if err := p.expect(lexer.TokenINTO); err != nil {
		return nil, err
	}

	table, err := p.parseName("table")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if p.curTokenIs(lexer.TokenLParen) {
		p.nextToken()
		cols, err := p.parseNameList("column")
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
		if err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
	}

	if err := p.expect(lexer.TokenVALUES); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	if !p.curTokenIs(lexer.TokenRParen) {
		values, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		stmt.Values = values
	}
	if err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}

	return stmt, nil
}

// parseUpdate parses UPDATE t SET col = expr [, ...] [WHERE e].
func (p *Parser) parseUpdate() (*UpdateStmt, error) {
	stmt := &UpdateStmt{}

	p.nextToken() // consume UPDATE

	table, err := p.parseName("table")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if err := p.expect(lexer.TokenSET); err != nil {
		return nil, err
	}

	for {
		col, err := p.parseName("column")
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.TokenEq); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		stmt.Set = append(stmt.Set, Assignment{Column: col, Value: val})

		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}

	if stmt.Where, err = p.parseOptionalWhere(); err != nil {
		return nil, err
	}

	return stmt, nil
}

// parseDelete parses DELETE FROM t [WHERE e].
func (p *Parser) parseDelete() (*DeleteStmt, error) {
	stmt := &DeleteStmt{}

	p.nextToken() // consume DELETE

	if err := p.expect(lexer.TokenFROM); err != nil {
		return nil, err
	}

	table, err := p.parseName("table")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if stmt.Where, err = p.parseOptionalWhere(); err != nil {
		return nil, err
	}

	return stmt, nil
}

// parseCreateTable parses CREATE TABLE t (col type, ...).
func (p *Parser) parseCreateTable() (*CreateTableStmt, error) {
	stmt := &CreateTableStmt{}

	p.nextToken() // consume CREATE

	if err := p.expect(lexer.TokenTABLE); err != nil {
		return nil, err
	}

	table, err := p.parseName("table")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	if err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}

	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, *col)

		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}

	if err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *Parser) parseColumnDef() (*ColumnDef, error) {
	name, err := p.parseName("column")
	if err != nil {
		return nil, err
	}

	dataType, err := p.parseDataType()
	if err != nil {
		return nil, err
	}

	return &ColumnDef{Name: name, Type: *dataType}, nil
}

func (p *Parser) parseDataType() (*DataType, error) {
	dt := &DataType{}

	switch p.curToken.Type {
	case lexer.TokenINT, lexer.TokenINTEGER:
		dt.Type = SQLInteger
		p.nextToken()
	case lexer.TokenDATE:
		dt.Type = SQLDate
		p.nextToken()
	case lexer.TokenREAL, lexer.TokenFLOAT:
		dt.Type = SQLDouble
		p.nextToken()
	case lexer.TokenDOUBLE:
		dt.Type = SQLDouble
		p.nextToken()
		if p.curTokenIs(lexer.TokenPRECISION) {
			p.nextToken()
		}
	case lexer.TokenVARCHAR, lexer.TokenCHAR, lexer.TokenCHARACTER:
		dt.Type = SQLVarchar
		dt.Width = 1
		p.nextToken()
		if p.curTokenIs(lexer.TokenLParen) {
			p.nextToken()
			if !p.curTokenIs(lexer.TokenNumber) {
				return nil, p.curError("expected number for width")
			}
			width, err := strconv.Atoi(p.curToken.Literal)
			if err != nil || width < 1 || width > MaxCharWidth {
				return nil, p.curError("width must be between 1 and " + strconv.Itoa(MaxCharWidth))
			}
			dt.Width = width
			p.nextToken()
			if err := p.expect(lexer.TokenRParen); err != nil {
				return nil, err
			}
		}
	default:
		return nil, p.curError("expected data type")
	}

	return dt, nil
}

func (p *Parser) parseDropTable() (*DropTableStmt, error) {
	p.nextToken() // consume DROP

	if err := p.expect(lexer.TokenTABLE); err != nil {
		return nil, err
	}

	table, err := p.parseName("table")
	if err != nil {
		return nil, err
	}

	return &DropTableStmt{Table: table}, nil
}

// parseAlterTable parses ALTER TABLE t ADD [COLUMN] def | DROP [COLUMN] col.
func (p *Parser) parseAlterTable() (*AlterTableStmt, error) {
	stmt := &AlterTableStmt{}

	p.nextToken() // consume ALTER

	if err := p.expect(lexer.TokenTABLE); err != nil {
		return nil, err
	}

	table, err := p.parseName("table")
	if err != nil {
		return nil, err
	}
	stmt.Table = table

	switch p.curToken.Type {
	case lexer.TokenADD:
		p.nextToken()
		if p.curTokenIs(lexer.TokenCOLUMN) {
			p.nextToken()
		}
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Action = &AddColumnAction{Column: *col}
	case lexer.TokenDROP:
		p.nextToken()
		if p.curTokenIs(lexer.TokenCOLUMN) {
			p.nextToken()
		}
		col, err := p.parseName("column")
		if err != nil {
			return nil, err
		}
		stmt.Action = &DropColumnAction{Column: col}
	default:
		return nil, p.curError("expected ADD or DROP")
	}

	return stmt, nil
}

func (p *Parser) parseExpr() (Expr, error) {
	return p.parseOrExpr()
}

func (p *Parser) parseOrExpr() (Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}

	for p.curTokenIs(lexer.TokenOR) {
		p.nextToken()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: OpOr, Right: right}
	}

	return left, nil
}

func (p *Parser) parseAndExpr() (Expr, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}

	for p.curTokenIs(lexer.TokenAND) {
		p.nextToken()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: OpAnd, Right: right}
	}

	return left, nil
}

func (p *Parser) parseNotExpr() (Expr, error) {
	if p.curTokenIs(lexer.TokenNOT) {
		p.nextToken()
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: OpNot, Operand: operand}, nil
	}

	return p.parseComparisonExpr()
}

var comparisonOps = map[lexer.TokenType]Operator{
	lexer.TokenEq:    OpEq,
	lexer.TokenNeq:   OpNe,
	lexer.TokenLt:    OpLt,
	lexer.TokenLte:   OpLe,
	lexer.TokenGt:    OpGt,
	lexer.TokenGte:   OpGe,
	lexer.TokenMatch: OpMatch,
	lexer.TokenLIKE:  OpMatch,
}

func (p *Parser) parseComparisonExpr() (Expr, error) {
	left, err := p.parseAddExpr()
	if err != nil {
		return nil, err
	}

	// IS NULL / IS NOT NULL
	if p.curTokenIs(lexer.TokenIS) {
		p.nextToken()
		op := OpIsNull
		if p.curTokenIs(lexer.TokenNOT) {
			op = OpNotNull
			p.nextToken()
		}
		if err := p.expect(lexer.TokenNULL); err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Operand: left}, nil
	}

	// NOT LIKE
	if p.curTokenIs(lexer.TokenNOT) {
		p.nextToken()
		if !p.curTokenIs(lexer.TokenLIKE) {
			return nil, p.curError("expected LIKE after NOT")
		}
		p.nextToken()
		right, err := p.parseAddExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: OpNot, Operand: &BinaryExpr{Left: left, Op: OpMatch, Right: right}}, nil
	}

	if op, ok := comparisonOps[p.curToken.Type]; ok {
		p.nextToken()
		right, err := p.parseAddExpr()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Left: left, Op: op, Right: right}, nil
	}

	return left, nil
}

func (p *Parser) parseAddExpr() (Expr, error) {
	left, err := p.parseMulExpr()
	if err != nil {
		return nil, err
	}

	for p.curTokenIs(lexer.TokenPlus) || p.curTokenIs(lexer.TokenMinus) {
		op := OpAdd
		if p.curTokenIs(lexer.TokenMinus) {
			op = OpSub
		}
		p.nextToken()
		right, err := p.parseMulExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: op, Right: right}
	}

	return left, nil
}

func (p *Parser) parseMulExpr() (Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}

	for p.curTokenIs(lexer.TokenStar) || p.curTokenIs(lexer.TokenSlash) {
		op := OpMul
		if p.curTokenIs(lexer.TokenSlash) {
			op = OpDiv
		}
		p.nextToken()
		right, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: op, Right: right}
	}

	return left, nil
}

// parseUnaryExpr folds a sign into a numeric literal and rewrites any
// other negation as 0 - operand.
func (p *Parser) parseUnaryExpr() (Expr, error) {
	if p.curTokenIs(lexer.TokenPlus) {
		p.nextToken()
		return p.parseUnaryExpr()
	}

	if p.curTokenIs(lexer.TokenMinus) {
		p.nextToken()
		if p.curTokenIs(lexer.TokenNumber) || p.curTokenIs(lexer.TokenDecimal) {
			return p.parseNumber("-")
		}
		operand, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Left: &LiteralExpr{Value: value.Integer(0)}, Op: OpSub, Right: operand}, nil
	}

	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() (Expr, error) {
	switch {
	case p.curTokenIs(lexer.TokenNumber), p.curTokenIs(lexer.TokenDecimal):
		return p.parseNumber("")

	case p.curTokenIs(lexer.TokenString):
		expr := &LiteralExpr{Value: value.String(p.curToken.Literal)}
		p.nextToken()
		return expr, nil

	case p.curTokenIs(lexer.TokenNULL):
		p.nextToken()
		return &LiteralExpr{Value: value.Null{}}, nil

	case p.curTokenIs(lexer.TokenLParen):
		p.nextToken()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	case p.isName():
		expr := &ColumnRef{Column: p.curToken.Literal}
		p.nextToken()
		return expr, nil

	default:
		return nil, p.unexpected("in expression")
	}
}

// parseNumber converts the current numeric token. Integer literals that
// overflow int64 become doubles.
func (p *Parser) parseNumber(sign string) (Expr, error) {
	lit := sign + p.curToken.Literal

	if p.curTokenIs(lexer.TokenNumber) {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			p.nextToken()
			return &LiteralExpr{Value: value.Integer(i)}, nil
		}
	}

	d, err := strconv.ParseFloat(strings.TrimSuffix(lit, "."), 64)
	if err != nil {
		return nil, p.curError("invalid number " + lit)
	}
	p.nextToken()
	return &LiteralExpr{Value: value.Double(d)}, nil
}

func (p *Parser) parseExprList() ([]Expr, error) {
	var exprs []Expr

	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)

		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}

	return exprs, nil
}

func (p *Parser) parseNameList(what string) ([]string, error) {
	var names []string

	for {
		name, err := p.parseName(what)
		if err != nil {
			return nil, err
		}
		names = append(names, name)

		if !p.curTokenIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}

	return names, nil
}
