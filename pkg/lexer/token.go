package lexer

import "fmt"

type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenComment

	// Literals
	TokenIdent   // identifiers
	TokenNumber  // integers
	TokenDecimal // 1.5, .5, 2e10
	TokenString  // 'string literals'

	// Operators
	TokenPlus  // +
	TokenMinus // -
	TokenStar  // *
	TokenSlash // /
	TokenEq    // =
	TokenNeq   // <> or !=
	TokenLt    // <
	TokenLte   // <=
	TokenGt    // >
	TokenGte   // >=
	TokenMatch // ~

	// Punctuation
	TokenLParen    // (
	TokenRParen    // )
	TokenComma     // ,
	TokenSemicolon // ;

	// SQL Keywords - DML
	TokenSELECT
	TokenFROM
	TokenWHERE
	TokenAND
	TokenOR
	TokenNOT

	TokenINSERT
	TokenINTO
	TokenVALUES

	TokenUPDATE
	TokenSET

	TokenDELETE

	// SQL Keywords - DDL
	TokenCREATE
	TokenDROP
	TokenALTER
	TokenTABLE
	TokenADD
	TokenCOLUMN

	// SQL Keywords - Clauses
	TokenORDER
	TokenBY
	TokenASC
	TokenDESC

	// SQL Keywords - Predicates
	TokenLIKE
	TokenIS
	TokenNULL

	// Data types
	TokenINTEGER
	TokenINT
	TokenVARCHAR
	TokenCHAR
	TokenCHARACTER
	TokenDATE
	TokenDOUBLE
	TokenPRECISION
	TokenREAL
	TokenFLOAT
)

var keywords = map[string]TokenType{
	// DML
	"SELECT": TokenSELECT,
	"FROM":   TokenFROM,
	"WHERE":  TokenWHERE,
	"AND":    TokenAND,
	"OR":     TokenOR,
	"NOT":    TokenNOT,
	"INSERT": TokenINSERT,
	"INTO":   TokenINTO,
	"VALUES": TokenVALUES,
	"UPDATE": TokenUPDATE,
	"SET":    TokenSET,
	"DELETE": TokenDELETE,

	// DDL
	"CREATE": TokenCREATE,
	"DROP":   TokenDROP,
	"ALTER":  TokenALTER,
	"TABLE":  TokenTABLE,
	"ADD":    TokenADD,
	"COLUMN": TokenCOLUMN,

	// Clauses
	"ORDER": TokenORDER,
	"BY":    TokenBY,
	"ASC":   TokenASC,
	"DESC":  TokenDESC,

	// Predicates
	"LIKE": TokenLIKE,
	"IS":   TokenIS,
	"NULL": TokenNULL,

	// Data types
	"INTEGER":   TokenINTEGER,
	"INT":       TokenINT,
	"VARCHAR":   TokenVARCHAR,
	"CHAR":      TokenCHAR,
	"CHARACTER": TokenCHARACTER,
	"DATE":      TokenDATE,
	"DOUBLE":    TokenDOUBLE,
	"PRECISION": TokenPRECISION,
	"REAL":      TokenREAL,
	"FLOAT":     TokenFLOAT,
}

// LookupKeyword returns the token type for an upper-cased identifier.
// Identifiers that are not keywords map to TokenIdent.
func LookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("Token{Type: %v, Literal: %q, Line: %d, Col: %d}",
		t.Type, t.Literal, t.Line, t.Column)
}

// IsKeyword returns true if the token is a SQL keyword.
func (t Token) IsKeyword() bool {
	return t.Type >= TokenSELECT
}

// IsOperator returns true if the token is an operator.
func (t Token) IsOperator() bool {
	return t.Type >= TokenPlus && t.Type <= TokenMatch
}

// IsDataType returns true if the token starts a column type.
func (t Token) IsDataType() bool {
	return t.Type >= TokenINTEGER && t.Type <= TokenFLOAT && t.Type != TokenPRECISION
}

var tokenNames = map[TokenType]string{
	TokenEOF:       "EOF",
	TokenError:     "ERROR",
	TokenComment:   "COMMENT",
	TokenIdent:     "IDENT",
	TokenNumber:    "NUMBER",
	TokenDecimal:   "DECIMAL",
	TokenString:    "STRING",
	TokenPlus:      "+",
	TokenMinus:     "-",
	TokenStar:      "*",
	TokenSlash:     "/",
	TokenEq:        "=",
	TokenNeq:       "<>",
	TokenLt:        "<",
	TokenLte:       "<=",
	TokenGt:        ">",
	TokenGte:       ">=",
	TokenMatch:     "~",
	TokenLParen:    "(",
	TokenRParen:    ")",
	TokenComma:     ",",
	TokenSemicolon: ";",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for kw, tok := range keywords {
		if tok == t {
			return kw
		}
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}
