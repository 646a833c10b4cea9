package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerSingleTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected TokenType
		literal  string
	}{
		// Operators
		{"+", TokenPlus, "+"},
		{"-", TokenMinus, "-"},
		{"*", TokenStar, "*"},
		{"/", TokenSlash, "/"},
		{"=", TokenEq, "="},
		{"<>", TokenNeq, "<>"},
		{"!=", TokenNeq, "!="},
		{"<", TokenLt, "<"},
		{"<=", TokenLte, "<="},
		{">", TokenGt, ">"},
		{">=", TokenGte, ">="},
		{"~", TokenMatch, "~"},

		// Punctuation
		{"(", TokenLParen, "("},
		{")", TokenRParen, ")"},
		{",", TokenComma, ","},
		{";", TokenSemicolon, ";"},

		// Keywords are case insensitive
		{"SELECT", TokenSELECT, "SELECT"},
		{"select", TokenSELECT, "select"},
		{"SeLeCt", TokenSELECT, "SeLeCt"},
		{"ALTER", TokenALTER, "ALTER"},
		{"column", TokenCOLUMN, "column"},
		{"LIKE", TokenLIKE, "LIKE"},
		{"is", TokenIS, "is"},
		{"NULL", TokenNULL, "NULL"},
		{"varchar", TokenVARCHAR, "varchar"},
		{"DOUBLE", TokenDOUBLE, "DOUBLE"},
		{"precision", TokenPRECISION, "precision"},
		{"DATE", TokenDATE, "DATE"},

		// Identifiers
		{"cat", TokenIdent, "cat"},
		{"_id", TokenIdent, "_id"},
		{"road_2", TokenIdent, "road_2"},

		// Numbers
		{"42", TokenNumber, "42"},
		{"0", TokenNumber, "0"},
		{"3.14", TokenDecimal, "3.14"},
		{"1.", TokenDecimal, "1."},
		{".5", TokenDecimal, ".5"},
		{"1e10", TokenDecimal, "1e10"},
		{"2.5E-3", TokenDecimal, "2.5E-3"},

		// Strings
		{"'hello'", TokenString, "hello"},
		{"'it''s'", TokenString, "it's"},
		{"''", TokenString, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			assert.Equal(t, tt.expected, tok.Type)
			assert.Equal(t, tt.literal, tok.Literal)
		})
	}
}

func TestLexerQuotedIdentifiers(t *testing.T) {
	for _, input := range []string{`"cat"`, "`cat`"} {
		tok := New(input).NextToken()
		assert.Equal(t, TokenIdent, tok.Type, input)
		assert.Equal(t, "cat", tok.Literal, input)
	}
}

func TestLexerNumberFollowedByIdentifier(t *testing.T) {
	tokens := New("12east").Tokenize()
	require.Len(t, tokens, 3)
	assert.Equal(t, TokenNumber, tokens[0].Type)
	assert.Equal(t, "12", tokens[0].Literal)
	assert.Equal(t, TokenIdent, tokens[1].Type)
	assert.Equal(t, "east", tokens[1].Literal)
}

func TestLexerStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{
			"SELECT cat, name FROM roads WHERE name ~ 'main%' ORDER BY cat DESC;",
			[]TokenType{
				TokenSELECT, TokenIdent, TokenComma, TokenIdent, TokenFROM, TokenIdent,
				TokenWHERE, TokenIdent, TokenMatch, TokenString,
				TokenORDER, TokenBY, TokenIdent, TokenDESC, TokenSemicolon, TokenEOF,
			},
		},
		{
			"INSERT INTO roads (cat, len) VALUES (1, -2.5)",
			[]TokenType{
				TokenINSERT, TokenINTO, TokenIdent, TokenLParen, TokenIdent, TokenComma,
				TokenIdent, TokenRParen, TokenVALUES, TokenLParen, TokenNumber, TokenComma,
				TokenMinus, TokenDecimal, TokenRParen, TokenEOF,
			},
		},
		{
			"CREATE TABLE roads (cat INTEGER, name VARCHAR(20), len DOUBLE PRECISION, built DATE)",
			[]TokenType{
				TokenCREATE, TokenTABLE, TokenIdent, TokenLParen,
				TokenIdent, TokenINTEGER, TokenComma,
				TokenIdent, TokenVARCHAR, TokenLParen, TokenNumber, TokenRParen, TokenComma,
				TokenIdent, TokenDOUBLE, TokenPRECISION, TokenComma,
				TokenIdent, TokenDATE, TokenRParen, TokenEOF,
			},
		},
		{
			"ALTER TABLE roads DROP COLUMN len",
			[]TokenType{TokenALTER, TokenTABLE, TokenIdent, TokenDROP, TokenCOLUMN, TokenIdent, TokenEOF},
		},
		{
			"UPDATE roads SET a = b, b = a WHERE a IS NOT NULL",
			[]TokenType{
				TokenUPDATE, TokenIdent, TokenSET, TokenIdent, TokenEq, TokenIdent, TokenComma,
				TokenIdent, TokenEq, TokenIdent, TokenWHERE, TokenIdent, TokenIS, TokenNOT, TokenNULL, TokenEOF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := New(tt.input).Tokenize()
			got := make([]TokenType, len(tokens))
			for i, tok := range tokens {
				got[i] = tok.Type
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLexerComments(t *testing.T) {
	tokens := New("SELECT -- note\n* /* block\ncomment */ FROM t").Tokenize()
	got := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		got[i] = tok.Type
	}
	assert.Equal(t, []TokenType{TokenSELECT, TokenComment, TokenStar, TokenFROM, TokenIdent, TokenEOF}, got)
}

func TestLexerLineTracking(t *testing.T) {
	l := New("SELECT\n*\nFROM t")

	assert.Equal(t, 1, l.NextToken().Line)
	assert.Equal(t, 2, l.NextToken().Line)
	assert.Equal(t, 3, l.NextToken().Line)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"unterminated string", "'hello", "unterminated string"},
		{"unterminated quoted identifier", `"hello`, "unterminated identifier"},
		{"unexpected character", "@", "unexpected character: @"},
		{"lone bang", "!", "unexpected character: !"},
		{"pipe", "|", "unexpected character: |"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			assert.Equal(t, TokenError, tok.Type)
			assert.Equal(t, tt.errMsg, tok.Literal)
		})
	}
}

func TestTokenClassification(t *testing.T) {
	assert.True(t, Token{Type: TokenMatch}.IsOperator())
	assert.False(t, Token{Type: TokenComma}.IsOperator())
	assert.True(t, Token{Type: TokenVARCHAR}.IsDataType())
	assert.False(t, Token{Type: TokenPRECISION}.IsDataType())
	assert.True(t, Token{Type: TokenSELECT}.IsKeyword())
	assert.Equal(t, "~", TokenMatch.String())
	assert.Equal(t, "ORDER", TokenORDER.String())
}
