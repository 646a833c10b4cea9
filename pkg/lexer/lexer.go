package lexer

import (
	"strings"
	"unicode"
)

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // offset of ch
	readPos int  // offset of the byte after ch
	ch      byte // 0 at end of input
	line    int  // 1-based
	column  int  // 1-based
}

// pairs holds the two-byte operators. They are tried before singles.
var pairs = map[string]TokenType{
	"<=": TokenLte,
	">=": TokenGte,
	"<>": TokenNeq,
	"!=": TokenNeq,
}

var singles = map[byte]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'=': TokenEq,
	'<': TokenLt,
	'>': TokenGt,
	'~': TokenMatch,
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	';': TokenSemicolon,
}

// New creates a new Lexer for the given input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// scanWhile consumes bytes while ok holds and returns them.
func (l *Lexer) scanWhile(ok func(byte) bool) string {
	start := l.pos
	for l.ch != 0 && ok(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// NextToken returns the next token from the input. Whitespace and block
// comments are skipped; line comments come back as TokenComment.
func (l *Lexer) NextToken() Token {
	l.skipTrivia()

	tok := Token{Line: l.line, Column: l.column}

	switch {
	case l.ch == 0:
		tok.Type = TokenEOF
		return tok
	case l.ch == '-' && l.peekChar() == '-':
		tok.Type = TokenComment
		tok.Literal = l.scanWhile(func(c byte) bool { return c != '\n' })
		return tok
	case l.ch == '\'':
		return l.readString(tok)
	case l.ch == '"' || l.ch == '`':
		return l.readQuotedIdentifier(tok, l.ch)
	case isLetter(l.ch) || l.ch == '_':
		tok.Literal = l.scanWhile(isWordChar)
		tok.Type = LookupKeyword(strings.ToUpper(tok.Literal))
		return tok
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return l.readNumber(tok)
	}

	return l.readOperator(tok)
}

func (l *Lexer) skipTrivia() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '*':
			l.skipBlockComment()
		default:
			return
		}
	}
}

// skipBlockComment skips /* ... */. An unterminated comment runs to EOF.
func (l *Lexer) skipBlockComment() {
	l.readChar()
	l.readChar()
	for l.ch != 0 {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

func (l *Lexer) readOperator(tok Token) Token {
	if l.readPos < len(l.input) {
		pair := l.input[l.pos : l.readPos+1]
		if typ, ok := pairs[pair]; ok {
			l.readChar()
			l.readChar()
			tok.Type, tok.Literal = typ, pair
			return tok
		}
	}

	if typ, ok := singles[l.ch]; ok {
		tok.Type, tok.Literal = typ, string(l.ch)
		l.readChar()
		return tok
	}

	tok.Type = TokenError
	tok.Literal = "unexpected character: " + string(l.ch)
	l.readChar()
	return tok
}

// readString reads a 'string literal'. A doubled quote stands for one quote.
func (l *Lexer) readString(tok Token) Token {
	var sb strings.Builder
	for {
		l.readChar()
		switch {
		case l.ch == 0:
			tok.Type, tok.Literal = TokenError, "unterminated string"
			return tok
		case l.ch == '\'' && l.peekChar() == '\'':
			sb.WriteByte('\'')
			l.readChar()
		case l.ch == '\'':
			l.readChar()
			tok.Type, tok.Literal = TokenString, sb.String()
			return tok
		default:
			sb.WriteByte(l.ch)
		}
	}
}

// readQuotedIdentifier reads a "quoted" or `backtick` identifier.
func (l *Lexer) readQuotedIdentifier(tok Token, quote byte) Token {
	l.readChar()
	name := l.scanWhile(func(c byte) bool { return c != quote })
	if l.ch != quote {
		tok.Type, tok.Literal = TokenError, "unterminated identifier"
		return tok
	}
	l.readChar()

	tok.Type, tok.Literal = TokenIdent, name
	return tok
}

// readNumber reads an integer or a decimal literal. A fraction or an
// exponent makes the literal a TokenDecimal.
func (l *Lexer) readNumber(tok Token) Token {
	start := l.pos
	tok.Type = TokenNumber

	l.scanWhile(isDigit)
	if l.ch == '.' {
		tok.Type = TokenDecimal
		l.readChar()
		l.scanWhile(isDigit)
	}

	if (l.ch == 'e' || l.ch == 'E') && l.exponentFollows() {
		tok.Type = TokenDecimal
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		l.scanWhile(isDigit)
	}

	tok.Literal = l.input[start:l.pos]
	return tok
}

// exponentFollows reports whether the 'e' under the cursor starts an
// exponent rather than an identifier glued to the number.
func (l *Lexer) exponentFollows() bool {
	next := l.peekChar()
	if isDigit(next) {
		return true
	}
	if (next == '+' || next == '-') && l.readPos+1 < len(l.input) {
		return isDigit(l.input[l.readPos+1])
	}
	return false
}

// Tokenize returns all tokens up to and including EOF or the first error.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return tokens
		}
	}
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWordChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}
