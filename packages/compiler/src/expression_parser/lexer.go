package expression_parser

import (
	"strconv"
	"strings"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenTypeCharacter TokenType = iota
	TokenTypeIdentifier
	TokenTypeKeyword
	TokenTypeString
	TokenTypeOperator
	TokenTypeNumber
	TokenTypeError
)

var keywords = map[string]bool{
	"let":       true,
	"as":        true,
	"null":      true,
	"undefined": true,
	"true":      true,
	"false":     true,
	"this":      true,
}

// Token represents a token in the expression
type Token struct {
	Index    int
	End      int
	Type     TokenType
	NumValue float64
	StrValue string
}

// IsCharacter checks if the token is the given character
func (t *Token) IsCharacter(ch byte) bool {
	return t.Type == TokenTypeCharacter && t.StrValue == string(ch)
}

// IsOperator checks if the token is an operator with the given value
func (t *Token) IsOperator(operator string) bool {
	return t.Type == TokenTypeOperator && t.StrValue == operator
}

// IsIdentifier checks if the token is an identifier
func (t *Token) IsIdentifier() bool {
	return t.Type == TokenTypeIdentifier
}

// IsKeyword checks if the token is the given keyword
func (t *Token) IsKeyword(keyword string) bool {
	return t.Type == TokenTypeKeyword && t.StrValue == keyword
}

func (t *Token) String() string {
	switch t.Type {
	case TokenTypeNumber:
		return strconv.FormatFloat(t.NumValue, 'f', -1, 64)
	default:
		return t.StrValue
	}
}

// Lexer splits an expression into tokens.
type Lexer struct{}

// NewLexer creates a new Lexer
func NewLexer() *Lexer {
	return &Lexer{}
}

// Tokenize tokenizes the given text. Lexing errors are reported in-band as
// TokenTypeError tokens.
func (l *Lexer) Tokenize(text string) []*Token {
	s := &scanner{input: text, length: len(text), index: -1}
	s.advance()
	var tokens []*Token
	for tok := s.scanToken(); tok != nil; tok = s.scanToken() {
		tokens = append(tokens, tok)
	}
	return tokens
}

const eof = 0

type scanner struct {
	input  string
	length int
	peek   byte
	index  int
}

func (s *scanner) advance() {
	s.index++
	if s.index >= s.length {
		s.peek = eof
	} else {
		s.peek = s.input[s.index]
	}
}

func (s *scanner) scanToken() *Token {
	for s.index < s.length && isWhitespace(s.peek) {
		s.advance()
	}
	if s.index >= s.length {
		return nil
	}

	start := s.index
	if isIdentifierStart(s.peek) {
		return s.scanIdentifier()
	}
	if isDigit(s.peek) {
		return s.scanNumber(start)
	}

	switch s.peek {
	case '.':
		s.advance()
		if isDigit(s.peek) {
			return s.scanNumber(start)
		}
		return s.token(start, TokenTypeCharacter, ".")
	case '(', ')', '{', '}', '[', ']', ',', ':', ';':
		ch := s.peek
		s.advance()
		return s.token(start, TokenTypeCharacter, string(ch))
	case '\'', '"':
		return s.scanString()
	case '+', '-', '*', '/', '%':
		ch := s.peek
		s.advance()
		return s.token(start, TokenTypeOperator, string(ch))
	case '?':
		s.advance()
		switch s.peek {
		case '.', '?':
			op := "?" + string(s.peek)
			s.advance()
			return s.token(start, TokenTypeOperator, op)
		}
		return s.token(start, TokenTypeOperator, "?")
	case '<', '>':
		return s.scanComplexOperator(start, s.peek, '=', false)
	case '!', '=':
		return s.scanComplexOperator(start, s.peek, '=', true)
	case '&':
		return s.scanComplexOperator(start, '&', '&', false)
	case '|':
		return s.scanComplexOperator(start, '|', '|', false)
	}

	ch := s.peek
	s.advance()
	return s.error("Unexpected character ["+string(ch)+"]", start)
}

func (s *scanner) token(start int, typ TokenType, value string) *Token {
	return &Token{Index: start, End: s.index, Type: typ, StrValue: value}
}

// scanComplexOperator scans `one`, `one two` and, when allowThree is set, `one two two`
// (`!==`, `===`).
func (s *scanner) scanComplexOperator(start int, one, two byte, allowThree bool) *Token {
	s.advance()
	op := string(one)
	if s.peek == two {
		s.advance()
		op += string(two)
		if allowThree && s.peek == two {
			s.advance()
			op += string(two)
		}
	}
	return s.token(start, TokenTypeOperator, op)
}

func (s *scanner) scanIdentifier() *Token {
	start := s.index
	s.advance()
	for isIdentifierPart(s.peek) {
		s.advance()
	}
	str := s.input[start:s.index]
	if keywords[str] {
		return s.token(start, TokenTypeKeyword, str)
	}
	return s.token(start, TokenTypeIdentifier, str)
}

func (s *scanner) scanNumber(start int) *Token {
	s.advance()
	for {
		if isDigit(s.peek) || s.peek == '.' || s.peek == '_' {
			s.advance()
			continue
		}
		if s.peek == 'e' || s.peek == 'E' {
			s.advance()
			if s.peek == '+' || s.peek == '-' {
				s.advance()
			}
			if !isDigit(s.peek) {
				return s.error("Invalid exponent", start)
			}
			continue
		}
		break
	}
	str := strings.ReplaceAll(s.input[start:s.index], "_", "")
	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return s.error("Invalid number ["+str+"]", start)
	}
	return &Token{Index: start, End: s.index, Type: TokenTypeNumber, NumValue: value, StrValue: str}
}

func (s *scanner) scanString() *Token {
	start := s.index
	quote := s.peek
	s.advance()

	var buf strings.Builder
	for s.peek != quote {
		switch {
		case s.index >= s.length:
			return s.error("Unterminated quote", start)
		case s.peek == '\\':
			s.advance()
			buf.WriteByte(unescape(s.peek))
			s.advance()
		default:
			buf.WriteByte(s.peek)
			s.advance()
		}
	}
	s.advance()
	return s.token(start, TokenTypeString, buf.String())
}

func (s *scanner) error(message string, start int) *Token {
	return &Token{
		Index:    start,
		End:      s.index,
		Type:     TokenTypeError,
		StrValue: "Lexer Error: " + message + " at column " + strconv.Itoa(start) + " in expression [" + s.input + "]",
	}
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentifierStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$'
}

func isIdentifierPart(ch byte) bool {
	return isIdentifierStart(ch) || isDigit(ch)
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 'f':
		return '\f'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	default:
		return ch
	}
}
