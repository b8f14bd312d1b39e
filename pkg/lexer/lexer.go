// Package lexer implements the uuu language tokenizer.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/uuu/pkg/ast"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokVar TokenType = iota
	TokFn
	TokWhile
	TokFor
	TokIf
	TokElse
	TokTrue
	TokFalse
	TokClass
	TokSuper
	TokSelf
	TokReturn
	TokContinue
	TokBreak
	TokSwitch
	TokNull

	// Literals
	TokNumberLit
	TokStringLit

	// Identifiers
	TokIdent

	// Punctuation
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokComma     // ,
	TokDot       // .
	TokSemicolon // ;
	TokQuestion  // ?
	TokColon     // :

	// Operators
	TokMinus  // -
	TokPlus   // +
	TokSlash  // /
	TokStar   // *
	TokBang   // !
	TokBangEq // !=
	TokEquals // =
	TokEqEq   // ==
	TokGt     // >
	TokGtEq   // >=
	TokLt     // <
	TokLtEq   // <=
	TokAnd    // &
	TokOr     // |

	// Special
	TokEOF
)

var tokenNames = [...]string{
	TokVar: "VAR", TokFn: "FN", TokWhile: "WHILE", TokFor: "FOR", TokIf: "IF",
	TokElse: "ELSE", TokTrue: "TRUE", TokFalse: "FALSE", TokClass: "CLASS",
	TokSuper: "SUPER", TokSelf: "SELF", TokReturn: "RETURN", TokContinue: "CONTINUE",
	TokBreak: "BREAK", TokSwitch: "SWITCH", TokNull: "NULL",
	TokNumberLit: "NUMBER", TokStringLit: "STRING", TokIdent: "IDENTIFIER",
	TokLParen: "LEFT_PAREN", TokRParen: "RIGHT_PAREN", TokLBrace: "LEFT_BRACE",
	TokRBrace: "RIGHT_BRACE", TokComma: "COMMA", TokDot: "DOT", TokSemicolon: "SEMICOLON",
	TokQuestion: "QUESTION", TokColon: "COLON", TokMinus: "MINUS", TokPlus: "PLUS",
	TokSlash: "SLASH", TokStar: "STAR", TokBang: "BANG", TokBangEq: "BANG_EQUAL",
	TokEquals: "EQUAL", TokEqEq: "EQUAL_EQUAL", TokGt: "GREATER", TokGtEq: "GREATER_EQUAL",
	TokLt: "LESS", TokLtEq: "LESS_EQUAL", TokAnd: "AND", TokOr: "OR", TokEOF: "EOF",
}

func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a single lexer token. For string literals Value holds the
// unquoted contents; for everything else it holds the lexeme.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

var keywords = map[string]TokenType{
	"var":      TokVar,
	"fn":       TokFn,
	"while":    TokWhile,
	"for":      TokFor,
	"if":       TokIf,
	"else":     TokElse,
	"true":     TokTrue,
	"false":    TokFalse,
	"class":    TokClass,
	"super":    TokSuper,
	"self":     TokSelf,
	"return":   TokReturn,
	"continue": TokContinue,
	"break":    TokBreak,
	"switch":   TokSwitch,
	"null":     TokNull,
}

// IsKeyword reports whether t is a reserved word.
func IsKeyword(t TokenType) bool {
	return t >= TokVar && t <= TokNull
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == '/' && s.peekAt(1) == '/' {
			// Skip comment to end of line
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

// scanString reads a double-quoted string. Strings may span lines.
func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance() // consume closing "
			return Token{
				Type:  TokStringLit,
				Value: buf.String(),
				Span:  s.span(startLine, startCol),
			}, nil
		}
		if ch == '\\' {
			s.advance() // consume backslash
			if s.atEnd() {
				break
			}
			esc := s.advance()
			switch esc {
			case '"':
				buf.WriteByte('"')
			case '\\':
				buf.WriteByte('\\')
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			default:
				return Token{}, s.lexError(diagnostics.ELex, startLine, startCol, fmt.Sprintf("invalid escape character: \\%c", esc))
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(s.source[s.pos:])
		if r == utf8.RuneError && size == 1 {
			return Token{}, s.lexError(diagnostics.ELex, startLine, startCol, "invalid UTF-8 character in string")
		}
		buf.WriteRune(r)
		for i := 0; i < size; i++ {
			s.advance()
		}
	}
	return Token{}, s.lexError(diagnostics.EUnexpectedEOF, startLine, startCol, "unterminated string literal")
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	// A fractional part needs a digit after the dot, so `1.foo` stays a get.
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance() // consume '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	return Token{
		Type:  TokNumberLit,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	if tokType, ok := keywords[text]; ok {
		return Token{
			Type:  tokType,
			Value: text,
			Span:  s.span(startLine, startCol),
		}
	}

	return Token{
		Type:  TokIdent,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(code string, line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		code,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// simpleTokens maps single-byte punctuation that never starts a longer token.
var simpleTokens = map[byte]TokenType{
	'(': TokLParen,
	')': TokRParen,
	'{': TokLBrace,
	'}': TokRBrace,
	',': TokComma,
	'.': TokDot,
	';': TokSemicolon,
	'?': TokQuestion,
	':': TokColon,
	'-': TokMinus,
	'+': TokPlus,
	'/': TokSlash,
	'*': TokStar,
	'&': TokAnd,
	'|': TokOr,
}

// pairTokens maps a byte that may be followed by '=' to its short and long forms.
var pairTokens = map[byte][2]TokenType{
	'!': {TokBang, TokBangEq},
	'=': {TokEquals, TokEqEq},
	'>': {TokGt, TokGtEq},
	'<': {TokLt, TokLtEq},
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	if typ, ok := simpleTokens[ch]; ok {
		s.advance()
		return Token{Type: typ, Value: string(ch), Span: s.span(startLine, startCol)}, nil
	}

	if pair, ok := pairTokens[ch]; ok {
		s.advance()
		if s.peek() == '=' {
			s.advance()
			return Token{Type: pair[1], Value: string(ch) + "=", Span: s.span(startLine, startCol)}, nil
		}
		return Token{Type: pair[0], Value: string(ch), Span: s.span(startLine, startCol)}, nil
	}

	if isDigit(ch) {
		return s.scanNumber(), nil
	}

	if ch == '"' {
		return s.scanString()
	}

	if isAlpha(ch) {
		return s.scanIdentOrKeyword(), nil
	}

	s.advance()
	return Token{}, s.lexError(diagnostics.ELex, startLine, startCol, fmt.Sprintf("unexpected character '%c'", ch))
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
