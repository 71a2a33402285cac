// Package lexer turns fruti source text into a token stream.
//
// Lexing is total: malformed input produces diagnostics and best-effort
// tokens, never a panic or an early stop. The stream always ends with a
// TokenEOF token.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/source"
)

// Lexer scans one source file. It keeps the whole file in memory and walks it
// with one rune of lookahead.
type Lexer struct {
	source   string
	filename string
	diags    *diag.Collector

	// start is the byte offset of the token being scanned, current the
	// offset of the next unread byte.
	start   int
	current int

	// line is the 1-based line of current, lineStart the offset where that
	// line begins. Columns are derived from them on demand.
	line      int
	lineStart int

	// startPos is the position of start, captured when a token begins.
	startPos source.Position
}

// New creates a Lexer over source. Diagnostics are appended to diags.
func New(src, filename string, diags *diag.Collector) *Lexer {
	if diags == nil {
		diags = diag.NewCollector()
	}
	return &Lexer{
		source:   src,
		filename: filename,
		diags:    diags,
		line:     1,
	}
}

// Tokenize scans the whole of src and returns its tokens, terminated by EOF.
func Tokenize(src, filename string, diags *diag.Collector) []Token {
	l := New(src, filename, diags)
	tokens := make([]Token, 0, len(src)/4+1)
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// NextToken returns the next token. After the end of input it keeps
// returning TokenEOF.
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespaceAndComments()
		l.begin()

		if l.isAtEnd() {
			return l.makeToken(TokenEOF)
		}

		ch := l.advance()

		if isLetter(ch) {
			return l.scanIdentifier()
		}
		if isDigit(ch) {
			return l.scanNumber()
		}

		if tok, ok := l.scanOperator(ch); ok {
			return tok
		}

		switch ch {
		case '"':
			return l.scanString()
		case '\'':
			return l.scanChar()
		}

		l.errorf(diag.KindInvalidCharacter, l.span(), "invalid character %q", ch)
	}
}

// scanOperator recognises operators and delimiters by maximal munch.
func (l *Lexer) scanOperator(ch rune) (Token, bool) {
	switch ch {
	case '(':
		return l.makeToken(TokenLeftParen), true
	case ')':
		return l.makeToken(TokenRightParen), true
	case '{':
		return l.makeToken(TokenLeftBrace), true
	case '}':
		return l.makeToken(TokenRightBrace), true
	case '[':
		return l.makeToken(TokenLeftBracket), true
	case ']':
		return l.makeToken(TokenRightBracket), true
	case ';':
		return l.makeToken(TokenSemicolon), true
	case ',':
		return l.makeToken(TokenComma), true
	case '+':
		return l.makeToken(l.either('=', TokenPlusEq, TokenPlus)), true
	case '-':
		if l.match('>') {
			return l.makeToken(TokenArrow), true
		}
		return l.makeToken(l.either('=', TokenMinusEq, TokenMinus)), true
	case '*':
		return l.makeToken(l.either('=', TokenStarEq, TokenStar)), true
	case '/':
		return l.makeToken(l.either('=', TokenSlashEq, TokenSlash)), true
	case '%':
		return l.makeToken(l.either('=', TokenPercentEq, TokenPercent)), true
	case '=':
		return l.makeToken(l.either('=', TokenEqual, TokenAssign)), true
	case '!':
		return l.makeToken(l.either('=', TokenNotEqual, TokenNot)), true
	case '<':
		return l.makeToken(l.either('=', TokenLessEqual, TokenLess)), true
	case '>':
		return l.makeToken(l.either('=', TokenGreaterEqual, TokenGreater)), true
	case ':':
		return l.makeToken(l.either(':', TokenColonColon, TokenColon)), true
	case '&':
		if l.match('&') {
			return l.makeToken(TokenAnd), true
		}
	case '|':
		if l.match('|') {
			return l.makeToken(TokenOr), true
		}
	case '.':
		if l.match('.') {
			return l.makeToken(l.either('=', TokenDotDotEq, TokenDotDot)), true
		}
		return l.makeToken(TokenDot), true
	}
	return Token{}, false
}

// either consumes next and returns yes if it follows, otherwise returns no.
func (l *Lexer) either(next rune, yes, no TokenType) TokenType {
	if l.match(next) {
		return yes
	}
	return no
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	if ch == '\n' {
		l.line++
		l.lineStart = l.current
	}
	return ch
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return ch
}

func (l *Lexer) peekNext() rune {
	if l.isAtEnd() {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.current:])
	if l.current+size >= len(l.source) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current+size:])
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.peek() != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// skipWhitespaceAndComments discards whitespace, line comments and block
// comments. Block comments do not nest: the first "*/" closes the comment.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		ch := l.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' || ch == '\v':
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekNext() == '*':
			l.begin()
			l.advance()
			l.advance()
			l.skipBlockComment()
		default:
			return
		}
	}
}

func (l *Lexer) skipBlockComment() {
	opening := source.Span{Start: l.startPos, End: l.position(l.start + 2)}
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
	l.errorf(diag.KindUnterminatedComment, opening, "unterminated block comment")
}

func (l *Lexer) scanIdentifier() Token {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	text := l.source[l.start:l.current]
	return l.makeToken(LookupKeyword(text))
}

// scanNumber scans integer and float literals. A '.' only continues the
// literal when a digit follows, so "1..3" lexes as 1, .., 3. Underscores may
// separate digits and are dropped from the token value. Integers may carry a
// 0x, 0b or 0o prefix.
func (l *Lexer) scanNumber() Token {
	if l.source[l.start] == '0' && l.current == l.start+1 {
		if base := radix(l.peek()); base != 0 {
			return l.scanRadixInt(base)
		}
	}

	typ := TokenInt
	l.digits()

	if l.peek() == '.' && isDigit(l.peekNext()) {
		typ = TokenFloat
		l.advance()
		l.digits()
	}

	if p := l.peek(); p == 'e' || p == 'E' {
		save, saveLine, saveLineStart := l.current, l.line, l.lineStart
		l.advance()
		if s := l.peek(); s == '+' || s == '-' {
			l.advance()
		}
		if isDigit(l.peek()) {
			typ = TokenFloat
			l.digits()
		} else {
			l.current, l.line, l.lineStart = save, saveLine, saveLineStart
		}
	}

	valueEnd := l.current
	if isLetter(l.peek()) {
		for isLetter(l.peek()) || isDigit(l.peek()) {
			l.advance()
		}
		l.errorf(diag.KindInvalidNumber, l.span(), "invalid suffix %q on number literal",
			l.source[valueEnd:l.current])
	}

	tok := l.makeToken(typ)
	tok.Value = strings.ReplaceAll(l.source[l.start:valueEnd], "_", "")
	return tok
}

// scanRadixInt scans the digits of a prefixed integer after its leading 0.
// The token value keeps the prefix in lower case, so "0XFF" becomes "0xFF".
func (l *Lexer) scanRadixInt(base int) Token {
	prefix := unicode.ToLower(l.advance())
	digitsStart := l.current
	for isDigitIn(l.peek(), base) || (l.peek() == '_' && isDigitIn(l.peekNext(), base)) {
		l.advance()
	}
	valueEnd := l.current

	if isLetter(l.peek()) || isDigit(l.peek()) {
		for isLetter(l.peek()) || isDigit(l.peek()) {
			l.advance()
		}
		l.errorf(diag.KindInvalidNumber, l.span(), "invalid digit %q in base-%d literal",
			l.source[valueEnd:l.current], base)
	} else if valueEnd == digitsStart {
		l.errorf(diag.KindInvalidNumber, l.span(), "missing digits after %q", l.source[l.start:l.current])
	}

	tok := l.makeToken(TokenInt)
	tok.Value = "0"
	if valueEnd > digitsStart {
		tok.Value = "0" + string(prefix) + strings.ReplaceAll(l.source[digitsStart:valueEnd], "_", "")
	}
	return tok
}

// radix returns the base selected by the letter after a leading 0, or 0.
func radix(ch rune) int {
	switch ch {
	case 'x', 'X':
		return 16
	case 'b', 'B':
		return 2
	case 'o', 'O':
		return 8
	}
	return 0
}

func isDigitIn(ch rune, base int) bool {
	switch base {
	case 2:
		return ch == '0' || ch == '1'
	case 8:
		return ch >= '0' && ch <= '7'
	case 16:
		return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
	}
	return isDigit(ch)
}

func (l *Lexer) digits() {
	for isDigit(l.peek()) || (l.peek() == '_' && isDigit(l.peekNext())) {
		l.advance()
	}
}

// scanString scans a string literal after its opening quote. A newline or
// the end of input before the closing quote reports UnterminatedString; the
// token still covers the text consumed so far.
func (l *Lexer) scanString() Token {
	var sb strings.Builder
	for {
		if l.isAtEnd() || l.peek() == '\n' {
			l.errorf(diag.KindUnterminatedString, l.span(), "unterminated string literal")
			break
		}
		ch := l.advance()
		if ch == '"' {
			break
		}
		if ch == '\\' {
			sb.WriteRune(l.escape('"'))
			continue
		}
		sb.WriteRune(ch)
	}
	tok := l.makeToken(TokenString)
	tok.Value = sb.String()
	return tok
}

// scanChar scans a character literal after its opening quote.
func (l *Lexer) scanChar() Token {
	var runes []rune
	terminated := false
	for !l.isAtEnd() && l.peek() != '\n' {
		ch := l.advance()
		if ch == '\'' {
			terminated = true
			break
		}
		if ch == '\\' {
			runes = append(runes, l.escape('\''))
			continue
		}
		runes = append(runes, ch)
	}

	switch {
	case !terminated:
		l.errorf(diag.KindUnterminatedChar, l.span(), "unterminated character literal")
	case len(runes) == 0:
		l.errorf(diag.KindInvalidChar, l.span(), "empty character literal")
	case len(runes) > 1:
		l.errorf(diag.KindInvalidChar, l.span(), "character literal may only contain one character")
	}

	tok := l.makeToken(TokenChar)
	tok.Value = ""
	if len(runes) > 0 {
		tok.Value = string(runes[0])
	}
	return tok
}

// escape decodes the escape sequence following a backslash. An unknown escape
// is reported and decodes to the escaped rune itself.
func (l *Lexer) escape(quote rune) rune {
	escStart := l.current - 1
	if l.isAtEnd() || l.peek() == '\n' {
		return '\\'
	}
	ch := l.advance()
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\', '"', '\'':
		return ch
	}
	l.errorf(diag.KindInvalidEscape, source.Span{Start: l.position(escStart), End: l.position(l.current)},
		"unknown escape sequence \\%c in %c-quoted literal", ch, quote)
	return ch
}

// begin marks the current offset as the start of a token.
func (l *Lexer) begin() {
	l.start = l.current
	l.startPos = l.position(l.current)
}

// position returns the source position of offset, which must not precede
// the start of the current line.
func (l *Lexer) position(offset int) source.Position {
	return source.Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   utf8.RuneCountInString(l.source[l.lineStart:offset]) + 1,
		Offset:   offset,
	}
}

// span returns the span from the token start to the current offset.
func (l *Lexer) span() source.Span {
	return source.Span{Start: l.startPos, End: l.position(l.current)}
}

func (l *Lexer) makeToken(typ TokenType) Token {
	text := l.source[l.start:l.current]
	return Token{
		Type:   typ,
		Lexeme: text,
		Value:  text,
		Span:   l.span(),
	}
}

func (l *Lexer) errorf(kind diag.Kind, span source.Span, format string, args ...any) {
	l.diags.Errorf(diag.PhaseLexer, kind, span, format, args...)
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
