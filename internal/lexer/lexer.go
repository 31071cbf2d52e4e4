// Package lexer turns Ember source text into a token stream.
//
// Tokens are produced greedily, longest match first. Whitespace separates
// tokens, `;` starts a comment that runs to the end of the line, and the
// only reserved delimiters are `{ } [ ]` plus the string quote. Everything
// else is identifier territory, which is what allows words like `fizz?`,
// `alive?` and `square-and-double`.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/emberlang/ember/internal/diagnostics"
	"github.com/emberlang/ember/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
	file         string
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// NewFile creates a lexer whose tokens carry the given file name.
func NewFile(input, file string) *Lexer {
	l := New(input)
	l.file = file
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// Tokenize consumes the whole input and returns the token stream, ending
// with an EOF token. Comments are discarded; newlines are kept (the parser
// needs them to delimit `use` directives).
func (l *Lexer) Tokenize() ([]token.Token, *diagnostics.Error) {
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err.WithSource(l.input)
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) NextToken() (token.Token, *diagnostics.Error) {
	l.skipWhitespace()

	// Comments run to the next newline and are discarded.
	for l.ch == ';' {
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		l.skipWhitespace()
	}

	startLine, startCol := l.line, l.column

	switch {
	case l.ch == 0:
		return token.Token{Type: token.EOF, Line: startLine, Column: startCol, File: l.file}, nil

	case l.ch == '\n':
		l.readChar()
		return token.Token{Type: token.NEWLINE, Lexeme: "\n", Line: startLine, Column: startCol, File: l.file}, nil

	case l.ch == '[':
		l.readChar()
		return token.Token{Type: token.LBRACKET, Lexeme: "[", Line: startLine, Column: startCol, File: l.file}, nil

	case l.ch == ']':
		l.readChar()
		return token.Token{Type: token.RBRACKET, Lexeme: "]", Line: startLine, Column: startCol, File: l.file}, nil

	case l.ch == '{':
		l.readChar()
		return token.Token{Type: token.LBRACE, Lexeme: "{", Line: startLine, Column: startCol, File: l.file}, nil

	case l.ch == '}':
		l.readChar()
		return token.Token{Type: token.RBRACE, Lexeme: "}", Line: startLine, Column: startCol, File: l.file}, nil

	case l.ch == '"':
		return l.readString(startLine, startCol)

	case unicode.IsDigit(l.ch) || (l.ch == '-' && unicode.IsDigit(l.peekChar())):
		return l.readNumber(startLine, startCol)

	case isIdentChar(l.ch):
		return l.readWord(startLine, startCol)

	default:
		return token.Token{}, diagnostics.New(diagnostics.BandLex, "UnexpectedCharacter",
			token.Position{File: l.file, Line: startLine, Column: startCol},
			"unexpected character %q", l.ch)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readString(startLine, startCol int) (token.Token, *diagnostics.Error) {
	l.readChar() // consume opening quote

	var sb strings.Builder
	for {
		switch l.ch {
		case 0, '\n':
			return token.Token{}, diagnostics.New(diagnostics.BandLex, "UnterminatedString",
				token.Position{File: l.file, Line: startLine, Column: startCol},
				"unterminated string literal")
		case '\\':
			l.readChar()
			switch l.ch {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				return token.Token{}, diagnostics.New(diagnostics.BandLex, "InvalidEscape",
					token.Position{File: l.file, Line: l.line, Column: l.column},
					"invalid escape sequence \\%c", l.ch)
			}
			l.readChar()
		case '"':
			l.readChar() // consume closing quote
			return token.Token{
				Type: token.STRING, Lexeme: `"` + sb.String() + `"`, Str: sb.String(),
				Line: startLine, Column: startCol, File: l.file,
			}, nil
		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

func (l *Lexer) readNumber(startLine, startCol int) (token.Token, *diagnostics.Error) {
	var sb strings.Builder

	negative := false
	if l.ch == '-' {
		negative = true
		sb.WriteByte('-')
		l.readChar()
	}

	// Hex: 0x... or 0X...
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		var hex strings.Builder
		for isHexDigit(l.ch) {
			hex.WriteRune(l.ch)
			l.readChar()
		}
		if hex.Len() == 0 {
			return token.Token{}, diagnostics.New(diagnostics.BandLex, "InvalidNumber",
				token.Position{File: l.file, Line: startLine, Column: startCol},
				"expected hex digits after 0x")
		}
		v, err := strconv.ParseInt(hex.String(), 16, 64)
		if err != nil {
			return token.Token{}, diagnostics.New(diagnostics.BandLex, "InvalidNumber",
				token.Position{File: l.file, Line: startLine, Column: startCol},
				"invalid hex number: 0x%s", hex.String())
		}
		if negative {
			v = -v
		}
		return token.Token{Type: token.INT, Lexeme: sb.String() + "0x" + hex.String(), Int: v,
			Line: startLine, Column: startCol, File: l.file}, nil
	}

	hasDot := false
	for {
		if unicode.IsDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		} else if l.ch == '.' && !hasDot && unicode.IsDigit(l.peekChar()) {
			// Only a decimal point when followed by a digit; `1.` is the
			// integer 1 followed by the concat word.
			hasDot = true
			sb.WriteByte('.')
			l.readChar()
		} else {
			break
		}
	}

	text := sb.String()
	if hasDot {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token.Token{}, diagnostics.New(diagnostics.BandLex, "InvalidNumber",
				token.Position{File: l.file, Line: startLine, Column: startCol},
				"invalid float: %s", text)
		}
		return token.Token{Type: token.FLOAT, Lexeme: text, Float: v,
			Line: startLine, Column: startCol, File: l.file}, nil
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token.Token{}, diagnostics.New(diagnostics.BandLex, "InvalidNumber",
			token.Position{File: l.file, Line: startLine, Column: startCol},
			"invalid integer: %s", text)
	}
	return token.Token{Type: token.INT, Lexeme: text, Int: v,
		Line: startLine, Column: startCol, File: l.file}, nil
}

// readWord reads an identifier-like token: any run of characters that are
// not whitespace, delimiters, quotes or comment starts.
func (l *Lexer) readWord(startLine, startCol int) (token.Token, *diagnostics.Error) {
	var sb strings.Builder
	for isIdentChar(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	word := sb.String()

	tok := token.Token{Lexeme: word, Line: startLine, Column: startCol, File: l.file}

	switch word {
	case "true":
		tok.Type = token.BOOL
		tok.Bool = true
		return tok, nil
	case "false":
		tok.Type = token.BOOL
		tok.Bool = false
		return tok, nil
	}

	if t := token.LookupKeyword(word); t != token.IDENT {
		tok.Type = t
		return tok, nil
	}

	// The dot is only significant when sandwiched between identifier
	// characters: `M.sq` is qualified, a lone `.` is the concat word.
	if i := strings.IndexByte(word, '.'); i > 0 && i < len(word)-1 {
		tok.Type = token.QUALIFIED
		tok.Str = word
		return tok, nil
	}

	tok.Type = token.IDENT
	tok.Str = word
	return tok, nil
}

func isIdentChar(ch rune) bool {
	if ch == 0 || unicode.IsSpace(ch) {
		return false
	}
	switch ch {
	case '[', ']', '{', '}', '"', ';':
		return false
	}
	return unicode.IsGraphic(ch)
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
