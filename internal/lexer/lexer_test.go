package lexer

import (
	"testing"

	"github.com/emberlang/ember/internal/token"
)

// tokens lexes the input and drops NEWLINE/EOF, returning just the
// interesting tokens.
func tokens(t *testing.T, input string) []token.Token {
	t.Helper()
	all, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("lexer error: %s", err)
	}
	var out []token.Token
	for _, tok := range all {
		if tok.Type == token.NEWLINE || tok.Type == token.EOF {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func lexError(t *testing.T, input string) string {
	t.Helper()
	_, err := New(input).Tokenize()
	if err == nil {
		t.Fatalf("expected lexer error for %q", input)
	}
	return err.Kind
}

func TestHelloWorld(t *testing.T) {
	toks := tokens(t, `"hello world" print`)
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(toks))
	}
	if toks[0].Type != token.STRING || toks[0].Str != "hello world" {
		t.Errorf("wrong string token: %+v", toks[0])
	}
	if toks[1].Type != token.IDENT || toks[1].Str != "print" {
		t.Errorf("wrong ident token: %+v", toks[1])
	}
}

func TestIntegers(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"0", 0},
		{"42", 42},
		{"-7", -7},
		{"0xff", 255},
		{"-0x10", -16},
		{"9223372036854775807", 9223372036854775807},
	}
	for _, tt := range tests {
		toks := tokens(t, tt.input)
		if len(toks) != 1 || toks[0].Type != token.INT {
			t.Fatalf("%q: expected one INT token, got %+v", tt.input, toks)
		}
		if toks[0].Int != tt.want {
			t.Errorf("%q: got %d, want %d", tt.input, toks[0].Int, tt.want)
		}
	}
}

func TestFloats(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"3.14", 3.14},
		{"-2.5", -2.5},
		{"0.0", 0.0},
	}
	for _, tt := range tests {
		toks := tokens(t, tt.input)
		if len(toks) != 1 || toks[0].Type != token.FLOAT {
			t.Fatalf("%q: expected one FLOAT token, got %+v", tt.input, toks)
		}
		if toks[0].Float != tt.want {
			t.Errorf("%q: got %g, want %g", tt.input, toks[0].Float, tt.want)
		}
	}
}

func TestDotNotDecimalPoint(t *testing.T) {
	// `1.` is the integer 1 followed by the concat word.
	toks := tokens(t, "1. print")
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %+v", toks)
	}
	if toks[0].Type != token.INT || toks[0].Int != 1 {
		t.Errorf("expected INT 1, got %+v", toks[0])
	}
	if toks[1].Type != token.IDENT || toks[1].Str != "." {
		t.Errorf("expected '.' ident, got %+v", toks[1])
	}
}

func TestBooleans(t *testing.T) {
	toks := tokens(t, "true false")
	if toks[0].Type != token.BOOL || toks[0].Bool != true {
		t.Errorf("expected true, got %+v", toks[0])
	}
	if toks[1].Type != token.BOOL || toks[1].Bool != false {
		t.Errorf("expected false, got %+v", toks[1])
	}
}

func TestPunctuationIdentifiers(t *testing.T) {
	for _, name := range []string{"fizz?", "alive?", "square-and-double", "set!", "+", "<=", "%", "*"} {
		toks := tokens(t, name)
		if len(toks) != 1 || toks[0].Type != token.IDENT || toks[0].Str != name {
			t.Errorf("%q: got %+v", name, toks)
		}
	}
}

func TestQualifiedIdentifier(t *testing.T) {
	toks := tokens(t, "Math.sq")
	if len(toks) != 1 || toks[0].Type != token.QUALIFIED || toks[0].Str != "Math.sq" {
		t.Fatalf("got %+v", toks)
	}

	// A lone dot is the concat word, not a qualified name.
	toks = tokens(t, ".")
	if len(toks) != 1 || toks[0].Type != token.IDENT {
		t.Fatalf("got %+v", toks)
	}
}

func TestKeywordsAndDelimiters(t *testing.T) {
	toks := tokens(t, "def end module import use [ ] { }")
	want := []token.TokenType{
		token.DEF, token.END, token.MODULE, token.IMPORT, token.USE,
		token.LBRACKET, token.RBRACKET, token.LBRACE, token.RBRACE,
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(toks))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks := tokens(t, `"a\nb\tc\"d\\e"`)
	if toks[0].Str != "a\nb\tc\"d\\e" {
		t.Errorf("wrong escape handling: %q", toks[0].Str)
	}
}

func TestCommentsDiscarded(t *testing.T) {
	toks := tokens(t, "1 ; this is a comment\n2")
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %+v", toks)
	}
	if toks[0].Int != 1 || toks[1].Int != 2 {
		t.Errorf("wrong tokens around comment: %+v", toks)
	}
}

func TestPositions(t *testing.T) {
	all, err := NewFile("1\n  two", "test.em").Tokenize()
	if err != nil {
		t.Fatalf("lexer error: %s", err)
	}
	if all[0].Line != 1 || all[0].Column != 1 {
		t.Errorf("first token at %d:%d, want 1:1", all[0].Line, all[0].Column)
	}
	// all[1] is the newline; all[2] is `two`
	if all[2].Line != 2 || all[2].Column != 3 {
		t.Errorf("`two` at %d:%d, want 2:3", all[2].Line, all[2].Column)
	}
	if all[2].File != "test.em" {
		t.Errorf("file not carried: %q", all[2].File)
	}
}

func TestUnterminatedString(t *testing.T) {
	if kind := lexError(t, `"oops`); kind != "UnterminatedString" {
		t.Errorf("got kind %q", kind)
	}
	if kind := lexError(t, "\"oops\nmore\""); kind != "UnterminatedString" {
		t.Errorf("newline in string: got kind %q", kind)
	}
}

func TestInvalidEscape(t *testing.T) {
	if kind := lexError(t, `"\q"`); kind != "InvalidEscape" {
		t.Errorf("got kind %q", kind)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	if kind := lexError(t, "1 \x01 2"); kind != "UnexpectedCharacter" {
		t.Errorf("got kind %q", kind)
	}
}

func TestNegativeRequiresDigit(t *testing.T) {
	// A bare `-` is the subtraction word.
	toks := tokens(t, "5 3 -")
	if toks[2].Type != token.IDENT || toks[2].Str != "-" {
		t.Errorf("bare minus: got %+v", toks[2])
	}

	// `x-1` is a single identifier, not subtraction.
	toks = tokens(t, "x-1")
	if len(toks) != 1 || toks[0].Type != token.IDENT || toks[0].Str != "x-1" {
		t.Errorf("x-1: got %+v", toks)
	}
}
