// Package parser builds the Ember AST from a token stream.
//
// The grammar is small enough for straightforward recursive descent:
// top-level forms are `def`, `module`, `import`, `use` and immediate
// expressions; expression position admits literals, identifiers, list
// literals and quotation literals. The parser fails fast with a single
// position-annotated error.
package parser

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diagnostics"
	"github.com/emberlang/ember/internal/token"
)

type Parser struct {
	tokens []token.Token
	pos    int
	source string
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// NewWithSource attaches the original source text so errors can render a
// snippet.
func NewWithSource(tokens []token.Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

func (p *Parser) current() token.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1]
	}
	return token.Token{Type: token.EOF}
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) skipNewlines() {
	for p.current().Type == token.NEWLINE {
		p.advance()
	}
}

func (p *Parser) errorf(kind string, tok token.Token, format string, args ...interface{}) *diagnostics.Error {
	return diagnostics.New(diagnostics.BandParse, kind, tok.Pos(), format, args...).WithSource(p.source)
}

// Parse consumes the whole token stream and returns the file's top-level
// nodes in source order.
func (p *Parser) Parse() (*ast.Program, *diagnostics.Error) {
	prog := &ast.Program{}
	if len(p.tokens) > 0 {
		prog.File = p.tokens[0].File
	}

	for {
		p.skipNewlines()
		tok := p.current()
		if tok.Type == token.EOF {
			return prog, nil
		}

		var node ast.Node
		var err *diagnostics.Error
		switch tok.Type {
		case token.DEF:
			node, err = p.parseDef()
		case token.MODULE:
			node, err = p.parseModule()
		case token.IMPORT:
			node, err = p.parseImport()
		case token.USE:
			node, err = p.parseUse()
		default:
			node, err = p.parseNode()
		}
		if err != nil {
			return nil, err
		}
		prog.Nodes = append(prog.Nodes, node)
	}
}

// parseNode parses a single expression-position node.
func (p *Parser) parseNode() (ast.Node, *diagnostics.Error) {
	tok := p.advance()

	switch tok.Type {
	case token.INT:
		return &ast.IntLit{Value: tok.Int, Position: tok.Pos()}, nil
	case token.FLOAT:
		return &ast.FloatLit{Value: tok.Float, Position: tok.Pos()}, nil
	case token.STRING:
		return &ast.StringLit{Value: tok.Str, Position: tok.Pos()}, nil
	case token.BOOL:
		return &ast.BoolLit{Value: tok.Bool, Position: tok.Pos()}, nil

	case token.IDENT:
		return &ast.Ident{Name: tok.Str, Position: tok.Pos()}, nil

	case token.QUALIFIED:
		mod, name := splitQualified(tok.Str)
		return &ast.Ident{Module: mod, Name: name, Position: tok.Pos()}, nil

	case token.LBRACKET:
		return p.parseQuotation(tok)

	case token.LBRACE:
		return p.parseList(tok)

	case token.RBRACKET:
		return nil, p.errorf("MismatchedBrackets", tok, "unmatched ']'")
	case token.RBRACE:
		return nil, p.errorf("MismatchedBrackets", tok, "unmatched '}'")

	case token.END:
		return nil, p.errorf("UnexpectedToken", tok, "'end' without matching 'def' or 'module'")

	case token.EOF:
		return nil, p.errorf("UnexpectedEnd", tok, "unexpected end of input")

	default:
		return nil, p.errorf("UnexpectedToken", tok, "unexpected token %q", tok.Lexeme)
	}
}

// parseDef parses `def NAME body... end`. Nested definitions are rejected.
func (p *Parser) parseDef() (ast.Node, *diagnostics.Error) {
	defTok := p.advance() // consume 'def'

	name := p.advance()
	if name.Type != token.IDENT {
		return nil, p.errorf("ExpectedName", name, "expected word name after 'def', got %q", name.Lexeme)
	}

	var body []ast.Node
	for {
		p.skipNewlines()
		tok := p.current()
		switch tok.Type {
		case token.END:
			p.advance()
			return &ast.Def{Name: name.Str, Body: body, Position: defTok.Pos()}, nil
		case token.EOF:
			return nil, p.errorf("UnexpectedEnd", tok, "unterminated definition of %q (missing 'end')", name.Str)
		case token.DEF:
			return nil, p.errorf("UnexpectedToken", tok, "nested 'def' inside definition of %q", name.Str)
		case token.MODULE, token.IMPORT, token.USE:
			return nil, p.errorf("UnexpectedToken", tok, "%q is not allowed inside a definition", tok.Lexeme)
		default:
			node, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			body = append(body, node)
		}
	}
}

// parseModule parses `module NAME decl* end`. Modules contain only word
// definitions and do not nest.
func (p *Parser) parseModule() (ast.Node, *diagnostics.Error) {
	modTok := p.advance() // consume 'module'

	name := p.advance()
	if name.Type != token.IDENT {
		return nil, p.errorf("ExpectedName", name, "expected module name after 'module', got %q", name.Lexeme)
	}

	var defs []*ast.Def
	for {
		p.skipNewlines()
		tok := p.current()
		switch tok.Type {
		case token.END:
			p.advance()
			return &ast.Module{Name: name.Str, Defs: defs, Position: modTok.Pos()}, nil
		case token.EOF:
			return nil, p.errorf("UnexpectedEnd", tok, "unterminated module %q (missing 'end')", name.Str)
		case token.DEF:
			node, err := p.parseDef()
			if err != nil {
				return nil, err
			}
			defs = append(defs, node.(*ast.Def))
		case token.MODULE:
			return nil, p.errorf("UnexpectedToken", tok, "modules do not nest")
		default:
			return nil, p.errorf("UnexpectedToken", tok, "only definitions are allowed inside a module, got %q", tok.Lexeme)
		}
	}
}

// parseImport parses `import path`, where path is a string literal or a
// bare identifier.
func (p *Parser) parseImport() (ast.Node, *diagnostics.Error) {
	impTok := p.advance() // consume 'import'

	tok := p.advance()
	switch tok.Type {
	case token.STRING:
		return &ast.Import{Path: tok.Str, Position: impTok.Pos()}, nil
	case token.IDENT, token.QUALIFIED:
		return &ast.Import{Path: tok.Str, Position: impTok.Pos()}, nil
	default:
		return nil, p.errorf("ExpectedName", tok, "expected import path after 'import', got %q", tok.Lexeme)
	}
}

// parseUse parses `use MODULE name1 name2 ...` or `use MODULE *`. The name
// list runs to the end of the line.
func (p *Parser) parseUse() (ast.Node, *diagnostics.Error) {
	useTok := p.advance() // consume 'use'

	mod := p.advance()
	if mod.Type != token.IDENT {
		return nil, p.errorf("ExpectedName", mod, "expected module name after 'use', got %q", mod.Lexeme)
	}

	// The name list is a run of identifiers; a newline or any non-identifier
	// token ends it, so `use M sq  7 sq print` aliases only `sq`.
	use := &ast.Use{Module: mod.Str, Position: useTok.Pos()}
	for p.current().Type == token.IDENT {
		tok := p.advance()
		if tok.Str == "*" {
			use.Wildcard = true
			break
		}
		use.Names = append(use.Names, tok.Str)
	}

	if use.Wildcard && len(use.Names) > 0 {
		return nil, p.errorf("UnexpectedToken", mod, "'use %s *' cannot be combined with explicit names", mod.Str)
	}
	if !use.Wildcard && len(use.Names) == 0 {
		return nil, p.errorf("ExpectedName", mod, "'use %s' names no words", mod.Str)
	}
	return use, nil
}

// parseQuotation parses `[ body... ]`; the opening bracket has already been
// consumed.
func (p *Parser) parseQuotation(open token.Token) (ast.Node, *diagnostics.Error) {
	var body []ast.Node
	for {
		p.skipNewlines()
		tok := p.current()
		switch tok.Type {
		case token.RBRACKET:
			p.advance()
			return &ast.QuotationLit{Body: body, Position: open.Pos()}, nil
		case token.EOF:
			return nil, p.errorf("MismatchedBrackets", open, "unterminated quotation (missing ']')")
		case token.DEF, token.MODULE, token.IMPORT, token.USE:
			return nil, p.errorf("UnexpectedToken", tok, "%q is not allowed inside a quotation", tok.Lexeme)
		default:
			node, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			body = append(body, node)
		}
	}
}

// parseList parses `{ value... }`; the opening brace has already been
// consumed. Elements must be literal values.
func (p *Parser) parseList(open token.Token) (ast.Node, *diagnostics.Error) {
	var items []ast.Node
	for {
		p.skipNewlines()
		tok := p.current()
		switch tok.Type {
		case token.RBRACE:
			p.advance()
			return &ast.ListLit{Items: items, Position: open.Pos()}, nil
		case token.EOF:
			return nil, p.errorf("MismatchedBrackets", open, "unterminated list (missing '}')")
		case token.INT, token.FLOAT, token.STRING, token.BOOL, token.LBRACE:
			node, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			items = append(items, node)
		default:
			return nil, p.errorf("UnexpectedToken", tok,
				"list literals may contain only literal values, got %q", tok.Lexeme)
		}
	}
}

func splitQualified(s string) (module, name string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i], s[i+1:]
		}
	}
	return "", s
}
