// Package ast defines the syntax tree produced by the parser.
//
// A program is a flat sequence of top-level nodes: word definitions, module
// blocks, import/use directives, and immediate expressions. Expression
// bodies are themselves node sequences; concatenative programs have no
// deeper expression structure than that.
package ast

import (
	"fmt"
	"strings"

	"github.com/emberlang/ember/internal/token"
)

type Node interface {
	Pos() token.Position
	String() string
}

// Program is the parsed contents of a single source file.
type Program struct {
	Nodes []Node
	File  string
}

// IntLit is an integer literal.
type IntLit struct {
	Value    int64
	Position token.Position
}

func (n *IntLit) Pos() token.Position { return n.Position }
func (n *IntLit) String() string      { return fmt.Sprintf("%d", n.Value) }

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value    float64
	Position token.Position
}

func (n *FloatLit) Pos() token.Position { return n.Position }
func (n *FloatLit) String() string      { return fmt.Sprintf("%g", n.Value) }

// StringLit is a string literal.
type StringLit struct {
	Value    string
	Position token.Position
}

func (n *StringLit) Pos() token.Position { return n.Position }
func (n *StringLit) String() string      { return fmt.Sprintf("%q", n.Value) }

// BoolLit is a boolean literal.
type BoolLit struct {
	Value    bool
	Position token.Position
}

func (n *BoolLit) Pos() token.Position { return n.Position }
func (n *BoolLit) String() string      { return fmt.Sprintf("%t", n.Value) }

// ListLit is a `{ ... }` list literal. Elements are restricted to literal
// values (including nested lists) by the parser.
type ListLit struct {
	Items    []Node
	Position token.Position
}

func (n *ListLit) Pos() token.Position { return n.Position }
func (n *ListLit) String() string {
	parts := make([]string, len(n.Items))
	for i, item := range n.Items {
		parts[i] = item.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// QuotationLit is a `[ ... ]` quotation literal.
type QuotationLit struct {
	Body     []Node
	Position token.Position
}

func (n *QuotationLit) Pos() token.Position { return n.Position }
func (n *QuotationLit) String() string {
	parts := make([]string, len(n.Body))
	for i, item := range n.Body {
		parts[i] = item.String()
	}
	return "[ " + strings.Join(parts, " ") + " ]"
}

// Ident is a word reference. Module is empty for bare identifiers;
// for `M.sq` Module is "M" and Name is "sq".
type Ident struct {
	Module   string
	Name     string
	Position token.Position
}

func (n *Ident) Pos() token.Position { return n.Position }
func (n *Ident) String() string {
	if n.Module != "" {
		return n.Module + "." + n.Name
	}
	return n.Name
}

// Qualified reports whether the identifier was written with a module prefix.
func (n *Ident) Qualified() bool { return n.Module != "" }

// Def is a `def NAME body... end` word definition.
type Def struct {
	Name     string
	Body     []Node
	Position token.Position
}

func (n *Def) Pos() token.Position { return n.Position }
func (n *Def) String() string      { return fmt.Sprintf("def %s ... end", n.Name) }

// Module is a `module NAME decl* end` block. It contains only definitions.
type Module struct {
	Name     string
	Defs     []*Def
	Position token.Position
}

func (n *Module) Pos() token.Position { return n.Position }
func (n *Module) String() string      { return fmt.Sprintf("module %s ... end", n.Name) }

// Import is an `import path` directive.
type Import struct {
	Path     string
	Position token.Position
}

func (n *Import) Pos() token.Position { return n.Position }
func (n *Import) String() string      { return fmt.Sprintf("import %s", n.Path) }

// Use is a `use MODULE name...` directive. Wildcard means `use MODULE *`.
type Use struct {
	Module   string
	Names    []string
	Wildcard bool
	Position token.Position
}

func (n *Use) Pos() token.Position { return n.Position }
func (n *Use) String() string {
	if n.Wildcard {
		return fmt.Sprintf("use %s *", n.Module)
	}
	return fmt.Sprintf("use %s %s", n.Module, strings.Join(n.Names, " "))
}
