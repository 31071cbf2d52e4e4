package vm

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diagnostics"
	"github.com/emberlang/ember/internal/loader"
	"github.com/emberlang/ember/internal/token"
)

// Compiler lowers the loader's word table and root expressions to a linked
// bytecode Program.
//
// Lowering strategy, fixed for this build: `if` and `when` applied to
// literal quotations are flattened to JUMP_FALSE/JUMP with backpatched
// offsets, inlining the quotation bodies. `times` and dynamically supplied
// quotations go through the runtime opcodes, which consume quotations from
// the stack.
type Compiler struct {
	ws    *loader.Workspace
	chunk *Chunk // chunk currently being emitted
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile links the whole workspace into a Program.
func (c *Compiler) Compile(ws *loader.Workspace) (*Program, *diagnostics.Error) {
	c.ws = ws
	program := NewProgram()

	for name, unit := range ws.Words {
		chunk, err := c.compileBody(name, unit.Body, unit.Module, unit.File)
		if err != nil {
			return nil, err
		}
		program.Words[name] = chunk
	}

	main, err := c.compileBody("main", ws.Main, "", ws.RootFile)
	if err != nil {
		return nil, err
	}
	program.Main = main

	return program, nil
}

// compileBody compiles a node sequence into a fresh chunk ending in RETURN.
func (c *Compiler) compileBody(name string, nodes []ast.Node, module, file string) (*Chunk, *diagnostics.Error) {
	prev := c.chunk
	c.chunk = NewChunk(name, file)
	defer func() { c.chunk = prev }()

	if err := c.compileNodes(nodes, module); err != nil {
		return nil, err
	}

	line, col := 0, 0
	if n := len(nodes); n > 0 {
		pos := nodes[n-1].Pos()
		line, col = pos.Line, pos.Column
	}
	c.emit(OP_RETURN, line, col)
	return c.chunk, nil
}

// compileNodes emits a node sequence, recognizing the literal-quotation
// forms of `if` and `when` and lowering them to jumps.
func (c *Compiler) compileNodes(nodes []ast.Node, module string) *diagnostics.Error {
	for i := 0; i < len(nodes); {
		// [then] [else] if  ->  JUMP_FALSE/JUMP with inlined bodies
		if i+2 < len(nodes) {
			thenQuot, ok1 := nodes[i].(*ast.QuotationLit)
			elseQuot, ok2 := nodes[i+1].(*ast.QuotationLit)
			if ok1 && ok2 && isBuiltinIdent(nodes[i+2], "if") {
				if err := c.lowerIf(thenQuot, elseQuot, nodes[i+2].Pos(), module); err != nil {
					return err
				}
				i += 3
				continue
			}
		}

		// [then] when  ->  JUMP_FALSE with inlined body
		if i+1 < len(nodes) {
			thenQuot, ok := nodes[i].(*ast.QuotationLit)
			if ok && isBuiltinIdent(nodes[i+1], "when") {
				if err := c.lowerWhen(thenQuot, nodes[i+1].Pos(), module); err != nil {
					return err
				}
				i += 2
				continue
			}
		}

		if err := c.compileNode(nodes[i], module); err != nil {
			return err
		}
		i++
	}
	return nil
}

func (c *Compiler) compileNode(node ast.Node, module string) *diagnostics.Error {
	pos := node.Pos()

	switch n := node.(type) {
	case *ast.IntLit:
		c.emitConstant(IntVal(n.Value), pos)
	case *ast.FloatLit:
		c.emitConstant(FloatVal(n.Value), pos)
	case *ast.StringLit:
		c.emitConstant(StringVal(n.Value), pos)
	case *ast.BoolLit:
		c.emitConstant(BoolVal(n.Value), pos)

	case *ast.ListLit:
		val, err := c.listValue(n)
		if err != nil {
			return err
		}
		c.emitConstant(val, pos)

	case *ast.QuotationLit:
		return c.compileQuotation(n, module)

	case *ast.Ident:
		return c.compileIdent(n, module)

	default:
		return c.errorf("UnexpectedNode", pos, "cannot compile %s here", node.String())
	}
	return nil
}

// listValue resolves a list literal's constants recursively; the parser
// guarantees elements are literal values.
func (c *Compiler) listValue(lit *ast.ListLit) (Value, *diagnostics.Error) {
	elems := make([]Value, 0, len(lit.Items))
	for _, item := range lit.Items {
		switch n := item.(type) {
		case *ast.IntLit:
			elems = append(elems, IntVal(n.Value))
		case *ast.FloatLit:
			elems = append(elems, FloatVal(n.Value))
		case *ast.StringLit:
			elems = append(elems, StringVal(n.Value))
		case *ast.BoolLit:
			elems = append(elems, BoolVal(n.Value))
		case *ast.ListLit:
			nested, err := c.listValue(n)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, nested)
		default:
			return Value{}, c.errorf("UnexpectedNode", item.Pos(),
				"list literals may contain only literal values")
		}
	}
	return ListVal(elems), nil
}

// compileQuotation compiles the body to a nested code object and emits
// PUSH_QUOT referencing it.
func (c *Compiler) compileQuotation(lit *ast.QuotationLit, module string) *diagnostics.Error {
	body, err := c.compileBody("[quot]", lit.Body, module, c.chunk.File)
	if err != nil {
		return err
	}
	pos := lit.Pos()
	idx := c.chunk.AddConstant(QuotVal(body))
	c.emit(OP_PUSH_QUOT, pos.Line, pos.Column)
	c.chunk.WriteIndex(idx, pos.Line, pos.Column)
	return nil
}

// compileIdent resolves a word reference. Resolution order: built-ins,
// the table key exactly as written (covers qualified names and globally
// visible bare words), the alias table, then the enclosing module.
func (c *Compiler) compileIdent(ident *ast.Ident, module string) *diagnostics.Error {
	pos := ident.Pos()
	name := ident.String()

	if !ident.Qualified() {
		if op, ok := Builtins[name]; ok {
			c.emit(op, pos.Line, pos.Column)
			return nil
		}
	}

	if _, ok := c.ws.Words[name]; ok {
		c.emitCallWord(name, pos)
		return nil
	}

	if !ident.Qualified() {
		if qualified, ok := c.ws.Aliases[name]; ok {
			if _, defined := c.ws.Words[qualified]; defined {
				c.emitCallWord(qualified, pos)
				return nil
			}
		}
		if module != "" {
			qualified := module + "." + name
			if _, ok := c.ws.Words[qualified]; ok {
				c.emitCallWord(qualified, pos)
				return nil
			}
		}
	}

	return c.errorf("UndefinedWord", pos, "undefined word %q", name)
}

func (c *Compiler) emitCallWord(qualified string, pos token.Position) {
	idx := c.chunk.AddConstant(StringVal(qualified))
	c.emit(OP_CALL_WORD, pos.Line, pos.Column)
	c.chunk.WriteIndex(idx, pos.Line, pos.Column)
}

func (c *Compiler) lowerIf(thenQuot, elseQuot *ast.QuotationLit, pos token.Position, module string) *diagnostics.Error {
	jumpFalse := c.emitJump(OP_JUMP_FALSE, pos)
	if err := c.compileNodes(thenQuot.Body, module); err != nil {
		return err
	}
	end := c.emitJump(OP_JUMP, pos)
	if err := c.patchJump(jumpFalse, pos); err != nil {
		return err
	}
	if err := c.compileNodes(elseQuot.Body, module); err != nil {
		return err
	}
	return c.patchJump(end, pos)
}

func (c *Compiler) lowerWhen(thenQuot *ast.QuotationLit, pos token.Position, module string) *diagnostics.Error {
	jumpFalse := c.emitJump(OP_JUMP_FALSE, pos)
	if err := c.compileNodes(thenQuot.Body, module); err != nil {
		return err
	}
	return c.patchJump(jumpFalse, pos)
}

// emit helpers

func (c *Compiler) emit(op Opcode, line, col int) {
	c.chunk.WriteOp(op, line, col)
}

func (c *Compiler) emitConstant(value Value, pos token.Position) {
	idx := c.chunk.AddConstant(value)
	c.emit(OP_PUSH, pos.Line, pos.Column)
	c.chunk.WriteIndex(idx, pos.Line, pos.Column)
}

// emitJump writes a jump with a placeholder offset and returns the
// placeholder's position for patchJump.
func (c *Compiler) emitJump(op Opcode, pos token.Position) int {
	c.emit(op, pos.Line, pos.Column)
	c.chunk.Write(0xff, pos.Line, pos.Column)
	c.chunk.Write(0xff, pos.Line, pos.Column)
	return c.chunk.Len() - 2
}

// patchJump backfills a forward jump to land on the next instruction to be
// emitted. Offsets are relative to the ip after the operand.
func (c *Compiler) patchJump(offset int, pos token.Position) *diagnostics.Error {
	jump := c.chunk.Len() - offset - 2
	if jump > 0x7fff {
		return c.errorf("JumpTooFar", pos, "conditional body exceeds maximum jump distance")
	}
	c.chunk.Code[offset] = byte(jump >> 8)
	c.chunk.Code[offset+1] = byte(jump)
	return nil
}

func (c *Compiler) errorf(kind string, pos token.Position, format string, args ...interface{}) *diagnostics.Error {
	err := diagnostics.New(diagnostics.BandCompile, kind, pos, format, args...)
	if c.ws != nil {
		err = err.WithSource(c.ws.Source(pos.File))
	}
	return err
}

// isBuiltinIdent reports whether node is a bare identifier naming the given
// built-in.
func isBuiltinIdent(node ast.Node, name string) bool {
	ident, ok := node.(*ast.Ident)
	return ok && !ident.Qualified() && ident.Name == name
}
