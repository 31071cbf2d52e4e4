// Package repl implements the interactive session: line editing and
// history via liner, incremental word definitions, and a value stack that
// persists across inputs.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/config"
	"github.com/emberlang/ember/internal/diagnostics"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/loader"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/vm"
)

const historyFile = ".ember_history"
const replFile = "<repl>"

// session accumulates definitions and aliases across inputs.
type session struct {
	words   map[string]*loader.Unit
	aliases map[string]string
	machine *vm.VM
	out     io.Writer
	errOut  io.Writer
}

// Run starts the interactive loop and blocks until EOF or `:quit`.
func Run(settings config.Settings, stdout, stderr io.Writer) int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	machine := vm.New()
	machine.SetOutput(stdout)
	machine.SetMaxCallDepth(settings.MaxCallDepth)

	s := &session{
		words:   make(map[string]*loader.Unit),
		aliases: make(map[string]string),
		machine: machine,
		out:     stdout,
		errOut:  stderr,
	}

	fmt.Fprintln(stdout, "Ember REPL. Type :quit to exit, :stack to inspect the stack.")

	for {
		input, err := line.Prompt("ember> ")
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			// io.EOF on ctrl-D
			fmt.Fprintln(stdout)
			return 0
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case ":quit", ":q":
			return 0
		case ":stack":
			s.printStack()
			continue
		}

		s.eval(input)
	}
}

func (s *session) eval(input string) {
	tokens, lerr := lexer.NewFile(input, replFile).Tokenize()
	if lerr != nil {
		diagnostics.Render(s.errOut, lerr, false)
		return
	}
	prog, perr := parser.NewWithSource(tokens, input).Parse()
	if perr != nil {
		diagnostics.Render(s.errOut, perr, false)
		return
	}

	var exprs []ast.Node
	for _, node := range prog.Nodes {
		switch n := node.(type) {
		case *ast.Def:
			// Redefinition is allowed interactively.
			s.words[n.Name] = &loader.Unit{Name: n.Name, Body: n.Body, File: replFile, Pos: n.Pos()}
		case *ast.Module:
			for _, def := range n.Defs {
				qualified := n.Name + "." + def.Name
				s.words[qualified] = &loader.Unit{
					Name: qualified, Module: n.Name, Body: def.Body, File: replFile, Pos: def.Pos(),
				}
			}
		case *ast.Use:
			s.applyUse(n)
		case *ast.Import:
			fmt.Fprintln(s.errOut, "import is not available in the REPL; run a file instead")
			return
		default:
			exprs = append(exprs, node)
		}
	}

	ws := &loader.Workspace{
		Words:    s.words,
		Aliases:  s.aliases,
		Main:     exprs,
		RootFile: replFile,
		Sources:  map[string]string{replFile: input},
	}

	program, cerr := vm.NewCompiler().Compile(ws)
	if cerr != nil {
		diagnostics.Render(s.errOut, cerr, false)
		return
	}

	s.machine.SetProgram(program)
	s.machine.SetSources(ws.Sources)
	if len(exprs) > 0 {
		if rerr := s.machine.RunChunk(program.Main); rerr != nil {
			diagnostics.Render(s.errOut, rerr, false)
		}
	}
}

func (s *session) applyUse(use *ast.Use) {
	if use.Wildcard {
		prefix := use.Module + "."
		for qualified := range s.words {
			if strings.HasPrefix(qualified, prefix) {
				s.aliases[strings.TrimPrefix(qualified, prefix)] = qualified
			}
		}
		return
	}
	for _, name := range use.Names {
		s.aliases[name] = use.Module + "." + name
	}
}

func (s *session) printStack() {
	depth := s.machine.StackDepth()
	if depth == 0 {
		fmt.Fprintln(s.out, "(empty)")
		return
	}
	top := s.machine.StackTop(depth)
	// Render bottom first, the way the stack grows.
	for i := len(top) - 1; i >= 0; i-- {
		fmt.Fprintln(s.out, top[i].Inspect())
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}
