// Package cli implements the ember command-line driver: it compiles a
// source path (or loads precompiled bytecode), optionally disassembles or
// saves bytecode, and executes the program on a fresh VM.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/config"
	"github.com/emberlang/ember/internal/diagnostics"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/loader"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/pipeline"
	"github.com/emberlang/ember/internal/repl"
	"github.com/emberlang/ember/internal/vm"
)

type options struct {
	path      string
	disasm    bool
	saveBC    bool
	tokens    bool
	ast       bool
	astFull   bool
	noColor   bool
	startRepl bool
	help      bool
	stdlib    string
}

// Run is the driver entry point. It returns the process exit code: 0 on
// success, 1 on any compile-time or runtime failure. Error messages go to
// stderr; program output goes to stdout.
func Run(args []string, stdout, stderr io.Writer) int {
	var opts options

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--disasm":
			opts.disasm = true
		case "--save-bc":
			opts.saveBC = true
		case "--tokens":
			opts.tokens = true
		case "--ast":
			opts.ast = true
		case "--ast-full":
			opts.astFull = true
		case "--no-color":
			opts.noColor = true
		case "--repl", "-i":
			opts.startRepl = true
		case "--help", "-h":
			opts.help = true
		case "--stdlib":
			if i+1 >= len(args) {
				fmt.Fprintln(stderr, "--stdlib requires a directory argument")
				return 1
			}
			i++
			opts.stdlib = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(stderr, "unknown flag %q\n", arg)
				return 1
			}
			if opts.path == "" {
				opts.path = arg
			}
		}
	}

	if opts.help {
		printUsage(stdout)
		return 0
	}

	settings, err := config.Load(dirOf(opts.path), ".")
	if err != nil {
		fmt.Fprintf(stderr, "cannot read %s: %v\n", config.SettingsFileName, err)
		return 1
	}
	if opts.stdlib != "" {
		settings.StdlibPath = opts.stdlib
	}
	color := useColor(stderr, settings, opts.noColor)

	if opts.startRepl {
		return repl.Run(settings, stdout, stderr)
	}
	if opts.path == "" {
		printUsage(stdout)
		return 1
	}

	switch filepath.Ext(opts.path) {
	case config.SourceFileExt:
		return runSource(opts, settings, color, stdout, stderr)
	case config.BytecodeFileExt:
		return runBytecode(opts, settings, color, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "expected a %s or %s file, got %q\n",
			config.SourceFileExt, config.BytecodeFileExt, opts.path)
		return 1
	}
}

func runSource(opts options, settings config.Settings, color bool, stdout, stderr io.Writer) int {
	if opts.tokens {
		return dumpTokens(opts.path, color, stdout, stderr)
	}
	if opts.ast {
		return dumpAST(opts.path, color, stdout, stderr)
	}
	if opts.astFull {
		return dumpASTFull(opts.path, settings.StdlibPath, color, stdout, stderr)
	}

	ctx, cerr := pipeline.CompileFile(opts.path, settings.StdlibPath)
	if cerr != nil {
		diagnostics.Render(stderr, cerr, color)
		return 1
	}

	if opts.disasm {
		fmt.Fprint(stdout, vm.DisassembleProgram(ctx.Program))
	}

	if opts.saveBC {
		bcPath := strings.TrimSuffix(opts.path, config.SourceFileExt) + config.BytecodeFileExt
		if err := vm.SaveProgram(bcPath, ctx.Program); err != nil {
			fmt.Fprintf(stderr, "cannot write %s: %v\n", bcPath, err)
			return 1
		}
	}

	machine := vm.New()
	machine.SetOutput(stdout)
	machine.SetMaxCallDepth(settings.MaxCallDepth)
	machine.SetSources(ctx.Workspace.Sources)
	if rerr := machine.Run(ctx.Program); rerr != nil {
		diagnostics.Render(stderr, rerr, color)
		return 1
	}
	return 0
}

func runBytecode(opts options, settings config.Settings, color bool, stdout, stderr io.Writer) int {
	program, err := vm.LoadProgram(opts.path)
	if err != nil {
		fmt.Fprintf(stderr, "cannot load %s: %v\n", opts.path, err)
		return 1
	}

	if opts.disasm {
		fmt.Fprint(stdout, vm.DisassembleProgram(program))
	}

	machine := vm.New()
	machine.SetOutput(stdout)
	machine.SetMaxCallDepth(settings.MaxCallDepth)
	if rerr := machine.Run(program); rerr != nil {
		diagnostics.Render(stderr, rerr, color)
		return 1
	}
	return 0
}

func dumpTokens(path string, color bool, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "cannot read %s: %v\n", path, err)
		return 1
	}

	tokens, lerr := lexer.NewFile(string(data), path).Tokenize()
	if lerr != nil {
		diagnostics.Render(stderr, lerr, color)
		return 1
	}

	for _, tok := range tokens {
		lexeme := tok.Lexeme
		if lexeme == "\n" {
			lexeme = "\\n"
		}
		fmt.Fprintf(stdout, "%4d:%-3d %-10s %s\n", tok.Line, tok.Column, tok.Type, lexeme)
	}
	return 0
}

// dumpAST parses the root file only and prints its syntax tree without
// executing.
func dumpAST(path string, color bool, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "cannot read %s: %v\n", path, err)
		return 1
	}

	source := string(data)
	tokens, lerr := lexer.NewFile(source, path).Tokenize()
	if lerr != nil {
		diagnostics.Render(stderr, lerr, color)
		return 1
	}
	prog, perr := parser.NewWithSource(tokens, source).Parse()
	if perr != nil {
		diagnostics.Render(stderr, perr, color)
		return 1
	}

	fmt.Fprint(stdout, ast.Dump(prog.Nodes))
	return 0
}

// dumpASTFull resolves imports and prints the root expressions plus the
// body of every word in the loaded workspace.
func dumpASTFull(path, stdlibDir string, color bool, stdout, stderr io.Writer) int {
	ws, lerr := loader.New(stdlibDir).Load(path)
	if lerr != nil {
		diagnostics.Render(stderr, lerr, color)
		return 1
	}

	fmt.Fprintf(stdout, "== AST (main) ==\n%s", ast.Dump(ws.Main))

	names := make([]string, 0, len(ws.Words))
	for name := range ws.Words {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		unit := ws.Words[name]
		fmt.Fprintf(stdout, "\n== AST (word: %s, %s) ==\n%s", name, unit.File, ast.Dump(unit.Body))
	}
	return 0
}

func useColor(stderr io.Writer, settings config.Settings, noColorFlag bool) bool {
	if noColorFlag || settings.Color == "never" {
		return false
	}
	if settings.Color == "always" {
		return true
	}
	if f, ok := stderr.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

func dirOf(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "EMBER - Concatenative Stack-Based Programming Language")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ember <file.em>             Compile and run a program")
	fmt.Fprintln(w, "  ember <file.ebc>            Run precompiled bytecode")
	fmt.Fprintln(w, "  ember <file.em> --disasm    Disassemble, then run")
	fmt.Fprintln(w, "  ember <file.em> --save-bc   Write sibling .ebc, then run")
	fmt.Fprintln(w, "  ember <file.em> --tokens    Show the token stream only")
	fmt.Fprintln(w, "  ember <file.em> --ast       Show the root file's syntax tree only")
	fmt.Fprintln(w, "  ember <file.em> --ast-full  Show the syntax tree including imports")
	fmt.Fprintln(w, "  ember --repl, -i            Start interactive REPL")
	fmt.Fprintln(w, "  ember --stdlib <dir>        Override the stdlib import directory")
	fmt.Fprintln(w, "  ember --no-color            Disable colored diagnostics")
	fmt.Fprintln(w, "  ember --help, -h            Show this help")
}
