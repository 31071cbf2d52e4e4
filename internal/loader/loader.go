// Package loader drives the lexer and parser over a root file and its
// transitive imports, accumulating the word table and alias table the
// compiler links against.
//
// Loading is depth-first at file granularity. A canonical-path set guards
// against duplicate loads; a second in-progress set turns mid-load
// reappearance into an ImportCycle error. Only the root file contributes
// top-level expressions; imported files contribute definitions alone.
package loader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/config"
	"github.com/emberlang/ember/internal/diagnostics"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/token"
)

// Unit is a compilation unit: the parsed body of one word definition plus
// its origin, keyed in the word table by qualified name.
type Unit struct {
	Name   string // qualified name as registered
	Module string // defining module; empty for file top-level words
	Body   []ast.Node
	File   string
	Pos    token.Position
}

// Workspace is the loader's output: everything the compiler needs.
type Workspace struct {
	// Words maps qualified name to its compilation unit.
	Words map[string]*Unit

	// Aliases maps short name to qualified name, established by `use`.
	Aliases map[string]string

	// Main holds the root file's top-level expressions in source order.
	Main []ast.Node

	// RootFile is the path the load started from.
	RootFile string

	// Sources maps file display names to their text, for diagnostics.
	Sources map[string]string
}

// Source returns the text of a loaded file, or "".
func (ws *Workspace) Source(file string) string {
	return ws.Sources[file]
}

type Loader struct {
	stdlibDir string
	loaded    map[string]bool // canonical paths fully processed
	loading   map[string]bool // canonical paths currently mid-load
	ws        *Workspace
}

func New(stdlibDir string) *Loader {
	return &Loader{
		stdlibDir: stdlibDir,
		loaded:    make(map[string]bool),
		loading:   make(map[string]bool),
		ws: &Workspace{
			Words:   make(map[string]*Unit),
			Aliases: make(map[string]string),
			Sources: make(map[string]string),
		},
	}
}

// Load resolves the root file and every transitive import, returning the
// populated workspace. The first error aborts the load.
func (l *Loader) Load(rootPath string) (*Workspace, *diagnostics.Error) {
	l.ws.RootFile = rootPath
	if err := l.loadFile(rootPath, token.Position{}, true); err != nil {
		return nil, err
	}
	return l.ws, nil
}

func (l *Loader) loadFile(path string, importPos token.Position, isRoot bool) *diagnostics.Error {
	canonical, err := filepath.Abs(path)
	if err != nil {
		return diagnostics.New(diagnostics.BandLoad, "FileNotFound", importPos,
			"cannot resolve %q: %v", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(canonical); err == nil {
		canonical = resolved
	}

	if l.loading[canonical] {
		return diagnostics.New(diagnostics.BandLoad, "ImportCycle", importPos,
			"import cycle through %q", path)
	}
	if l.loaded[canonical] {
		return nil
	}
	l.loading[canonical] = true
	defer delete(l.loading, canonical)

	data, readErr := os.ReadFile(canonical)
	if readErr != nil {
		return diagnostics.New(diagnostics.BandLoad, "FileNotFound", importPos,
			"cannot read %q: %v", path, readErr)
	}
	source := string(data)
	l.ws.Sources[path] = source

	tokens, lexErr := lexer.NewFile(source, path).Tokenize()
	if lexErr != nil {
		return lexErr
	}
	prog, parseErr := parser.NewWithSource(tokens, source).Parse()
	if parseErr != nil {
		return parseErr
	}

	dir := filepath.Dir(canonical)
	for _, node := range prog.Nodes {
		switch n := node.(type) {
		case *ast.Import:
			target, impErr := l.resolveImport(dir, n.Path, n.Pos())
			if impErr != nil {
				return impErr.WithSource(source)
			}
			if err := l.loadFile(target, n.Pos(), false); err != nil {
				return err
			}

		case *ast.Module:
			for _, def := range n.Defs {
				qualified := n.Name + "." + def.Name
				if err := l.register(qualified, n.Name, def, path); err != nil {
					return err.WithSource(source)
				}
			}

		case *ast.Def:
			// Top-level words live in the synthetic empty module and are
			// globally visible by their bare name.
			if err := l.register(n.Name, "", n, path); err != nil {
				return err.WithSource(source)
			}

		case *ast.Use:
			if err := l.applyUse(n); err != nil {
				return err.WithSource(source)
			}

		default:
			// Top-level expressions only count in the root file; in
			// imported files they are meaningless and skipped.
			if isRoot {
				l.ws.Main = append(l.ws.Main, node)
			}
		}
	}

	delete(l.loading, canonical)
	l.loaded[canonical] = true
	return nil
}

func (l *Loader) register(qualified, module string, def *ast.Def, file string) *diagnostics.Error {
	if existing, ok := l.ws.Words[qualified]; ok {
		return diagnostics.New(diagnostics.BandLoad, "DuplicateDefinition", def.Pos(),
			"word %q is already defined (first definition at %s)", qualified, existing.Pos)
	}
	l.ws.Words[qualified] = &Unit{
		Name:   qualified,
		Module: module,
		Body:   def.Body,
		File:   file,
		Pos:    def.Pos(),
	}
	return nil
}

// applyUse records aliases. A wildcard aliases every name defined in the
// module at the moment the directive is processed; later definitions are
// not aliased retroactively.
func (l *Loader) applyUse(use *ast.Use) *diagnostics.Error {
	if use.Wildcard {
		prefix := use.Module + "."
		var names []string
		for qualified := range l.ws.Words {
			if strings.HasPrefix(qualified, prefix) {
				names = append(names, strings.TrimPrefix(qualified, prefix))
			}
		}
		sort.Strings(names)
		for _, name := range names {
			if err := l.addAlias(name, use.Module+"."+name, use.Pos()); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range use.Names {
		if err := l.addAlias(name, use.Module+"."+name, use.Pos()); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) addAlias(short, qualified string, pos token.Position) *diagnostics.Error {
	if existing, ok := l.ws.Aliases[short]; ok && existing != qualified {
		return diagnostics.New(diagnostics.BandLoad, "AmbiguousAlias", pos,
			"alias %q already refers to %q, cannot also refer to %q", short, existing, qualified)
	}
	l.ws.Aliases[short] = qualified
	return nil
}

// resolveImport finds the file an import directive names: relative to the
// importing file's directory first, then the stdlib directory. The `.em`
// extension may be omitted.
func (l *Loader) resolveImport(dir, path string, pos token.Position) (string, *diagnostics.Error) {
	rel := path
	if filepath.Ext(rel) == "" {
		rel += config.SourceFileExt
	} else if filepath.Ext(rel) != config.SourceFileExt {
		return "", diagnostics.New(diagnostics.BandLoad, "FileNotFound", pos,
			"imports must name %s files (or omit the extension), got %q", config.SourceFileExt, path)
	}

	candidates := []string{filepath.Join(dir, rel)}
	if l.stdlibDir != "" {
		candidates = append(candidates, filepath.Join(l.stdlibDir, rel))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", diagnostics.New(diagnostics.BandLoad, "FileNotFound", pos,
		"cannot resolve import %q (tried %s)", path, strings.Join(candidates, ", "))
}
