package vm

import "fmt"

// Program is a fully linked bytecode program: every compiled word keyed by
// qualified name, plus the distinguished main code object built from the
// root file's top-level expressions. Programs are immutable once compiled
// and may be shared between VM instances.
type Program struct {
	Words map[string]*Chunk
	Main  *Chunk
}

func NewProgram() *Program {
	return &Program{Words: make(map[string]*Chunk)}
}

// Validate checks the structural integrity of a program, used after
// deserializing bytecode from disk.
func (p *Program) Validate() error {
	if p.Main == nil {
		return fmt.Errorf("program has no main code object")
	}
	if p.Words == nil {
		return fmt.Errorf("program has nil word table")
	}
	for name, chunk := range p.Words {
		if chunk == nil || len(chunk.Code) == 0 {
			return fmt.Errorf("word %q has empty bytecode", name)
		}
	}
	return nil
}
