package vm

import (
	"fmt"
	"sort"
	"strings"
)

// Disassemble returns a human-readable representation of one code object.
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, offset)
	}

	return sb.String()
}

// DisassembleProgram renders every word in stable order, then main.
func DisassembleProgram(p *Program) string {
	var sb strings.Builder

	names := make([]string, 0, len(p.Words))
	for name := range p.Words {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sb.WriteString(Disassemble(p.Words[name], name))
		sb.WriteString("\n")
	}
	sb.WriteString(Disassemble(p.Main, "main"))
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	// Print line number, eliding repeats.
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.Lines[offset]))
	}

	op := Opcode(chunk.Code[offset])
	name, known := OpcodeNames[op]
	if !known {
		sb.WriteString(fmt.Sprintf("Unknown opcode %d\n", op))
		return offset + 1
	}

	switch op {
	case OP_PUSH, OP_CALL_WORD:
		return constantInstruction(sb, name, chunk, offset)
	case OP_PUSH_QUOT:
		return quotationInstruction(sb, name, chunk, offset)
	case OP_JUMP, OP_JUMP_FALSE:
		return jumpInstruction(sb, name, chunk, offset)
	default:
		return simpleInstruction(sb, name, offset)
	}
}

func simpleInstruction(sb *strings.Builder, name string, offset int) int {
	sb.WriteString(fmt.Sprintf("%s\n", name))
	return offset + 1
}

func constantInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	idx := chunk.ReadConstantIndex(offset + 1)

	if idx < len(chunk.Constants) {
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s'\n", name, idx, chunk.Constants[idx].Inspect()))
	} else {
		sb.WriteString(fmt.Sprintf("%-16s %4d (invalid)\n", name, idx))
	}

	return offset + 3
}

func jumpInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	jump := chunk.ReadJumpOffset(offset + 1)
	target := offset + 3 + jump
	sb.WriteString(fmt.Sprintf("%-16s %4d -> %d\n", name, jump, target))
	return offset + 3
}

func quotationInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	idx := chunk.ReadConstantIndex(offset + 1)
	offset += 3

	if idx >= len(chunk.Constants) {
		sb.WriteString(fmt.Sprintf("%-16s %4d (invalid)\n", name, idx))
		return offset
	}

	quot, ok := chunk.Constants[idx].Obj.(*Quotation)
	if !ok {
		sb.WriteString(fmt.Sprintf("%-16s %4d (not a quotation)\n", name, idx))
		return offset
	}

	sb.WriteString(fmt.Sprintf("%-16s %4d %s\n", name, idx, quot.Code.Name))

	// Recursively disassemble the embedded code object, indented.
	inner := Disassemble(quot.Code, quot.Code.Name)
	indented := strings.TrimSuffix(inner, "\n")
	indented = strings.ReplaceAll(indented, "\n", "\n    | ")
	sb.WriteString("    | " + indented + "\n")

	return offset
}
