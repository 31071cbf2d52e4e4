package vm

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

func init() {
	// Register value object types for gob serialization of constant pools.
	gob.Register(&StringObject{})
	gob.Register(&List{})
	gob.Register(&Quotation{})
}

// bytecodeMagic identifies .ebc files: "EMBC".
var bytecodeMagic = [4]byte{0x45, 0x4D, 0x42, 0x43}

// bytecodeVersion is bumped on any wire-format change; readers reject
// mismatches.
const bytecodeVersion byte = 0x01

// Serialize converts a Program to the stable binary format:
// magic (4 bytes), version (1 byte), gob-encoded Program.
func (p *Program) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)

	buf.Write(bytecodeMagic[:])
	buf.WriteByte(bytecodeVersion)

	enc := gob.NewEncoder(buf)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("bytecode encoding failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Deserialize reads bytecode data previously produced by Serialize.
func Deserialize(data []byte) (*Program, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("bytecode data too short")
	}

	if !bytes.Equal(data[:4], bytecodeMagic[:]) {
		return nil, fmt.Errorf("invalid magic number, expected EMBC")
	}

	version := data[4]
	if version != bytecodeVersion {
		return nil, fmt.Errorf("unsupported bytecode version %d (this binary supports version %d)",
			version, bytecodeVersion)
	}

	dec := gob.NewDecoder(bytes.NewReader(data[5:]))
	var program Program
	if err := dec.Decode(&program); err != nil {
		return nil, fmt.Errorf("bytecode decoding failed: %w", err)
	}
	if program.Words == nil {
		program.Words = make(map[string]*Chunk)
	}
	if err := program.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode validation failed: %w", err)
	}
	return &program, nil
}

// SaveProgram writes a program to disk in .ebc format.
func SaveProgram(path string, p *Program) error {
	data, err := p.Serialize()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadProgram reads a .ebc file from disk.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}
