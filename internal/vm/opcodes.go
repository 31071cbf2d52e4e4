// Package vm implements the Ember bytecode compiler and virtual machine.
package vm

// Opcode is a single VM instruction.
type Opcode byte

const (
	// Literals
	OP_PUSH      Opcode = iota // Push constant from pool (2-byte index)
	OP_PUSH_QUOT               // Push quotation constant (2-byte index)

	// Stack shuffles
	OP_DROP
	OP_DUP
	OP_SWAP
	OP_OVER
	OP_ROT
	OP_CLEAR
	OP_DEPTH

	// Arithmetic
	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_NEG
	OP_ABS
	OP_MIN
	OP_MAX
	OP_POW
	OP_SQRT

	// Comparison
	OP_EQ
	OP_NE
	OP_LT
	OP_GT
	OP_LE
	OP_GE

	// Logic
	OP_AND
	OP_OR
	OP_NOT

	// Control flow
	OP_JUMP       // 2-byte signed relative offset
	OP_JUMP_FALSE // pop bool, jump if false (2-byte signed offset)
	OP_CALL_WORD  // call word by name constant (2-byte index)
	OP_RETURN

	// Quotation combinators
	OP_CALL
	OP_IF
	OP_WHEN
	OP_TIMES
	OP_DIP
	OP_KEEP
	OP_BI
	OP_TRI

	// Lists
	OP_LEN
	OP_HEAD
	OP_TAIL
	OP_CONS
	OP_CONCAT
	OP_NTH
	OP_APPEND
	OP_SORT
	OP_REVERSE
	OP_RANGE
	OP_MAP
	OP_FILTER
	OP_FOLD
	OP_EACH

	// Strings
	OP_DOT // concat renderings of two values
	OP_CHARS
	OP_UPPER
	OP_LOWER
	OP_SPLIT
	OP_JOIN
	OP_TRIM
	OP_TO_STRING
	OP_TO_INT

	// I/O and introspection
	OP_PRINT
	OP_EMIT
	OP_READ
	OP_DEBUG
	OP_TYPE
)

// OpcodeNames maps opcodes to their display names (for the disassembler).
var OpcodeNames = map[Opcode]string{
	OP_PUSH:      "PUSH",
	OP_PUSH_QUOT: "PUSH_QUOT",

	OP_DROP:  "DROP",
	OP_DUP:   "DUP",
	OP_SWAP:  "SWAP",
	OP_OVER:  "OVER",
	OP_ROT:   "ROT",
	OP_CLEAR: "CLEAR",
	OP_DEPTH: "DEPTH",

	OP_ADD:  "ADD",
	OP_SUB:  "SUB",
	OP_MUL:  "MUL",
	OP_DIV:  "DIV",
	OP_MOD:  "MOD",
	OP_NEG:  "NEG",
	OP_ABS:  "ABS",
	OP_MIN:  "MIN",
	OP_MAX:  "MAX",
	OP_POW:  "POW",
	OP_SQRT: "SQRT",

	OP_EQ: "EQ",
	OP_NE: "NE",
	OP_LT: "LT",
	OP_GT: "GT",
	OP_LE: "LE",
	OP_GE: "GE",

	OP_AND: "AND",
	OP_OR:  "OR",
	OP_NOT: "NOT",

	OP_JUMP:       "JUMP",
	OP_JUMP_FALSE: "JUMP_FALSE",
	OP_CALL_WORD:  "CALL_WORD",
	OP_RETURN:     "RETURN",

	OP_CALL:  "CALL",
	OP_IF:    "IF",
	OP_WHEN:  "WHEN",
	OP_TIMES: "TIMES",
	OP_DIP:   "DIP",
	OP_KEEP:  "KEEP",
	OP_BI:    "BI",
	OP_TRI:   "TRI",

	OP_LEN:     "LEN",
	OP_HEAD:    "HEAD",
	OP_TAIL:    "TAIL",
	OP_CONS:    "CONS",
	OP_CONCAT:  "CONCAT",
	OP_NTH:     "NTH",
	OP_APPEND:  "APPEND",
	OP_SORT:    "SORT",
	OP_REVERSE: "REVERSE",
	OP_RANGE:   "RANGE",
	OP_MAP:     "MAP",
	OP_FILTER:  "FILTER",
	OP_FOLD:    "FOLD",
	OP_EACH:    "EACH",

	OP_DOT:       "DOT",
	OP_CHARS:     "CHARS",
	OP_UPPER:     "UPPER",
	OP_LOWER:     "LOWER",
	OP_SPLIT:     "SPLIT",
	OP_JOIN:      "JOIN",
	OP_TRIM:      "TRIM",
	OP_TO_STRING: "TO_STRING",
	OP_TO_INT:    "TO_INT",

	OP_PRINT: "PRINT",
	OP_EMIT:  "EMIT",
	OP_READ:  "READ",
	OP_DEBUG: "DEBUG",
	OP_TYPE:  "TYPE",
}
