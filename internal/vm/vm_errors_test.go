package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivisionByZero(t *testing.T) {
	err := runSourceErr(t, "10 0 /")
	assert.Equal(t, "DivisionByZero", err.Kind)
	assert.Equal(t, 1, err.Pos.Line)
	assert.Equal(t, 6, err.Pos.Column) // the `/`
	assert.Equal(t, testFile, err.Pos.File)
}

func TestModuloByZero(t *testing.T) {
	err := runSourceErr(t, "10 0 %")
	assert.Equal(t, "DivisionByZero", err.Kind)
}

func TestFloatDivisionByZero(t *testing.T) {
	// Never a silent infinity.
	err := runSourceErr(t, "1.0 0.0 /")
	assert.Equal(t, "DivisionByZero", err.Kind)
}

func TestTypeErrors(t *testing.T) {
	tests := []string{
		`"hello" 5 +`,
		`true 1 +`,
		`1 2 and`,
		`"a" "b" <`,
		`5 not`,
		`1 [ 2 ] head`,
		`5 call`,
		`"s" [ 1 ] times`,
	}
	for _, source := range tests {
		err := runSourceErr(t, source)
		assert.Equal(t, "TypeError", err.Kind, "source: %s", source)
	}
}

func TestNoBooleanIntegerCoercion(t *testing.T) {
	err := runSourceErr(t, "true 1 +")
	assert.Equal(t, "TypeError", err.Kind)

	err = runSourceErr(t, "1 true and")
	assert.Equal(t, "TypeError", err.Kind)
}

func TestStackUnderflow(t *testing.T) {
	for _, source := range []string{"+", "1 +", "dup", "swap", "print"} {
		err := runSourceErr(t, source)
		assert.Equal(t, "StackUnderflow", err.Kind, "source: %s", source)
	}
}

func TestEmptyListHeadTail(t *testing.T) {
	err := runSourceErr(t, "{ } head")
	assert.Equal(t, "EmptyListHeadOrTail", err.Kind)

	err = runSourceErr(t, "{ } tail")
	assert.Equal(t, "EmptyListHeadOrTail", err.Kind)
}

func TestIndexOutOfBounds(t *testing.T) {
	err := runSourceErr(t, "{ 1 2 } 5 nth")
	assert.Equal(t, "IndexOutOfBounds", err.Kind)

	err = runSourceErr(t, "{ 1 2 } -1 nth")
	assert.Equal(t, "IndexOutOfBounds", err.Kind)
}

func TestCallStackOverflow(t *testing.T) {
	program := compileSource(t, "def loop loop end  loop")

	machine := New()
	machine.SetMaxCallDepth(64)
	err := machine.Run(program)
	require.NotNil(t, err)
	assert.Equal(t, "CallStackOverflow", err.Kind)
}

func TestConditionRequiresBoolean(t *testing.T) {
	// Lowered conditional: JUMP_FALSE pops a non-boolean.
	err := runSourceErr(t, "5 [ 1 ] [ 2 ] if")
	assert.Equal(t, "TypeError", err.Kind)

	// Runtime conditional through a word boundary.
	err = runSourceErr(t, "def choose if end  5 [ 1 ] [ 2 ] choose")
	assert.Equal(t, "TypeError", err.Kind)
}

func TestUndefinedWordAtCompileTime(t *testing.T) {
	ws := buildWorkspace(t, "nonexistent print")
	_, err := NewCompiler().Compile(ws)
	require.NotNil(t, err)
	assert.Equal(t, "UndefinedWord", err.Kind)
	assert.Equal(t, 1, err.Pos.Line)
}

func TestUndefinedQualifiedWord(t *testing.T) {
	ws := buildWorkspace(t, "module M def f end end  M.g")
	_, err := NewCompiler().Compile(ws)
	require.NotNil(t, err)
	assert.Equal(t, "UndefinedWord", err.Kind)
}

func TestAliasToMissingWordIsUndefined(t *testing.T) {
	ws := buildWorkspace(t, "use Ghost f\nf")
	_, err := NewCompiler().Compile(ws)
	require.NotNil(t, err)
	assert.Equal(t, "UndefinedWord", err.Kind)
}

func TestErrorCarriesStackSnapshot(t *testing.T) {
	err := runSourceErr(t, `"hello" 5 +`)
	require.NotEmpty(t, err.Detail)
	assert.Contains(t, err.Detail[0], "stack")
}

func TestNegativeTimesRejected(t *testing.T) {
	err := runSourceErr(t, "-1 [ 1 ] times")
	assert.Equal(t, "TypeError", err.Kind)
}

func TestRangeBackwardsRejected(t *testing.T) {
	err := runSourceErr(t, "5 1 range")
	assert.Equal(t, "TypeError", err.Kind)
}

func TestVMReusableAfterError(t *testing.T) {
	program := compileSource(t, "10 0 /")
	machine := New()
	require.NotNil(t, machine.Run(program))

	ok := compileSource(t, "1 1 +")
	require.Nil(t, machine.Run(ok))
	assert.Equal(t, 1, machine.StackDepth())
}
