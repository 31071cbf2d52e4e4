package tests

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/pkg/cli"
)

func writeProgram(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.em")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli.Run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"addition", "5 3 + print", "8\n"},
		{"definition", "def square dup * end  5 square print", "25\n"},
		{"factorial", "def factorial dup 1 <= [drop 1] [dup 1 - factorial *] if end  10 factorial print", "3628800\n"},
		{"gcd", "def gcd dup 0 = [drop] [swap over % gcd] if end  48 18 gcd print", "6\n"},
		{"map", "{ 1 2 3 } [ dup * ] map print", "{ 1 4 9 }\n"},
		{"module-use", "module M def sq dup * end end  use M sq  7 sq print", "49\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProgram(t, tt.source)
			code, stdout, stderr := run(t, path)
			assert.Equal(t, 0, code, "stderr: %s", stderr)
			assert.Equal(t, tt.want, stdout)
			assert.Empty(t, stderr)
		})
	}
}

func TestDivisionByZeroReported(t *testing.T) {
	path := writeProgram(t, "10 0 /")
	code, stdout, stderr := run(t, path)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "DivisionByZero")
	assert.Contains(t, stderr, "1:6") // position of the `/`
	assert.Contains(t, stderr, "^")
}

func TestTypeErrorReported(t *testing.T) {
	path := writeProgram(t, `"hello" 5 +`)
	code, _, stderr := run(t, path)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "TypeError")
}

func TestUndefinedWordReportedAtCompileTime(t *testing.T) {
	path := writeProgram(t, "nonexistent print")
	code, stdout, stderr := run(t, path)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout, "compile errors must prevent execution")
	assert.Contains(t, stderr, "UndefinedWord")
	assert.Contains(t, stderr, "nonexistent")
}

func TestParseErrorReported(t *testing.T) {
	path := writeProgram(t, "def square dup *")
	code, _, stderr := run(t, path)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ParseError")
}

func TestWrongExtensionRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 print"), 0o644))
	code, _, stderr := run(t, path)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, ".em")
}

func TestImportsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math.em"),
		[]byte("module Math def sq dup * end end\n"), 0o644))
	main := filepath.Join(dir, "main.em")
	require.NoError(t, os.WriteFile(main,
		[]byte("import math\nuse Math sq\n6 sq print\n"), 0o644))

	code, stdout, stderr := run(t, main)
	assert.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Equal(t, "36\n", stdout)
}

func TestStdlibFlag(t *testing.T) {
	stdlib := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stdlib, "seq.em"),
		[]byte("module Seq def double 2 * end end\n"), 0o644))
	main := writeProgram(t, "import seq\nuse Seq double\n21 double print\n")

	code, stdout, _ := run(t, main, "--stdlib", stdlib)
	assert.Equal(t, 0, code)
	assert.Equal(t, "42\n", stdout)
}

func TestDisasmFlag(t *testing.T) {
	path := writeProgram(t, "def square dup * end  5 square print")
	code, stdout, _ := run(t, path, "--disasm")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "== square ==")
	assert.Contains(t, stdout, "== main ==")
	// Disassembly is followed by execution.
	assert.Contains(t, stdout, "25\n")
}

func TestSaveBytecodeRoundTrip(t *testing.T) {
	source := "def factorial dup 1 <= [drop 1] [dup 1 - factorial *] if end  10 factorial print"
	path := writeProgram(t, source)

	code, stdout, stderr := run(t, path, "--save-bc")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Equal(t, "3628800\n", stdout)

	bcPath := filepath.Join(filepath.Dir(path), "prog.ebc")
	_, err := os.Stat(bcPath)
	require.NoError(t, err, "sibling .ebc must exist")

	// Executing the saved bytecode is observably identical.
	code, stdout, stderr = run(t, bcPath)
	assert.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Equal(t, "3628800\n", stdout)
}

func TestCorruptBytecodeRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ebc")
	require.NoError(t, os.WriteFile(path, []byte("not bytecode"), 0o644))

	code, _, stderr := run(t, path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "magic")
}

func TestTokensFlag(t *testing.T) {
	path := writeProgram(t, "5 square")
	code, stdout, _ := run(t, path, "--tokens")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "INT")
	assert.Contains(t, stdout, "square")
}

func TestAstFlag(t *testing.T) {
	path := writeProgram(t, "def square dup * end  5 [ 1 + ] call")
	code, stdout, stderr := run(t, path, "--ast")

	assert.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Def square")
	assert.Contains(t, stdout, "Quotation")
	assert.Contains(t, stdout, "Int 5")
	// AST dumping stops before execution.
	assert.NotContains(t, stdout, "6\n")
}

func TestAstFullFlagIncludesImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math.em"),
		[]byte("module Math def sq dup * end end\n"), 0o644))
	main := filepath.Join(dir, "main.em")
	require.NoError(t, os.WriteFile(main,
		[]byte("import math\nuse Math sq\n6 sq print\n"), 0o644))

	code, stdout, stderr := run(t, main, "--ast-full")
	assert.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "== AST (main) ==")
	assert.Contains(t, stdout, "Math.sq")
	assert.Contains(t, stdout, "Word dup")
	assert.Empty(t, stderr)
}

func TestAstFlagReportsParseError(t *testing.T) {
	path := writeProgram(t, "def broken dup *")
	code, _, stderr := run(t, path, "--ast")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ParseError")
}

func TestUsageWithoutPath(t *testing.T) {
	code, stdout, _ := run(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "Usage")
}

func TestHelpFlag(t *testing.T) {
	code, stdout, _ := run(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Usage")
}

func TestConfigFileMaxDepth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ember.yaml"),
		[]byte("max_call_depth: 16\n"), 0o644))
	path := filepath.Join(dir, "deep.em")
	require.NoError(t, os.WriteFile(path,
		[]byte("def spin spin end  spin\n"), 0o644))

	code, _, stderr := run(t, path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "CallStackOverflow")
}

func TestProgramOutputSeparatedFromErrors(t *testing.T) {
	path := writeProgram(t, "1 print 2 print 10 0 /")
	code, stdout, stderr := run(t, path)

	assert.Equal(t, 1, code)
	assert.Equal(t, "1\n2\n", stdout, "output before the failure goes to stdout")
	assert.Contains(t, stderr, "DivisionByZero")
}
