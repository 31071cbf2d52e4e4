package vm

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Typed pop helpers. Arity violations surface via pop's underflow panic;
// wrong operand kinds return TypeError.

func (vm *VM) popBool(op string) (bool, error) {
	v := vm.pop()
	if !v.IsBool() {
		return false, verr("TypeError", "%s expects a boolean, got %s", op, v.TypeName())
	}
	return v.AsBool(), nil
}

func (vm *VM) popInt(op string) (int64, error) {
	v := vm.pop()
	if !v.IsInt() {
		return 0, verr("TypeError", "%s expects an integer, got %s", op, v.TypeName())
	}
	return v.AsInt(), nil
}

func (vm *VM) popList(op string) ([]Value, error) {
	v := vm.pop()
	if !v.IsList() {
		return nil, verr("TypeError", "%s expects a list, got %s", op, v.TypeName())
	}
	return v.Elements(), nil
}

func (vm *VM) popString(op string) (string, error) {
	v := vm.pop()
	if !v.IsString() {
		return "", verr("TypeError", "%s expects a string, got %s", op, v.TypeName())
	}
	return v.Str(), nil
}

// binaryArith implements + - * / with the shallow coercion rules: Int with
// Int stays Int (wrapping), any Float operand promotes the result to Float.
// Integer division truncates toward zero; division by zero is always an
// error, never a silent NaN or infinity.
func (vm *VM) binaryArith(op Opcode) error {
	// Operands of the wrong kind stay on the stack, so the error's stack
	// snapshot shows them.
	b := vm.peek(0)
	a := vm.peek(1)

	if !a.IsNumeric() || !b.IsNumeric() {
		return verr("TypeError", "cannot %s %s and %s", arithVerb(op), a.TypeName(), b.TypeName())
	}
	vm.pop()
	vm.pop()

	if a.IsInt() && b.IsInt() {
		x, y := a.AsInt(), b.AsInt()
		switch op {
		case OP_ADD:
			vm.push(IntVal(x + y))
		case OP_SUB:
			vm.push(IntVal(x - y))
		case OP_MUL:
			vm.push(IntVal(x * y))
		case OP_DIV:
			if y == 0 {
				return verr("DivisionByZero", "division by zero")
			}
			vm.push(IntVal(x / y))
		}
		return nil
	}

	x, y := a.toFloat(), b.toFloat()
	switch op {
	case OP_ADD:
		vm.push(FloatVal(x + y))
	case OP_SUB:
		vm.push(FloatVal(x - y))
	case OP_MUL:
		vm.push(FloatVal(x * y))
	case OP_DIV:
		if y == 0 {
			return verr("DivisionByZero", "division by zero")
		}
		vm.push(FloatVal(x / y))
	}
	return nil
}

func arithVerb(op Opcode) string {
	switch op {
	case OP_ADD:
		return "add"
	case OP_SUB:
		return "subtract"
	case OP_MUL:
		return "multiply"
	case OP_DIV:
		return "divide"
	}
	return OpcodeNames[op]
}

func (v Value) toFloat() float64 {
	if v.IsInt() {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

// comparisonOp implements < > <= >= over numbers with Int/Float promotion.
func (vm *VM) comparisonOp(op Opcode) error {
	b := vm.pop()
	a := vm.pop()
	if !a.IsNumeric() || !b.IsNumeric() {
		return verr("TypeError", "cannot compare %s and %s", a.TypeName(), b.TypeName())
	}

	var result bool
	if a.IsInt() && b.IsInt() {
		x, y := a.AsInt(), b.AsInt()
		switch op {
		case OP_LT:
			result = x < y
		case OP_GT:
			result = x > y
		case OP_LE:
			result = x <= y
		case OP_GE:
			result = x >= y
		}
	} else {
		x, y := a.toFloat(), b.toFloat()
		switch op {
		case OP_LT:
			result = x < y
		case OP_GT:
			result = x > y
		case OP_LE:
			result = x <= y
		case OP_GE:
			result = x >= y
		}
	}
	vm.push(BoolVal(result))
	return nil
}

// mathOp implements min, max, pow and sqrt.
func (vm *VM) mathOp(op Opcode) error {
	switch op {
	case OP_MIN, OP_MAX:
		name := "min"
		if op == OP_MAX {
			name = "max"
		}
		b, err := vm.popInt(name)
		if err != nil {
			return err
		}
		a, err := vm.popInt(name)
		if err != nil {
			return err
		}
		if op == OP_MIN {
			if b < a {
				a = b
			}
		} else if b > a {
			a = b
		}
		vm.push(IntVal(a))

	case OP_POW:
		exp, err := vm.popInt("pow")
		if err != nil {
			return err
		}
		base, err := vm.popInt("pow")
		if err != nil {
			return err
		}
		if exp < 0 {
			return verr("TypeError", "pow expects a non-negative exponent, got %d", exp)
		}
		result := int64(1)
		for i := int64(0); i < exp; i++ {
			next := result * base
			if base != 0 && next/base != result {
				return verr("TypeError", "integer overflow in pow")
			}
			result = next
		}
		vm.push(IntVal(result))

	case OP_SQRT:
		v := vm.pop()
		var f float64
		switch {
		case v.IsInt():
			f = float64(v.AsInt())
		case v.IsFloat():
			f = v.AsFloat()
		default:
			return verr("TypeError", "sqrt expects a number, got %s", v.TypeName())
		}
		if f < 0 {
			return verr("TypeError", "cannot take square root of a negative number")
		}
		vm.push(FloatVal(math.Sqrt(f)))
	}
	return nil
}

// listOp implements sort, reverse and range.
func (vm *VM) listOp(op Opcode) error {
	switch op {
	case OP_SORT:
		list, err := vm.popList("sort")
		if err != nil {
			return err
		}
		out := make([]Value, len(list))
		copy(out, list)
		allInts := true
		for _, v := range out {
			if !v.IsInt() {
				allInts = false
				break
			}
		}
		// Only integer lists have a defined order; anything else passes
		// through unchanged.
		if allInts {
			sort.Slice(out, func(i, j int) bool {
				return out[i].AsInt() < out[j].AsInt()
			})
		}
		vm.push(ListVal(out))

	case OP_REVERSE:
		list, err := vm.popList("reverse")
		if err != nil {
			return err
		}
		out := make([]Value, len(list))
		for i, v := range list {
			out[len(list)-1-i] = v
		}
		vm.push(ListVal(out))

	case OP_RANGE:
		end, err := vm.popInt("range")
		if err != nil {
			return err
		}
		start, err := vm.popInt("range")
		if err != nil {
			return err
		}
		if start > end {
			return verr("TypeError", "range start (%d) cannot be greater than end (%d)", start, end)
		}
		out := make([]Value, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, IntVal(i))
		}
		vm.push(ListVal(out))
	}
	return nil
}

// toIntOp converts integers (identity), floats (truncation), strings
// (decimal parse) and characters (code point) to Integer.
func (vm *VM) toIntOp() error {
	v := vm.pop()
	switch {
	case v.IsInt():
		vm.push(v)
	case v.IsFloat():
		vm.push(IntVal(int64(v.AsFloat())))
	case v.IsChar():
		vm.push(IntVal(int64(v.AsChar())))
	case v.IsString():
		s := strings.TrimSpace(v.Str())
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return verr("TypeError", "cannot parse %q as an integer", v.Str())
		}
		vm.push(IntVal(n))
	default:
		return verr("TypeError", "cannot convert %s to an integer", v.TypeName())
	}
	return nil
}
