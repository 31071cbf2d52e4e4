package vm

import (
	"fmt"
	"strings"
)

// executeOneOp executes a single opcode (RETURN is handled in step).
func (vm *VM) executeOneOp(op Opcode) error {
	switch op {
	case OP_PUSH, OP_PUSH_QUOT:
		vm.push(vm.readConstant())

	// Stack shufflers

	case OP_DROP:
		vm.pop()

	case OP_DUP:
		vm.push(vm.peek(0))

	case OP_SWAP:
		b := vm.pop()
		a := vm.pop()
		vm.push(b)
		vm.push(a)

	case OP_OVER:
		b := vm.pop()
		a := vm.pop()
		vm.push(a)
		vm.push(b)
		vm.push(a)

	case OP_ROT:
		c := vm.pop()
		b := vm.pop()
		a := vm.pop()
		vm.push(b)
		vm.push(c)
		vm.push(a)

	case OP_CLEAR:
		vm.sp = 0

	case OP_DEPTH:
		vm.push(IntVal(int64(vm.sp)))

	// Arithmetic

	case OP_ADD, OP_SUB, OP_MUL, OP_DIV:
		if err := vm.binaryArith(op); err != nil {
			return err
		}

	case OP_MOD:
		b, err := vm.popInt("%")
		if err != nil {
			return err
		}
		a, err := vm.popInt("%")
		if err != nil {
			return err
		}
		if b == 0 {
			return verr("DivisionByZero", "modulo by zero")
		}
		vm.push(IntVal(a % b))

	case OP_NEG:
		v := vm.pop()
		switch {
		case v.IsInt():
			vm.push(IntVal(-v.AsInt()))
		case v.IsFloat():
			vm.push(FloatVal(-v.AsFloat()))
		default:
			return verr("TypeError", "cannot negate %s", v.TypeName())
		}

	case OP_ABS:
		v := vm.pop()
		switch {
		case v.IsInt():
			n := v.AsInt()
			if n < 0 {
				n = -n
			}
			vm.push(IntVal(n))
		case v.IsFloat():
			f := v.AsFloat()
			if f < 0 {
				f = -f
			}
			vm.push(FloatVal(f))
		default:
			return verr("TypeError", "cannot abs %s", v.TypeName())
		}

	case OP_MIN, OP_MAX, OP_POW, OP_SQRT:
		if err := vm.mathOp(op); err != nil {
			return err
		}

	// Comparison

	case OP_EQ:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(a.Equals(b)))

	case OP_NE:
		b := vm.pop()
		a := vm.pop()
		vm.push(BoolVal(!a.Equals(b)))

	case OP_LT, OP_GT, OP_LE, OP_GE:
		if err := vm.comparisonOp(op); err != nil {
			return err
		}

	// Logic

	case OP_AND:
		b, err := vm.popBool("and")
		if err != nil {
			return err
		}
		a, err := vm.popBool("and")
		if err != nil {
			return err
		}
		vm.push(BoolVal(a && b))

	case OP_OR:
		b, err := vm.popBool("or")
		if err != nil {
			return err
		}
		a, err := vm.popBool("or")
		if err != nil {
			return err
		}
		vm.push(BoolVal(a || b))

	case OP_NOT:
		v, err := vm.popBool("not")
		if err != nil {
			return err
		}
		vm.push(BoolVal(!v))

	// Control flow

	case OP_JUMP:
		offset := vm.readJumpOffset()
		vm.frame.ip += offset

	case OP_JUMP_FALSE:
		offset := vm.readJumpOffset()
		cond, err := vm.popBool("conditional")
		if err != nil {
			return err
		}
		if !cond {
			vm.frame.ip += offset
		}

	case OP_CALL_WORD:
		name := vm.readConstant().Str()
		if chunk, ok := vm.program.Words[name]; ok {
			vm.pushFrame(chunk)
			return nil
		}
		// Dynamic fallback: built-in dispatch by name.
		if builtinOp, ok := Builtins[name]; ok {
			return vm.executeOneOp(builtinOp)
		}
		return verr("UndefinedWord", "undefined word %q", name)

	// Quotation combinators

	case OP_CALL:
		return vm.callQuotation(vm.pop())

	case OP_IF:
		elseQuot := vm.pop()
		thenQuot := vm.pop()
		cond, err := vm.popBool("if")
		if err != nil {
			return err
		}
		if cond {
			return vm.callQuotation(thenQuot)
		}
		return vm.callQuotation(elseQuot)

	case OP_WHEN:
		thenQuot := vm.pop()
		cond, err := vm.popBool("when")
		if err != nil {
			return err
		}
		if cond {
			return vm.callQuotation(thenQuot)
		}

	case OP_TIMES:
		body := vm.pop()
		n, err := vm.popInt("times")
		if err != nil {
			return err
		}
		if n < 0 {
			return verr("TypeError", "times expects a non-negative count, got %d", n)
		}
		for i := int64(0); i < n; i++ {
			if err := vm.callQuotation(body); err != nil {
				return err
			}
		}

	case OP_DIP:
		quot := vm.pop()
		saved := vm.pop()
		if err := vm.callQuotation(quot); err != nil {
			return err
		}
		vm.push(saved)

	case OP_KEEP:
		quot := vm.pop()
		saved := vm.pop()
		vm.push(saved)
		if err := vm.callQuotation(quot); err != nil {
			return err
		}
		vm.push(saved)

	case OP_BI:
		q := vm.pop()
		p := vm.pop()
		a := vm.pop()
		vm.push(a)
		if err := vm.callQuotation(p); err != nil {
			return err
		}
		vm.push(a)
		if err := vm.callQuotation(q); err != nil {
			return err
		}

	case OP_TRI:
		r := vm.pop()
		q := vm.pop()
		p := vm.pop()
		a := vm.pop()
		vm.push(a)
		if err := vm.callQuotation(p); err != nil {
			return err
		}
		vm.push(a)
		if err := vm.callQuotation(q); err != nil {
			return err
		}
		vm.push(a)
		if err := vm.callQuotation(r); err != nil {
			return err
		}

	// Lists

	case OP_LEN:
		v := vm.pop()
		switch {
		case v.IsList():
			vm.push(IntVal(int64(len(v.Elements()))))
		case v.IsString():
			vm.push(IntVal(int64(len([]rune(v.Str())))))
		default:
			return verr("TypeError", "len expects a list or string, got %s", v.TypeName())
		}

	case OP_HEAD:
		list, err := vm.popList("head")
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return verr("EmptyListHeadOrTail", "head of empty list")
		}
		vm.push(list[0])

	case OP_TAIL:
		list, err := vm.popList("tail")
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return verr("EmptyListHeadOrTail", "tail of empty list")
		}
		rest := make([]Value, len(list)-1)
		copy(rest, list[1:])
		vm.push(ListVal(rest))

	case OP_CONS:
		list, err := vm.popList("cons")
		if err != nil {
			return err
		}
		elem := vm.pop()
		out := make([]Value, 0, len(list)+1)
		out = append(out, elem)
		out = append(out, list...)
		vm.push(ListVal(out))

	case OP_CONCAT:
		b, err := vm.popList("concat")
		if err != nil {
			return err
		}
		a, err := vm.popList("concat")
		if err != nil {
			return err
		}
		out := make([]Value, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		vm.push(ListVal(out))

	case OP_NTH:
		idx, err := vm.popInt("nth")
		if err != nil {
			return err
		}
		list, err := vm.popList("nth")
		if err != nil {
			return err
		}
		if idx < 0 || idx >= int64(len(list)) {
			return verr("IndexOutOfBounds", "index %d out of bounds for list of length %d", idx, len(list))
		}
		vm.push(list[idx])

	case OP_APPEND:
		elem := vm.pop()
		list, err := vm.popList("append")
		if err != nil {
			return err
		}
		out := make([]Value, 0, len(list)+1)
		out = append(out, list...)
		out = append(out, elem)
		vm.push(ListVal(out))

	case OP_SORT, OP_REVERSE, OP_RANGE:
		if err := vm.listOp(op); err != nil {
			return err
		}

	case OP_MAP:
		body := vm.pop()
		list, err := vm.popList("map")
		if err != nil {
			return err
		}
		result := make([]Value, 0, len(list))
		for _, item := range list {
			vm.push(item)
			if err := vm.callQuotation(body); err != nil {
				return err
			}
			result = append(result, vm.pop())
		}
		vm.push(ListVal(result))

	case OP_FILTER:
		body := vm.pop()
		list, err := vm.popList("filter")
		if err != nil {
			return err
		}
		result := make([]Value, 0, len(list))
		for _, item := range list {
			vm.push(item)
			if err := vm.callQuotation(body); err != nil {
				return err
			}
			keep, err := vm.popBool("filter")
			if err != nil {
				return err
			}
			if keep {
				result = append(result, item)
			}
		}
		vm.push(ListVal(result))

	case OP_FOLD:
		body := vm.pop()
		acc := vm.pop()
		list, err := vm.popList("fold")
		if err != nil {
			return err
		}
		for _, item := range list {
			vm.push(acc)
			vm.push(item)
			if err := vm.callQuotation(body); err != nil {
				return err
			}
			acc = vm.pop()
		}
		vm.push(acc)

	case OP_EACH:
		body := vm.pop()
		list, err := vm.popList("each")
		if err != nil {
			return err
		}
		for _, item := range list {
			vm.push(item)
			if err := vm.callQuotation(body); err != nil {
				return err
			}
		}

	// Strings

	case OP_DOT:
		b := vm.pop()
		a := vm.pop()
		vm.push(StringVal(a.Inspect() + b.Inspect()))

	case OP_CHARS:
		s, err := vm.popString("chars")
		if err != nil {
			return err
		}
		runes := []rune(s)
		chars := make([]Value, len(runes))
		for i, r := range runes {
			chars[i] = CharVal(r)
		}
		vm.push(ListVal(chars))

	case OP_UPPER:
		s, err := vm.popString("upper")
		if err != nil {
			return err
		}
		vm.push(StringVal(strings.ToUpper(s)))

	case OP_LOWER:
		s, err := vm.popString("lower")
		if err != nil {
			return err
		}
		vm.push(StringVal(strings.ToLower(s)))

	case OP_SPLIT:
		sep, err := vm.popString("split")
		if err != nil {
			return err
		}
		s, err := vm.popString("split")
		if err != nil {
			return err
		}
		parts := strings.Split(s, sep)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = StringVal(p)
		}
		vm.push(ListVal(out))

	case OP_JOIN:
		sep, err := vm.popString("join")
		if err != nil {
			return err
		}
		list, err := vm.popList("join")
		if err != nil {
			return err
		}
		parts := make([]string, len(list))
		for i, v := range list {
			parts[i] = v.Inspect()
		}
		vm.push(StringVal(strings.Join(parts, sep)))

	case OP_TRIM:
		s, err := vm.popString("trim")
		if err != nil {
			return err
		}
		vm.push(StringVal(strings.TrimSpace(s)))

	case OP_TO_STRING:
		v := vm.pop()
		vm.push(StringVal(v.Inspect()))

	case OP_TO_INT:
		if err := vm.toIntOp(); err != nil {
			return err
		}

	// I/O and introspection

	case OP_PRINT:
		v := vm.pop()
		fmt.Fprintln(vm.out, v.Inspect())

	case OP_EMIT:
		v := vm.pop()
		switch {
		case v.IsInt():
			fmt.Fprint(vm.out, string(rune(v.AsInt())))
		case v.IsChar():
			fmt.Fprint(vm.out, string(v.AsChar()))
		default:
			return verr("TypeError", "emit expects an integer or character, got %s", v.TypeName())
		}

	case OP_READ:
		line, err := vm.in.ReadString('\n')
		if err != nil && line == "" {
			vm.push(StringVal(""))
			break
		}
		vm.push(StringVal(strings.TrimRight(line, "\r\n")))

	case OP_DEBUG:
		v := vm.pop()
		fmt.Fprintf(vm.out, "[DEBUG] %s\n", debugRender(v))
		vm.push(v)

	case OP_TYPE:
		v := vm.pop()
		name := v.TypeName()
		vm.push(v)
		vm.push(StringVal(name))

	default:
		return verr("UnknownOpcode", "unknown opcode %d", op)
	}

	return nil
}

// debugRender shows strings quoted so `debug` output distinguishes "1"
// from 1.
func debugRender(v Value) string {
	if v.IsString() {
		return fmt.Sprintf("%q", v.Str())
	}
	return v.Inspect()
}
