package vm

import (
	"math"
	"strconv"
	"strings"
)

// ValueType identifies the variant stored in a Value.
type ValueType uint8

const (
	ValInt ValueType = iota
	ValFloat
	ValBool
	ValChar
	ValObj // heap objects: String, List, Quotation
)

// Value is a stack-allocated tagged union. Small primitives (Integer,
// Float, Boolean, Character) live unboxed in Data; strings, lists and
// quotations are shared by reference through Obj.
//
// Fields are exported for gob encoding of constant pools.
type Value struct {
	Type ValueType
	Data uint64
	Obj  Object
}

// Constructors

func IntVal(v int64) Value {
	return Value{Type: ValInt, Data: uint64(v)}
}

func FloatVal(v float64) Value {
	return Value{Type: ValFloat, Data: math.Float64bits(v)}
}

func BoolVal(v bool) Value {
	var data uint64
	if v {
		data = 1
	}
	return Value{Type: ValBool, Data: data}
}

func CharVal(r rune) Value {
	return Value{Type: ValChar, Data: uint64(uint32(r))}
}

func StringVal(s string) Value {
	return Value{Type: ValObj, Obj: &StringObject{Value: s}}
}

func ListVal(elems []Value) Value {
	return Value{Type: ValObj, Obj: &List{Elements: elems}}
}

func QuotVal(code *Chunk) Value {
	return Value{Type: ValObj, Obj: &Quotation{Code: code}}
}

// Accessors

func (v Value) AsInt() int64 {
	return int64(v.Data)
}

func (v Value) AsFloat() float64 {
	return math.Float64frombits(v.Data)
}

func (v Value) AsBool() bool {
	return v.Data == 1
}

func (v Value) AsChar() rune {
	return rune(uint32(v.Data))
}

// Type checking helpers

func (v Value) IsInt() bool   { return v.Type == ValInt }
func (v Value) IsFloat() bool { return v.Type == ValFloat }
func (v Value) IsBool() bool  { return v.Type == ValBool }
func (v Value) IsChar() bool  { return v.Type == ValChar }

func (v Value) IsString() bool {
	if v.Type != ValObj {
		return false
	}
	_, ok := v.Obj.(*StringObject)
	return ok
}

func (v Value) IsList() bool {
	if v.Type != ValObj {
		return false
	}
	_, ok := v.Obj.(*List)
	return ok
}

func (v Value) IsQuotation() bool {
	if v.Type != ValObj {
		return false
	}
	_, ok := v.Obj.(*Quotation)
	return ok
}

// IsNumeric reports whether the value is an Integer or a Float.
func (v Value) IsNumeric() bool {
	return v.Type == ValInt || v.Type == ValFloat
}

func (v Value) Str() string {
	return v.Obj.(*StringObject).Value
}

func (v Value) Elements() []Value {
	return v.Obj.(*List).Elements
}

func (v Value) Quotation() *Quotation {
	return v.Obj.(*Quotation)
}

// TypeName returns the surface-level type name used by `type` and by error
// messages.
func (v Value) TypeName() string {
	switch v.Type {
	case ValInt:
		return "Integer"
	case ValFloat:
		return "Float"
	case ValBool:
		return "Bool"
	case ValChar:
		return "Character"
	case ValObj:
		switch v.Obj.(type) {
		case *StringObject:
			return "String"
		case *List:
			return "List"
		case *Quotation:
			return "Quotation"
		}
	}
	return "Unknown"
}

// Equals implements structural, type-respecting equality. Integer and Float
// compare numerically after promotion; same-type floats compare by bit
// pattern except that NaN never equals NaN; quotations compare by identity;
// unrelated types compare unequal, never an error.
func (v Value) Equals(other Value) bool {
	if v.Type != other.Type {
		if v.Type == ValInt && other.Type == ValFloat {
			return float64(v.AsInt()) == other.AsFloat()
		}
		if v.Type == ValFloat && other.Type == ValInt {
			return v.AsFloat() == float64(other.AsInt())
		}
		return false
	}
	switch v.Type {
	case ValInt, ValBool, ValChar:
		return v.Data == other.Data
	case ValFloat:
		if math.IsNaN(v.AsFloat()) || math.IsNaN(other.AsFloat()) {
			return false
		}
		return v.Data == other.Data
	case ValObj:
		switch a := v.Obj.(type) {
		case *StringObject:
			b, ok := other.Obj.(*StringObject)
			return ok && a.Value == b.Value
		case *List:
			b, ok := other.Obj.(*List)
			if !ok || len(a.Elements) != len(b.Elements) {
				return false
			}
			for i := range a.Elements {
				if !a.Elements[i].Equals(b.Elements[i]) {
					return false
				}
			}
			return true
		case *Quotation:
			b, ok := other.Obj.(*Quotation)
			return ok && a == b
		}
	}
	return false
}

// Inspect renders the value in Ember surface syntax: strings without
// quotes, lists in brace form, quotations opaquely.
func (v Value) Inspect() string {
	switch v.Type {
	case ValInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case ValFloat:
		return formatFloat(v.AsFloat())
	case ValBool:
		return strconv.FormatBool(v.AsBool())
	case ValChar:
		return string(v.AsChar())
	case ValObj:
		if v.Obj != nil {
			return v.Obj.Inspect()
		}
	}
	return "<?>"
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// renderList renders list elements in brace form for List.Inspect.
func renderList(elems []Value) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.Inspect()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}
