package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind is the runtime type of an evaluated expression
type ValueKind int

const (
	IntValue ValueKind = iota
	FloatValue
	StringValue
)

// Value is the result of evaluating a constant expression
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
}

// Int returns an integer value
func Int(v int64) Value { return Value{Kind: IntValue, Int: v} }

// Float returns a floating value
func Float(v float64) Value { return Value{Kind: FloatValue, Float: v} }

// Str returns a string value
func Str(v string) Value { return Value{Kind: StringValue, Str: v} }

// Int64 converts the value to an integer, truncating floats
func (v Value) Int64() int64 {
	if v.Kind == FloatValue {
		return int64(v.Float)
	}
	return v.Int
}

// Float64 converts the value to a float
func (v Value) Float64() float64 {
	if v.Kind == FloatValue {
		return v.Float
	}
	return float64(v.Int)
}

// Truthy reports whether the value is non-zero
func (v Value) Truthy() bool {
	switch v.Kind {
	case FloatValue:
		return v.Float != 0
	case StringValue:
		return true
	default:
		return v.Int != 0
	}
}

func (v Value) String() string {
	switch v.Kind {
	case FloatValue:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case StringValue:
		return strconv.Quote(v.Str)
	default:
		return strconv.FormatInt(v.Int, 10)
	}
}

func boolValue(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Resolver supplies the values of identifiers during evaluation
type Resolver interface {
	Resolve(name string) (Value, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(name string) (Value, error)

// Resolve calls f(name)
func (f ResolverFunc) Resolve(name string) (Value, error) {
	return f(name)
}

// Evaluate parses and evaluates src. r may be nil when src has no identifiers.
func Evaluate(src string, r Resolver) (Value, error) {
	n, err := Parse(src)
	if err != nil {
		return Value{}, err
	}
	return Eval(n, r)
}

// Eval evaluates a parsed expression
func Eval(n Node, r Resolver) (Value, error) {
	switch v := n.(type) {
	case *Number:
		return parseNumber(v.Text)
	case *Char:
		return Int(int64(v.Value)), nil
	case *String:
		return Str(v.Value), nil
	case *Boolean:
		return boolValue(v.Value), nil
	case *Ident:
		if r == nil {
			return Value{}, fmt.Errorf("unknown identifier %q", v.Name)
		}
		return r.Resolve(v.Name)
	case *SizeOf:
		return Value{}, fmt.Errorf("sizeof(%s) cannot be evaluated without type layout", v.Type)
	case *Cast:
		x, err := Eval(v.X, r)
		if err != nil {
			return Value{}, err
		}
		return castValue(v.Type, x), nil
	case *Unary:
		x, err := Eval(v.X, r)
		if err != nil {
			return Value{}, err
		}
		return evalUnary(v.Op, x)
	case *Binary:
		return evalBinary(v, r)
	default:
		return Value{}, fmt.Errorf("unsupported expression node %T", n)
	}
}

func parseNumber(text string) (Value, error) {
	s := strings.ToLower(text)
	hex := strings.HasPrefix(s, "0x")
	if !hex && (strings.ContainsAny(s, ".e")) {
		s = strings.TrimRight(s, "fl")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", text)
		}
		return Float(f), nil
	}

	// base 0 handles the 0x and leading-zero octal forms
	s = strings.TrimRight(s, "ul")
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return Int(i), nil
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q", text)
	}
	return Int(int64(u)), nil
}

func castValue(typeName string, x Value) Value {
	t := strings.ToLower(typeName)
	if strings.Contains(t, "float") || strings.Contains(t, "double") {
		return Float(x.Float64())
	}
	if x.Kind == StringValue {
		return x
	}
	return Int(x.Int64())
}

func evalUnary(op string, x Value) (Value, error) {
	if x.Kind == StringValue {
		return Value{}, fmt.Errorf("operator %s not defined on strings", op)
	}
	switch op {
	case "-":
		if x.Kind == FloatValue {
			return Float(-x.Float), nil
		}
		return Int(-x.Int), nil
	case "+":
		return x, nil
	case "!":
		return boolValue(!x.Truthy()), nil
	case "~":
		if x.Kind == FloatValue {
			return Value{}, fmt.Errorf("operator ~ not defined on floating values")
		}
		return Int(^x.Int), nil
	default:
		return Value{}, fmt.Errorf("unknown unary operator %q", op)
	}
}

func evalBinary(b *Binary, r Resolver) (Value, error) {
	x, err := Eval(b.X, r)
	if err != nil {
		return Value{}, err
	}

	switch b.Op {
	case "&&":
		if !x.Truthy() {
			return Int(0), nil
		}
		y, err := Eval(b.Y, r)
		if err != nil {
			return Value{}, err
		}
		return boolValue(y.Truthy()), nil
	case "||":
		if x.Truthy() {
			return Int(1), nil
		}
		y, err := Eval(b.Y, r)
		if err != nil {
			return Value{}, err
		}
		return boolValue(y.Truthy()), nil
	}

	y, err := Eval(b.Y, r)
	if err != nil {
		return Value{}, err
	}

	if b.Op == "=" {
		return y, nil
	}

	if x.Kind == StringValue || y.Kind == StringValue {
		return evalStrings(b.Op, x, y)
	}
	if x.Kind == FloatValue || y.Kind == FloatValue {
		return evalFloats(b.Op, x.Float64(), y.Float64())
	}
	return evalInts(b.Op, x.Int, y.Int)
}

func evalStrings(op string, x, y Value) (Value, error) {
	if x.Kind != StringValue || y.Kind != StringValue {
		return Value{}, fmt.Errorf("operator %s mixes strings and numbers", op)
	}
	switch op {
	case "==":
		return boolValue(x.Str == y.Str), nil
	case "!=":
		return boolValue(x.Str != y.Str), nil
	case "+":
		return Str(x.Str + y.Str), nil
	default:
		return Value{}, fmt.Errorf("operator %s not defined on strings", op)
	}
}

func evalFloats(op string, x, y float64) (Value, error) {
	switch op {
	case "+":
		return Float(x + y), nil
	case "-":
		return Float(x - y), nil
	case "*":
		return Float(x * y), nil
	case "/":
		if y == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return Float(x / y), nil
	case "==":
		return boolValue(x == y), nil
	case "!=":
		return boolValue(x != y), nil
	case "<":
		return boolValue(x < y), nil
	case "<=":
		return boolValue(x <= y), nil
	case ">":
		return boolValue(x > y), nil
	case ">=":
		return boolValue(x >= y), nil
	default:
		return Value{}, fmt.Errorf("operator %s not defined on floating values", op)
	}
}

func evalInts(op string, x, y int64) (Value, error) {
	switch op {
	case "+":
		return Int(x + y), nil
	case "-":
		return Int(x - y), nil
	case "*":
		return Int(x * y), nil
	case "/":
		if y == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return Int(x / y), nil
	case "%":
		if y == 0 {
			return Value{}, fmt.Errorf("modulus by zero")
		}
		return Int(x % y), nil
	case "<<":
		if y < 0 {
			return Value{}, fmt.Errorf("negative shift count %d", y)
		}
		return Int(x << uint64(y)), nil
	case ">>":
		if y < 0 {
			return Value{}, fmt.Errorf("negative shift count %d", y)
		}
		return Int(x >> uint64(y)), nil
	case "&":
		return Int(x & y), nil
	case "|":
		return Int(x | y), nil
	case "^":
		return Int(x ^ y), nil
	case "==":
		return boolValue(x == y), nil
	case "!=":
		return boolValue(x != y), nil
	case "<":
		return boolValue(x < y), nil
	case "<=":
		return boolValue(x <= y), nil
	case ">":
		return boolValue(x > y), nil
	case ">=":
		return boolValue(x >= y), nil
	default:
		return Value{}, fmt.Errorf("unknown operator %q", op)
	}
}
