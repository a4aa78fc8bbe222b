// Package native models C declarations as an arena of symbols addressed by
// stable identifiers. References between symbols are stored as SymbolIDs so
// the graph can contain cycles (self-referential structs, typedef loops) and
// still be walked, copied and serialized safely.
package native

import "fmt"

// Kind identifies the variant of a Symbol
type Kind int

const (
	KindStruct Kind = iota + 1
	KindUnion
	KindEnum
	KindFunctionPointer
	KindTypeDef
	KindNamedType
	KindPointer
	KindArray
	KindBitVector
	KindBuiltin
	KindOpaque
	KindProcedure
	KindSignature
	KindParameter
	KindMember
	KindEnumValue
	KindConstant
	KindValueExpression
	KindValue
)

var kindNames = map[Kind]string{
	KindStruct:          "StructType",
	KindUnion:           "UnionType",
	KindEnum:            "EnumType",
	KindFunctionPointer: "FunctionPointer",
	KindTypeDef:         "TypeDefType",
	KindNamedType:       "NamedType",
	KindPointer:         "PointerType",
	KindArray:           "ArrayType",
	KindBitVector:       "BitVectorType",
	KindBuiltin:         "BuiltinType",
	KindOpaque:          "OpaqueType",
	KindProcedure:       "Procedure",
	KindSignature:       "ProcedureSignature",
	KindParameter:       "Parameter",
	KindMember:          "Member",
	KindEnumValue:       "EnumNameValue",
	KindConstant:        "Constant",
	KindValueExpression: "ValueExpression",
	KindValue:           "Value",
}

// String returns the diagnostic name of the kind
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a name produced by Kind.String back into a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Category groups kinds by the role they play in a declaration
type Category int

const (
	// CategoryDefined covers types that carry their own definition
	CategoryDefined Category = iota + 1
	// CategoryProxy covers types that stand in for another type
	CategoryProxy
	// CategorySpecialized covers leaf types
	CategorySpecialized
	// CategoryProcedure covers procedures
	CategoryProcedure
	// CategoryExtra covers structural helpers such as members and values
	CategoryExtra
)

// String returns the category name
func (c Category) String() string {
	switch c {
	case CategoryDefined:
		return "Defined"
	case CategoryProxy:
		return "Proxy"
	case CategorySpecialized:
		return "Specialized"
	case CategoryProcedure:
		return "Procedure"
	case CategoryExtra:
		return "Extra"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Category returns the category the kind belongs to
func (k Kind) Category() Category {
	switch k {
	case KindStruct, KindUnion, KindEnum, KindFunctionPointer:
		return CategoryDefined
	case KindTypeDef, KindNamedType, KindPointer, KindArray:
		return CategoryProxy
	case KindBuiltin, KindOpaque, KindBitVector:
		return CategorySpecialized
	case KindProcedure:
		return CategoryProcedure
	default:
		return CategoryExtra
	}
}

// IsType reports whether symbols of this kind can appear in type position
func (k Kind) IsType() bool {
	switch k {
	case KindStruct, KindUnion, KindEnum, KindFunctionPointer,
		KindTypeDef, KindNamedType, KindPointer, KindArray,
		KindBuiltin, KindOpaque, KindBitVector:
		return true
	default:
		return false
	}
}

// Qualification returns the C tag keyword for struct, union and enum kinds
func (k Kind) Qualification() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	default:
		return ""
	}
}

// ValueKind describes what a Value leaf holds
type ValueKind int

const (
	ValueNumber ValueKind = iota + 1
	ValueString
	ValueCharacter
	ValueBoolean
	// ValueSymbol references another global symbol by name
	ValueSymbol
	// ValueType references a type by name
	ValueType
)

var valueKindNames = map[ValueKind]string{
	ValueNumber:    "Number",
	ValueString:    "String",
	ValueCharacter: "Character",
	ValueBoolean:   "Boolean",
	ValueSymbol:    "SymbolValue",
	ValueType:      "SymbolType",
}

func (v ValueKind) String() string {
	if s, ok := valueKindNames[v]; ok {
		return s
	}
	return fmt.Sprintf("ValueKind(%d)", int(v))
}

// ParseValueKind converts a name produced by ValueKind.String back into a ValueKind.
func ParseValueKind(s string) (ValueKind, bool) {
	for k, name := range valueKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// IsReference reports whether values of this kind must be bound by name
func (v ValueKind) IsReference() bool {
	return v == ValueSymbol || v == ValueType
}

// ConstantKind distinguishes macro constants from typed constant expressions
type ConstantKind int

const (
	ConstantMacro ConstantKind = iota
	ConstantExpression
)

// CallingConvention of a procedure or function pointer
type CallingConvention string

const (
	CallingConventionDefault  CallingConvention = ""
	CallingConventionCdecl    CallingConvention = "cdecl"
	CallingConventionStdcall  CallingConvention = "stdcall"
	CallingConventionFastcall CallingConvention = "fastcall"
	CallingConventionThiscall CallingConvention = "thiscall"
)
