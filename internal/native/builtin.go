package native

import "strings"

// BuiltinKind identifies a primitive C type
type BuiltinKind int

const (
	BuiltinVoid BuiltinKind = iota + 1
	BuiltinBoolean
	BuiltinByte
	BuiltinInt16
	BuiltinInt32
	BuiltinInt64
	BuiltinFloat
	BuiltinDouble
	BuiltinChar
	BuiltinWChar
	BuiltinIntPtr
)

var builtinKindNames = map[BuiltinKind]string{
	BuiltinVoid:    "void",
	BuiltinBoolean: "boolean",
	BuiltinByte:    "byte",
	BuiltinInt16:   "int16",
	BuiltinInt32:   "int32",
	BuiltinInt64:   "int64",
	BuiltinFloat:   "float",
	BuiltinDouble:  "double",
	BuiltinChar:    "char",
	BuiltinWChar:   "wchar",
	BuiltinIntPtr:  "intptr",
}

func (b BuiltinKind) String() string {
	if s, ok := builtinKindNames[b]; ok {
		return s
	}
	return "unknown"
}

// ParseBuiltinKind converts a name produced by BuiltinKind.String back.
func ParseBuiltinKind(s string) (BuiltinKind, bool) {
	for k, name := range builtinKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Builtin describes a primitive type: its kind and signedness
type Builtin struct {
	Kind     BuiltinKind
	Unsigned bool
}

var builtinTable = map[string]Builtin{
	"void":               {Kind: BuiltinVoid},
	"bool":               {Kind: BuiltinBoolean},
	"_Bool":              {Kind: BuiltinBoolean},
	"char":               {Kind: BuiltinChar},
	"signed char":        {Kind: BuiltinByte},
	"unsigned char":      {Kind: BuiltinByte, Unsigned: true},
	"wchar_t":            {Kind: BuiltinWChar, Unsigned: true},
	"__wchar_t":          {Kind: BuiltinWChar, Unsigned: true},
	"short":              {Kind: BuiltinInt16},
	"short int":          {Kind: BuiltinInt16},
	"signed short":       {Kind: BuiltinInt16},
	"signed short int":   {Kind: BuiltinInt16},
	"unsigned short":     {Kind: BuiltinInt16, Unsigned: true},
	"unsigned short int": {Kind: BuiltinInt16, Unsigned: true},
	"int":                {Kind: BuiltinInt32},
	"signed":             {Kind: BuiltinInt32},
	"signed int":         {Kind: BuiltinInt32},
	"unsigned":           {Kind: BuiltinInt32, Unsigned: true},
	"unsigned int":       {Kind: BuiltinInt32, Unsigned: true},
	"long":               {Kind: BuiltinInt32},
	"long int":           {Kind: BuiltinInt32},
	"signed long":        {Kind: BuiltinInt32},
	"unsigned long":      {Kind: BuiltinInt32, Unsigned: true},
	"unsigned long int":  {Kind: BuiltinInt32, Unsigned: true},
	"long long":          {Kind: BuiltinInt64},
	"long long int":      {Kind: BuiltinInt64},
	"signed long long":   {Kind: BuiltinInt64},
	"unsigned long long": {Kind: BuiltinInt64, Unsigned: true},
	"float":              {Kind: BuiltinFloat},
	"double":             {Kind: BuiltinDouble},
	"long double":        {Kind: BuiltinDouble},
	"__int8":             {Kind: BuiltinByte},
	"__int16":            {Kind: BuiltinInt16},
	"__int32":            {Kind: BuiltinInt32},
	"__int64":            {Kind: BuiltinInt64},
	"unsigned __int8":    {Kind: BuiltinByte, Unsigned: true},
	"unsigned __int16":   {Kind: BuiltinInt16, Unsigned: true},
	"unsigned __int32":   {Kind: BuiltinInt32, Unsigned: true},
	"unsigned __int64":   {Kind: BuiltinInt64, Unsigned: true},
	"int8_t":             {Kind: BuiltinByte},
	"uint8_t":            {Kind: BuiltinByte, Unsigned: true},
	"int16_t":            {Kind: BuiltinInt16},
	"uint16_t":           {Kind: BuiltinInt16, Unsigned: true},
	"int32_t":            {Kind: BuiltinInt32},
	"uint32_t":           {Kind: BuiltinInt32, Unsigned: true},
	"int64_t":            {Kind: BuiltinInt64},
	"uint64_t":           {Kind: BuiltinInt64, Unsigned: true},
	"size_t":             {Kind: BuiltinIntPtr, Unsigned: true},
	"ssize_t":            {Kind: BuiltinIntPtr},
	"intptr_t":           {Kind: BuiltinIntPtr},
	"uintptr_t":          {Kind: BuiltinIntPtr, Unsigned: true},
	"ptrdiff_t":          {Kind: BuiltinIntPtr},
}

// NormalizeTypeName collapses runs of whitespace so "unsigned   int" and
// "unsigned int" name the same builtin.
func NormalizeTypeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// TryConvertToBuiltin maps a C type spelling onto the builtin-type table
func TryConvertToBuiltin(name string) (Builtin, bool) {
	bt, ok := builtinTable[NormalizeTypeName(name)]
	return bt, ok
}

// IsBuiltinName reports whether name spells a builtin type
func IsBuiltinName(name string) bool {
	_, ok := TryConvertToBuiltin(name)
	return ok
}
