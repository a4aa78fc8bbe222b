package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"cinterop/internal/native"
)

// encodedSymbol is the stored form of one symbol. References are 1-based
// indexes into payload.Symbols; zero means unbound.
type encodedSymbol struct {
	Kind              string `json:"kind"`
	Name              string `json:"name,omitempty"`
	Qualification     string `json:"qual,omitempty"`
	RealType          int    `json:"realType,omitempty"`
	Type              int    `json:"type,omitempty"`
	Members           []int  `json:"members,omitempty"`
	Signature         int    `json:"sig,omitempty"`
	ReturnType        int    `json:"ret,omitempty"`
	Parameters        []int  `json:"params,omitempty"`
	Variadic          bool   `json:"variadic,omitempty"`
	ValueExpression   int    `json:"valueExpr,omitempty"`
	Expression        string `json:"expr,omitempty"`
	Values            []int  `json:"values,omitempty"`
	ValueKind         string `json:"valueKind,omitempty"`
	Literal           string `json:"literal,omitempty"`
	ElementCount      int    `json:"count,omitempty"`
	Size              int    `json:"size,omitempty"`
	Builtin           string `json:"builtin,omitempty"`
	Unsigned          bool   `json:"unsigned,omitempty"`
	DllName           string `json:"dll,omitempty"`
	CallingConvention string `json:"cc,omitempty"`
	ConstantKind      int    `json:"constKind,omitempty"`
}

type payload struct {
	Root    int             `json:"root"`
	Symbols []encodedSymbol `json:"symbols"`
}

// encoder flattens the subgraph of one top-level declaration. Other
// top-level declarations it reaches are cut off and written as unbound
// NamedTypes, and bound Values are written unbound, so every payload
// stands alone and is re-resolved when loaded into a bag.
type encoder struct {
	table *native.Table
	root  native.SymbolID
	index map[native.SymbolID]int
	out   []encodedSymbol
}

func encodeSymbol(table *native.Table, root native.SymbolID) (*payload, error) {
	if table.Get(root) == nil {
		return nil, fmt.Errorf("symbol %d is not in the table", root)
	}
	e := &encoder{
		table: table,
		root:  root,
		index: make(map[native.SymbolID]int),
	}
	rootIndex := e.ref(root)
	return &payload{Root: rootIndex, Symbols: e.out}, nil
}

// isBoundary reports whether id is a separately stored declaration
func (e *encoder) isBoundary(sym *native.Symbol) bool {
	if sym.ID() == e.root || sym.Name == "" {
		return false
	}
	return sym.Kind.Category() == native.CategoryDefined || sym.Kind == native.KindTypeDef
}

func (e *encoder) ref(id native.SymbolID) int {
	if !id.IsValid() {
		return 0
	}
	if i, ok := e.index[id]; ok {
		return i
	}
	sym := e.table.Get(id)
	if sym == nil {
		return 0
	}

	// reserve the slot before descending so cycles terminate
	e.out = append(e.out, encodedSymbol{})
	i := len(e.out)
	e.index[id] = i

	var enc encodedSymbol
	if e.isBoundary(sym) {
		enc = encodedSymbol{
			Kind:          native.KindNamedType.String(),
			Name:          sym.Name,
			Qualification: sym.Kind.Qualification(),
		}
	} else {
		enc = e.encodeFields(sym)
	}
	e.out[i-1] = enc
	return i
}

func (e *encoder) refs(ids []native.SymbolID) []int {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, len(ids))
	for j, id := range ids {
		out[j] = e.ref(id)
	}
	return out
}

func (e *encoder) encodeFields(sym *native.Symbol) encodedSymbol {
	enc := encodedSymbol{
		Kind:              sym.Kind.String(),
		Name:              sym.Name,
		Qualification:     sym.Qualification,
		Variadic:          sym.Variadic,
		Expression:        sym.Expression,
		Literal:           sym.Literal,
		ElementCount:      sym.ElementCount,
		Size:              sym.Size,
		DllName:           sym.DllName,
		CallingConvention: string(sym.CallingConvention),
		ConstantKind:      int(sym.ConstantKind),
	}
	if sym.ValueKind != 0 {
		enc.ValueKind = sym.ValueKind.String()
	}
	if sym.Kind == native.KindBuiltin {
		enc.Builtin = sym.Builtin.Kind.String()
		enc.Unsigned = sym.Builtin.Unsigned
	}

	switch sym.Kind {
	case native.KindNamedType:
		// only opaque placeholders survive; everything else is looked up again
		if target := e.table.Get(sym.RealType); target != nil && target.Kind == native.KindOpaque {
			enc.RealType = e.ref(sym.RealType)
		}
	case native.KindValue:
		// bindings are dropped and found again by name
	default:
		enc.RealType = e.ref(sym.RealType)
	}
	enc.Type = e.ref(sym.Type)
	enc.Members = e.refs(sym.Members)
	enc.Signature = e.ref(sym.Signature)
	enc.ReturnType = e.ref(sym.ReturnType)
	enc.Parameters = e.refs(sym.Parameters)
	enc.ValueExpression = e.ref(sym.ValueExpression)
	enc.Values = e.refs(sym.Values)
	return enc
}

// decodeSymbol rebuilds a payload into a fresh table
func decodeSymbol(p *payload) (*native.Table, native.SymbolID, error) {
	if p.Root < 1 || p.Root > len(p.Symbols) {
		return nil, native.NoSymbol, fmt.Errorf("payload root %d out of range", p.Root)
	}

	table := native.NewTable()
	ids := make([]native.SymbolID, len(p.Symbols)+1)
	for i, enc := range p.Symbols {
		kind, ok := native.ParseKind(enc.Kind)
		if !ok {
			return nil, native.NoSymbol, fmt.Errorf("unknown symbol kind %q", enc.Kind)
		}
		ids[i+1] = table.NewSymbol(kind, enc.Name).ID()
	}

	var decodeErr error
	ref := func(i int) native.SymbolID {
		if i < 0 || i >= len(ids) {
			decodeErr = fmt.Errorf("reference %d out of range", i)
			return native.NoSymbol
		}
		return ids[i]
	}
	refs := func(list []int) []native.SymbolID {
		if len(list) == 0 {
			return nil
		}
		out := make([]native.SymbolID, len(list))
		for j, i := range list {
			out[j] = ref(i)
		}
		return out
	}

	for i, enc := range p.Symbols {
		sym := table.Get(ids[i+1])
		sym.Qualification = enc.Qualification
		sym.RealType = ref(enc.RealType)
		sym.Type = ref(enc.Type)
		sym.Members = refs(enc.Members)
		sym.Signature = ref(enc.Signature)
		sym.ReturnType = ref(enc.ReturnType)
		sym.Parameters = refs(enc.Parameters)
		sym.Variadic = enc.Variadic
		sym.ValueExpression = ref(enc.ValueExpression)
		sym.Expression = enc.Expression
		sym.Values = refs(enc.Values)
		sym.Literal = enc.Literal
		sym.ElementCount = enc.ElementCount
		sym.Size = enc.Size
		sym.DllName = enc.DllName
		sym.CallingConvention = native.CallingConvention(enc.CallingConvention)
		sym.ConstantKind = native.ConstantKind(enc.ConstantKind)

		if enc.ValueKind != "" {
			vk, ok := native.ParseValueKind(enc.ValueKind)
			if !ok {
				return nil, native.NoSymbol, fmt.Errorf("unknown value kind %q", enc.ValueKind)
			}
			sym.ValueKind = vk
		}
		if enc.Builtin != "" {
			bk, ok := native.ParseBuiltinKind(enc.Builtin)
			if !ok {
				return nil, native.NoSymbol, fmt.Errorf("unknown builtin %q", enc.Builtin)
			}
			sym.Builtin = native.Builtin{Kind: bk, Unsigned: enc.Unsigned}
		}
	}
	if decodeErr != nil {
		return nil, native.NoSymbol, decodeErr
	}
	return table, ids[p.Root], nil
}

// codec serializes payloads as zstd-compressed JSON
type codec struct {
	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

func (c *codec) init() error {
	c.once.Do(func() {
		c.enc, c.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if c.err != nil {
			return
		}
		c.dec, c.err = zstd.NewReader(nil)
	})
	return c.err
}

func (c *codec) marshal(p *payload) ([]byte, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return c.enc.EncodeAll(raw, nil), nil
}

func (c *codec) unmarshal(data []byte) (*payload, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &p, nil
}

func (c *codec) close() {
	if c.enc != nil {
		c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
}
