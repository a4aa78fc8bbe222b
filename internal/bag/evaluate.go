package bag

import (
	"fmt"

	"cinterop/internal/errors"
	"cinterop/internal/expr"
	"cinterop/internal/native"
)

// Evaluator computes the values of constants and enum values of a bag.
// Identifiers are followed through bound Values, so the bag should be
// resolved first. Results are cached per symbol.
type Evaluator struct {
	bag    *Bag
	cache  map[native.SymbolID]expr.Value
	active map[native.SymbolID]bool
}

// NewEvaluator creates an evaluator over b
func NewEvaluator(b *Bag) *Evaluator {
	return &Evaluator{
		bag:    b,
		cache:  make(map[native.SymbolID]expr.Value),
		active: make(map[native.SymbolID]bool),
	}
}

// EvaluateConstant evaluates the constant or enum value called name
func (b *Bag) EvaluateConstant(name string) (expr.Value, error) {
	return NewEvaluator(b).EvaluateName(name)
}

// EvaluateName evaluates the constant or enum value called name
func (e *Evaluator) EvaluateName(name string) (expr.Value, error) {
	id, ok := e.bag.store.TryGetValue(name)
	if !ok {
		id, ok = e.bag.imported["value:"+name]
	}
	if !ok {
		return expr.Value{}, errors.Newf(errors.SymbolNotFound, "no constant or enum value named '%s'", name)
	}
	return e.Evaluate(id)
}

// Evaluate evaluates a Constant or EnumValue symbol
func (e *Evaluator) Evaluate(id native.SymbolID) (expr.Value, error) {
	if v, ok := e.cache[id]; ok {
		return v, nil
	}
	sym := e.bag.table.Get(id)
	if sym == nil {
		return expr.Value{}, errors.Newf(errors.InvalidArgument, "symbol %d is not in the bag", id)
	}
	if sym.Kind != native.KindConstant && sym.Kind != native.KindEnumValue {
		return expr.Value{}, errors.Newf(errors.InvalidArgument, "cannot evaluate %s '%s'", sym.Kind, sym.Name)
	}
	if e.active[id] {
		return expr.Value{}, errors.Newf(errors.EvaluationFailed, "evaluation cycle at '%s'", sym.Name)
	}
	e.active[id] = true
	defer delete(e.active, id)

	var (
		v   expr.Value
		err error
	)
	if !sym.ValueExpression.IsValid() {
		v, err = e.implicitEnumValue(sym)
	} else {
		v, err = e.evaluateExpression(sym, e.bag.table.Get(sym.ValueExpression))
	}
	if err != nil {
		return expr.Value{}, err
	}
	e.cache[id] = v
	return v, nil
}

func (e *Evaluator) evaluateExpression(owner, ve *native.Symbol) (expr.Value, error) {
	node, err := expr.Parse(ve.Expression)
	if err != nil {
		return expr.Value{}, errors.NewCodedError(errors.EvaluationFailed,
			fmt.Sprintf("cannot parse value of '%s'", owner.Name), err)
	}

	resolver := expr.ResolverFunc(func(name string) (expr.Value, error) {
		for _, vid := range ve.Values {
			v := e.bag.table.Get(vid)
			if v.ValueKind != native.ValueSymbol || v.Name != name {
				continue
			}
			if !v.Value.IsValid() {
				return expr.Value{}, errors.Newf(errors.SymbolNotFound, "'%s' is not bound", name)
			}
			return e.Evaluate(v.Value)
		}
		return expr.Value{}, errors.Newf(errors.SymbolNotFound, "'%s' is not bound", name)
	})

	v, err := expr.Eval(node, resolver)
	if err != nil {
		if errors.CodeOf(err) != "" {
			return expr.Value{}, err
		}
		return expr.Value{}, errors.NewCodedError(errors.EvaluationFailed,
			fmt.Sprintf("cannot evaluate '%s'", owner.Name), err)
	}
	return v, nil
}

// implicitEnumValue is one more than the previous enumerator, or zero for
// the first one.
func (e *Evaluator) implicitEnumValue(sym *native.Symbol) (expr.Value, error) {
	if sym.Kind != native.KindEnumValue {
		return expr.Value{}, errors.Newf(errors.EvaluationFailed, "constant '%s' has no value", sym.Name)
	}
	owner, ok := e.enumOwner(sym.ID())
	if !ok {
		return expr.Value{}, errors.Newf(errors.EvaluationFailed, "enum value '%s' has no enum", sym.Name)
	}

	members := e.bag.table.Get(owner).Members
	for i, m := range members {
		if m != sym.ID() {
			continue
		}
		if i == 0 {
			return expr.Int(0), nil
		}
		prev, err := e.Evaluate(members[i-1])
		if err != nil {
			return expr.Value{}, err
		}
		return expr.Int(prev.Int64() + 1), nil
	}
	return expr.Value{}, errors.Newf(errors.InternalError, "enum value '%s' missing from its enum", sym.Name)
}

// enumOwner finds the enum holding an enumerator. Values copied in from
// the chain are not indexed by the store.
func (e *Evaluator) enumOwner(id native.SymbolID) (native.SymbolID, bool) {
	if owner, ok := e.bag.store.EnumOwner(id); ok {
		return owner, true
	}
	return e.bag.table.EnumOwner(id)
}
