package vm

import (
	"fmt"

	"github.com/zurustar/fragment/pkg/compiler/ast"
	"github.com/zurustar/fragment/pkg/diagnostic"
	"github.com/zurustar/fragment/pkg/sorts"
)

var occultSort = sorts.Of(sorts.Occult)

// ArgumentsName is the binding that holds an embodied Ark's arguments.
const ArgumentsName = "arguments"

// EvalStatement evaluates one statement against frame.
//
// Parameters:
//   - stmt: The statement to evaluate
//   - frame: The frame bindings are read from and written to
//
// Returns:
//   - Value: The value of an expression statement, the provided value of an
//     if statement that ran, Occult otherwise
//   - error: A *diagnostic.Diagnostic on failure
func (vm *VM) EvalStatement(stmt ast.Statement, frame *Frame) (Value, error) {
	switch s := stmt.(type) {
	case *ast.CommentStatement:
		return Occult, nil
	case *ast.ExpressionStatement:
		return vm.EvalExpression(s.Expression, frame)
	case *ast.VariableDefinition:
		return Occult, vm.define(s, frame)
	case *ast.QuantityModifier:
		return Occult, vm.modifyQuantity(s, frame)
	case *ast.AssignStatement:
		return Occult, vm.assign(s, frame)
	case *ast.IfStatement:
		return vm.evalIf(s, frame)
	case *ast.ForStatement:
		return Occult, vm.evalFor(s, frame)
	}
	return nil, diagnostic.New(diagnostic.UnknownStatement, stmt.Pos(),
		"Statement '%T' is not known", stmt)
}

func (vm *VM) define(s *ast.VariableDefinition, frame *Frame) error {
	value, err := vm.EvalExpression(s.Value, frame)
	if err != nil {
		return err
	}

	bound, m := conform(value, s.Sort)
	if m != nil {
		return mismatchError(m, s.Value)
	}

	frame.Set(s.Name, bound)
	vm.log.Debug("binding defined", "name", s.Name, "sort", bound.Sort().String())
	return nil
}

// mismatchError reports m at the literal element it came from when expr is
// a literal, or at expr otherwise.
func mismatchError(m *mismatch, expr ast.Expression) *diagnostic.Diagnostic {
	pos := expr.Pos()
	node := expr
	for _, i := range m.path {
		switch lit := node.(type) {
		case *ast.ArrayLiteral:
			node = lit.Elements[i]
		case *ast.RecordLiteral:
			node = lit.Entries[i].Value
		default:
			node = nil
		}
		if node == nil {
			break
		}
		pos = node.Pos()
	}
	return diagnostic.New(diagnostic.TypeMismatch, pos,
		"Type '%s' is not assignable to type '%s'", m.value.Sort(), m.want)
}

func (vm *VM) modifyQuantity(s *ast.QuantityModifier, frame *Frame) error {
	current, err := vm.lookup(s.Target, frame)
	if err != nil {
		return err
	}

	delta := int64(-1)
	verb := "decremented"
	if s.Increment {
		delta = 1
		verb = "incremented"
	}

	switch v := current.(type) {
	case Int:
		next, f := intAdd(int64(v), delta)
		if f != faultNone {
			return diagnostic.New(diagnostic.UnperformableArithmetic, s.Pos(),
				"Type 'Int' cannot be %s past %d", verb, v)
		}
		frame.Set(s.Target.Name, Int(next))
	case Double:
		frame.Set(s.Target.Name, v+Double(delta))
	default:
		return diagnostic.New(diagnostic.TypeMismatch, s.Pos(),
			"Type '%s' cannot be %s", current.Sort(), verb)
	}
	return nil
}

func (vm *VM) assign(s *ast.AssignStatement, frame *Frame) error {
	current, err := vm.lookup(s.Target, frame)
	if err != nil {
		return err
	}
	operand, err := vm.EvalExpression(s.Value, frame)
	if err != nil {
		return err
	}

	reassign := func(to string) error {
		return diagnostic.New(diagnostic.TypeMismatch, s.Pos(),
			"Type '%s' cannot be reassigned with type '%s'", current.Sort(), to)
	}

	switch a := current.(type) {
	case Int:
		b, ok := operand.(Int)
		if !ok {
			return reassign(operand.Sort().String())
		}
		result, f := intArith(s.Operator, int64(a), int64(b))
		switch f {
		case faultDivideByZero:
			return diagnostic.New(diagnostic.UnperformableArithmetic, s.Value.Pos(),
				"Arithmetic division between Int and Int is inoperable with a divisor of 0")
		case faultFractional:
			return reassign(sorts.Double.String())
		case faultOverflow:
			return diagnostic.New(diagnostic.UnperformableArithmetic, s.Value.Pos(),
				"Arithmetic %s between Int and Int overflows: %d %s %d", s.Operator, a, s.Operator.Symbol(), b)
		}
		frame.Set(s.Target.Name, Int(result))
	case Double:
		b, ok := operand.(Double)
		if !ok {
			return reassign(operand.Sort().String())
		}
		result := doubleArith(s.Operator, float64(a), float64(b))
		if isIntegral(result) {
			return reassign(sorts.Int.String())
		}
		frame.Set(s.Target.Name, Double(result))
	default:
		return reassign(operand.Sort().String())
	}
	return nil
}

func (vm *VM) evalIf(s *ast.IfStatement, frame *Frame) (Value, error) {
	cond, err := vm.EvalExpression(s.Condition, frame)
	if err != nil {
		return nil, err
	}
	b, ok := cond.(Boolean)
	if !ok {
		return nil, diagnostic.New(diagnostic.TypeMismatch, s.Condition.Pos(),
			"Cannot perform if statement with a type '%s'", cond.Sort())
	}
	if !b {
		return Occult, nil
	}

	for _, stmt := range s.Body {
		if _, err := vm.EvalStatement(stmt, frame); err != nil {
			return nil, err
		}
	}
	if s.Provides != nil {
		return vm.EvalExpression(s.Provides, frame)
	}
	return Occult, nil
}

func (vm *VM) evalFor(s *ast.ForStatement, frame *Frame) error {
	iterable, err := vm.EvalExpression(s.Iterable, frame)
	if err != nil {
		return err
	}

	var items []Value
	switch it := iterable.(type) {
	case *Array:
		items = it.Elements
	case String:
		for _, r := range string(it) {
			items = append(items, String(r))
		}
	case *Record:
		for _, e := range it.Entries {
			items = append(items, String(e.Key))
		}
	default:
		return diagnostic.New(diagnostic.TypeMismatch, s.Iterable.Pos(),
			"Cannot iterate over a type '%s'", iterable.Sort())
	}

	for _, item := range items {
		frame.Set(s.Placeholder, item)
		for _, stmt := range s.Body {
			if _, err := vm.EvalStatement(stmt, frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvalExpression evaluates one expression against frame.
//
// Parameters:
//   - expr: The expression to evaluate
//   - frame: The frame references are resolved in
//
// Returns:
//   - Value: The expression's value
//   - error: A *diagnostic.Diagnostic on failure
func (vm *VM) EvalExpression(expr ast.Expression, frame *Frame) (Value, error) {
	switch e := expr.(type) {
	case *ast.Reference:
		return vm.lookup(e, frame)
	case *ast.IndexExpression:
		return vm.evalIndex(e, frame)
	case *ast.ArithmeticExpression:
		return vm.evalArithmetic(e, frame)
	case *ast.CallExpression:
		return vm.evalCall(e, frame)
	case *ast.EmbodyExpression:
		return vm.evalEmbody(e, frame)
	}
	return vm.evalPrimitive(expr, frame)
}

func (vm *VM) lookup(ref *ast.Reference, frame *Frame) (Value, error) {
	if v, ok := frame.Get(ref.Name); ok {
		return v, nil
	}
	d := diagnostic.New(diagnostic.UndeclaredVariable, ref.Pos(),
		"Variable '%s' is not declared", ref.Name)
	if hint := diagnostic.DidYouMean(ref.Name, frame.Keys()); hint != "" {
		d.WithHint(hint)
	}
	return nil, d
}

func (vm *VM) evalIndex(e *ast.IndexExpression, frame *Frame) (Value, error) {
	source, err := vm.EvalExpression(e.Source, frame)
	if err != nil {
		return nil, err
	}

	// The index is evaluated only once the source is known to be indexable.
	var index Value
	resolveIndex := func() error {
		index, err = vm.EvalExpression(e.Index, frame)
		return err
	}
	unindexable := func() error {
		return diagnostic.New(diagnostic.UnindexableType, e.Index.Pos(),
			"Type of '%s' cannot be indexed with type '%s'", source.Sort().Kind, index.Sort())
	}
	outOfBounds := func() error {
		return diagnostic.New(diagnostic.UndeclaredElement, e.Index.Pos(),
			"The given index is out of bounds")
	}

	switch src := source.(type) {
	case *Record:
		if err := resolveIndex(); err != nil {
			return nil, err
		}
		key, ok := index.(String)
		if !ok {
			return nil, unindexable()
		}
		if v, ok := src.Lookup(string(key)); ok {
			return v, nil
		}
		d := diagnostic.New(diagnostic.UndeclaredElement, e.Index.Pos(),
			"Element '%s' is not declared in the record", string(key))
		if hint := diagnostic.DidYouMean(string(key), src.Keys()); hint != "" {
			d.WithHint(hint)
		}
		return nil, d
	case *Array:
		if err := resolveIndex(); err != nil {
			return nil, err
		}
		i, ok := index.(Int)
		if !ok {
			return nil, unindexable()
		}
		if i < 0 || int64(i) >= int64(len(src.Elements)) {
			return nil, outOfBounds()
		}
		return src.Elements[i], nil
	case String:
		if err := resolveIndex(); err != nil {
			return nil, err
		}
		i, ok := index.(Int)
		if !ok {
			return nil, unindexable()
		}
		runes := []rune(string(src))
		if i < 0 || int64(i) >= int64(len(runes)) {
			return nil, outOfBounds()
		}
		return String(runes[i]), nil
	}
	return nil, diagnostic.New(diagnostic.UnindexableType, e.Source.Pos(),
		"Type '%s' cannot be indexed", source.Sort())
}

func (vm *VM) evalArithmetic(e *ast.ArithmeticExpression, frame *Frame) (Value, error) {
	left, err := vm.EvalExpression(e.Left, frame)
	if err != nil {
		return nil, err
	}
	right, err := vm.EvalExpression(e.Right, frame)
	if err != nil {
		return nil, err
	}

	switch l := left.(type) {
	case Int:
		if r, ok := right.(Int); ok {
			result, f := intArith(e.Operator, int64(l), int64(r))
			switch f {
			case faultDivideByZero:
				return nil, diagnostic.New(diagnostic.UnperformableArithmetic, e.Pos(),
					"Arithmetic %s between Int and Int is inoperable with a divisor of 0", e.Operator)
			case faultFractional:
				return nil, diagnostic.New(diagnostic.TypeMismatch, e.Pos(),
					"Type 'Int' cannot hold the fractional result of %d %s %d", l, e.Operator.Symbol(), r)
			case faultOverflow:
				return nil, diagnostic.New(diagnostic.UnperformableArithmetic, e.Pos(),
					"Arithmetic %s between Int and Int overflows: %d %s %d", e.Operator, l, e.Operator.Symbol(), r)
			}
			return Int(result), nil
		}
	case Double:
		if r, ok := right.(Double); ok {
			return Double(doubleArith(e.Operator, float64(l), float64(r))), nil
		}
	case String:
		if r, ok := right.(String); ok && e.Operator == ast.Addition {
			return l + r, nil
		}
	}
	return nil, diagnostic.New(diagnostic.UnperformableArithmetic, e.Pos(),
		"Arithmetic %s between %s and %s is inoperable", e.Operator, left.Sort(), right.Sort())
}

func (vm *VM) evalArguments(exprs []ast.Expression, frame *Frame) ([]Value, error) {
	args := make([]Value, 0, len(exprs))
	for _, a := range exprs {
		v, err := vm.EvalExpression(a, frame)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (vm *VM) evalCall(e *ast.CallExpression, frame *Frame) (Value, error) {
	callee, err := vm.EvalExpression(e.Callee, frame)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*Function)
	if !ok {
		return nil, diagnostic.New(diagnostic.UncallableReference, e.Callee.Pos(),
			"The type %s is not a function I can invoke", callee.Sort())
	}

	args, err := vm.evalArguments(e.Arguments, frame)
	if err != nil {
		return nil, err
	}

	if err := vm.enter(e.Pos()); err != nil {
		return nil, err
	}
	defer vm.leave()

	if fn.IsNative() {
		return vm.callNative(fn, args, e.Pos())
	}
	return vm.callUser(fn, args, e, frame)
}

func (vm *VM) enter(pos diagnostic.Position) error {
	if vm.depth >= vm.maxDepth {
		return diagnostic.New(diagnostic.StackOverflow, pos,
			"Maximum call depth of %d exceeded", vm.maxDepth)
	}
	vm.depth++
	return nil
}

func (vm *VM) leave() {
	vm.depth--
}

func (vm *VM) callNative(fn *Function, args []Value, pos diagnostic.Position) (Value, error) {
	vm.log.Debug("native call", "name", fn.Name, "args", len(args))

	result, err := fn.Native(vm, args)
	if err != nil {
		d, ok := diagnostic.As(err)
		if !ok {
			return nil, diagnostic.New(diagnostic.NativeFailure, pos, "%s: %v", fn.Name, err)
		}
		if !d.Position.IsValid() {
			d.Position = pos
		}
		return nil, d
	}
	if result == nil {
		return Occult, nil
	}
	return result, nil
}

func (vm *VM) callUser(fn *Function, args []Value, e *ast.CallExpression, frame *Frame) (Value, error) {
	sub := frame.Clone()

	for i, param := range fn.Parameters {
		if i >= len(args) {
			if !param.Optional {
				return nil, diagnostic.New(diagnostic.AnticipatedArgument, e.Pos(),
					"Function you are trying to invoke needs an argument for '%s'", param.Name)
			}
			continue
		}

		arg, m := conform(args[i], param.Sort)
		if m != nil {
			pos := e.Pos()
			if i < len(e.Arguments) {
				pos = e.Arguments[i].Pos()
			}
			return nil, diagnostic.New(diagnostic.TypeMismatch, pos,
				"Type '%s' is not valid for type '%s' in function argument for '%s'",
				args[i].Sort(), param.Sort, param.Name)
		}
		sub.Set(param.Name, arg)
	}

	vm.log.Debug("call", "sort", fn.sort.String(), "args", len(args), "depth", vm.depth)

	for _, stmt := range fn.Body {
		if _, err := vm.EvalStatement(stmt, sub); err != nil {
			return nil, fn.attach(err)
		}
	}

	returns, declared := fn.sort.ElementKind()
	if declared && returns == sorts.Occult {
		return Occult, nil
	}

	if fn.Provides == nil {
		if !declared {
			return Occult, nil
		}
		return nil, diagnostic.New(diagnostic.TypeMismatch, e.Callee.Pos(),
			"A function of '%s' should provide a type", *fn.sort.Element)
	}

	provided, err := vm.EvalExpression(fn.Provides, sub)
	if err != nil {
		return nil, fn.attach(err)
	}
	if !declared {
		return provided, nil
	}

	bound, m := conform(provided, *fn.sort.Element)
	if m != nil {
		return nil, fn.attach(diagnostic.New(diagnostic.TypeMismatch, fn.Provides.Pos(),
			"A function of '%s' cannot provide type '%s'", *fn.sort.Element, provided.Sort()))
	}
	return bound, nil
}

func (vm *VM) evalEmbody(e *ast.EmbodyExpression, frame *Frame) (Value, error) {
	target, err := vm.EvalExpression(e.Target, frame)
	if err != nil {
		return nil, err
	}
	ark, ok := target.(*Ark)
	if !ok {
		return nil, diagnostic.New(diagnostic.UncallableReference, e.Target.Pos(),
			"The type %s is not an Ark I can embody", target.Sort())
	}

	args, err := vm.evalArguments(e.Arguments, frame)
	if err != nil {
		return nil, err
	}

	if err := vm.enter(e.Pos()); err != nil {
		return nil, err
	}
	defer vm.leave()

	sub := frame.Clone()
	sub.Set(ArgumentsName, NewArrayOf(occultSort, args))

	vm.log.Debug("embody", "args", len(args), "depth", vm.depth)

	result, err := vm.run(ark.Program, sub, ark.importer)
	if err != nil {
		return nil, attachOrigin(err, ark.origin)
	}
	return result, nil
}

func (vm *VM) evalPrimitive(expr ast.Expression, frame *Frame) (Value, error) {
	switch p := expr.(type) {
	case *ast.IntegerLiteral:
		return Int(p.Value), nil
	case *ast.DoubleLiteral:
		return Double(p.Value), nil
	case *ast.StringLiteral:
		return String(p.Value), nil
	case *ast.BooleanLiteral:
		return Boolean(p.Value), nil
	case *ast.ArrayLiteral:
		elements, err := vm.evalArguments(p.Elements, frame)
		if err != nil {
			return nil, err
		}
		return NewArray(elements), nil
	case *ast.RecordLiteral:
		return vm.evalRecord(p, frame)
	case *ast.FunctionLiteral:
		return &Function{
			Parameters: p.Parameters,
			Body:       p.Body,
			Provides:   p.Provides,
			origin:     vm.source,
			sort:       sorts.Of(sorts.Function),
		}, nil
	case *ast.ArkLiteral:
		return &Ark{Program: p.Program, origin: vm.source, importer: vm.importer}, nil
	}
	return nil, diagnostic.New(diagnostic.UnknownType, expr.Pos(),
		"Primitive '%s' is not known", fmt.Sprintf("%T", expr))
}

func (vm *VM) evalRecord(p *ast.RecordLiteral, frame *Frame) (Value, error) {
	entries := make([]Entry, 0, len(p.Entries))
	seen := make(map[string]bool, len(p.Entries))

	for _, entry := range p.Entries {
		key := entry.Key.Value
		if seen[key] {
			return nil, diagnostic.New(diagnostic.DuplicateElement, entry.Key.Pos(),
				"Records cannot have duplicate keys").WithHint(fmt.Sprintf("'%s' is already declared", key))
		}
		seen[key] = true

		v, err := vm.EvalExpression(entry.Value, frame)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, Value: v})
	}
	return NewRecord(entries), nil
}
