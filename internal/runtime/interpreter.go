package runtime

import (
	"math"

	"fortio.org/log"

	"kaulin/internal/ast"
	"kaulin/internal/diag"
	"kaulin/internal/span"
)

// ============================================================
// Runtime errors
// ============================================================

func runtimeErr(kind diag.Kind, code string, s span.Span, format string, args ...any) *diag.Diagnostic {
	return diag.Errorf(kind, code, s, format, args...)
}

// at attaches s to a diagnostic produced without a location (by the environment or
// a native function).
func at(err error, s span.Span) error {
	if d, ok := diag.As(err); ok && !d.Span.Start.IsValid() {
		d.Span = s
	}
	return err
}

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and evaluates it. It holds no bindings of its own: all
// state lives in the Environment passed to Evaluate.
type Interpreter struct {
	maxDepth int
	depth    int
}

// NewInterpreter creates an interpreter with the call depth limit from opts.
func NewInterpreter(opts Options) *Interpreter {
	opts = opts.withDefaults()
	return &Interpreter{maxDepth: opts.MaxCallDepth}
}

// Evaluate evaluates node in env. A Program or Block yields the value of its last
// statement; declarations and loops that never ran yield tyhjä.
func (i *Interpreter) Evaluate(node ast.Node, env *Environment) (Value, error) {
	switch n := node.(type) {
	case ast.Stmt:
		return i.execStmt(n, env)
	case ast.Expr:
		return i.evalExpr(n, env)
	default:
		return nil, runtimeErr(diag.Type, "E4000", node.GetSpan(), "cannot evaluate %T", node)
	}
}

// ============================================================
// Statement execution
// ============================================================

func (i *Interpreter) execStmt(stmt ast.Stmt, env *Environment) (Value, error) {
	switch s := stmt.(type) {
	case *ast.Program:
		return i.execStmts(s.Body, env)
	case *ast.VarDeclaration:
		return i.execVarDecl(s, env)
	case *ast.FunctionDeclaration:
		return i.execFuncDecl(s, env)
	case *ast.WhileLoop:
		return i.execWhile(s, env)
	case *ast.ForLoop:
		return i.execFor(s, env)
	case *ast.ExpressionStatement:
		return i.evalExpr(s.Expr, env)
	default:
		return nil, runtimeErr(diag.Type, "E4000", stmt.GetSpan(), "unknown statement %T", stmt)
	}
}

// execStmts runs statements in env and returns the last value.
func (i *Interpreter) execStmts(stmts []ast.Stmt, env *Environment) (Value, error) {
	var result Value = NullVal{}
	for _, stmt := range stmts {
		val, err := i.execStmt(stmt, env)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}

// execBlock runs a block in the frame the caller created for it.
func (i *Interpreter) execBlock(block *ast.Block, blockEnv *Environment) (Value, error) {
	return i.execStmts(block.Stmts, blockEnv)
}

func (i *Interpreter) execVarDecl(s *ast.VarDeclaration, env *Environment) (Value, error) {
	var val Value = NullVal{}
	if s.Value != nil {
		var err error
		if val, err = i.evalExpr(s.Value, env); err != nil {
			return nil, err
		}
	}
	if err := env.Declare(s.Name, val, s.Constant); err != nil {
		return nil, at(err, s.Span)
	}
	log.LogVf("declare %s = %v (constant %t)", s.Name, val, s.Constant)
	return NullVal{}, nil
}

// execFuncDecl binds a closure over the current frame as a constant.
func (i *Interpreter) execFuncDecl(s *ast.FunctionDeclaration, env *Environment) (Value, error) {
	fn := &FuncVal{
		Name:    s.Name,
		Params:  s.Params,
		Body:    s.Body,
		Closure: env,
	}
	if err := env.Declare(s.Name, fn, true); err != nil {
		return nil, at(err, s.Span)
	}
	log.LogVf("declare function %s(%d params)", s.Name, len(s.Params))
	return NullVal{}, nil
}

func (i *Interpreter) execWhile(s *ast.WhileLoop, env *Environment) (Value, error) {
	var result Value = NullVal{}
	for iter := 0; ; iter++ {
		cond, err := i.evalExpr(s.Condition, env)
		if err != nil {
			return nil, err
		}
		if !IsTruthy(cond) {
			return result, nil
		}
		log.LogVf("while iteration %d", iter)
		if result, err = i.execBlock(s.Body, NewEnvironment(env)); err != nil {
			return nil, err
		}
	}
}

// execFor gives the initializer its own frame so the loop variable is not visible
// after the loop; each iteration's body gets a fresh child of that frame.
func (i *Interpreter) execFor(s *ast.ForLoop, env *Environment) (Value, error) {
	loopEnv := NewEnvironment(env)
	if s.Init != nil {
		if _, err := i.execVarDecl(s.Init, loopEnv); err != nil {
			return nil, err
		}
	}

	var result Value = NullVal{}
	for iter := 0; ; iter++ {
		cond, err := i.evalExpr(s.Condition, loopEnv)
		if err != nil {
			return nil, err
		}
		if !IsTruthy(cond) {
			return result, nil
		}
		log.LogVf("for iteration %d", iter)
		if result, err = i.execBlock(s.Body, NewEnvironment(loopEnv)); err != nil {
			return nil, err
		}
		if _, err := i.evalExpr(s.Increment, loopEnv); err != nil {
			return nil, err
		}
	}
}

// ============================================================
// Expression evaluation
// ============================================================

func (i *Interpreter) evalExpr(expr ast.Expr, env *Environment) (Value, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		val, err := env.Lookup(e.Symbol)
		return val, at(err, e.Span)
	case *ast.NumericLiteral:
		return NumberVal(e.Value), nil
	case *ast.FloatLiteral:
		return NumberVal(e.Value), nil
	case *ast.StringLiteral:
		return StringVal(e.Value), nil
	case *ast.ArrayLiteral:
		return i.evalArrayLiteral(e, env)
	case *ast.ObjectLiteral:
		return i.evalObjectLiteral(e, env)
	case *ast.BinaryExpr:
		return i.evalBinary(e, env)
	case *ast.UnaryExpr:
		return i.evalUnary(e, env)
	case *ast.AssignmentExpr:
		return i.evalAssign(e, env)
	case *ast.MemberExpr:
		return i.evalMember(e, env)
	case *ast.CallExpr:
		return i.evalCall(e, env)
	case *ast.IfElseExpr:
		return i.evalIfElse(e, env)
	default:
		return nil, runtimeErr(diag.Type, "E4000", expr.GetSpan(), "unknown expression %T", expr)
	}
}

func (i *Interpreter) evalArrayLiteral(e *ast.ArrayLiteral, env *Environment) (Value, error) {
	elements := make([]Value, len(e.Elements))
	for idx, elem := range e.Elements {
		val, err := i.evalExpr(elem, env)
		if err != nil {
			return nil, err
		}
		elements[idx] = val
	}
	return &ArrayVal{Elements: elements}, nil
}

// evalObjectLiteral evaluates properties in order; shorthand `{ x }` reads x from env.
func (i *Interpreter) evalObjectLiteral(e *ast.ObjectLiteral, env *Environment) (Value, error) {
	obj := NewObject()
	for _, prop := range e.Properties {
		var val Value
		var err error
		if prop.Value == nil {
			val, err = env.Lookup(prop.Key)
			err = at(err, prop.Span)
		} else {
			val, err = i.evalExpr(prop.Value, env)
		}
		if err != nil {
			return nil, err
		}
		obj.Set(prop.Key, val)
	}
	return obj, nil
}

// evalBinary evaluates both operands before applying the operator, so && and ||
// never short-circuit.
func (i *Interpreter) evalBinary(e *ast.BinaryExpr, env *Environment) (Value, error) {
	left, err := i.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}
	val, err := applyBinary(e.Op, left, right)
	if err != nil {
		return nil, at(err, e.Span)
	}
	return val, nil
}

func applyBinary(op ast.BinaryOperator, left, right Value) (Value, error) {
	switch l := left.(type) {
	case NumberVal:
		if r, ok := right.(NumberVal); ok {
			return numberOp(op, l, r)
		}
	case StringVal:
		if r, ok := right.(StringVal); ok {
			switch op {
			case ast.Add:
				return l + r, nil
			case ast.Equal:
				return BoolVal(l == r), nil
			case ast.NotEqual:
				return BoolVal(l != r), nil
			}
		}
	case BoolVal:
		if r, ok := right.(BoolVal); ok {
			switch op {
			case ast.And:
				return l && r, nil
			case ast.Or:
				return l || r, nil
			case ast.Equal:
				return BoolVal(l == r), nil
			case ast.NotEqual:
				return BoolVal(l != r), nil
			}
		}
	case NullVal:
		if _, ok := right.(NullVal); ok {
			switch op {
			case ast.Equal:
				return BoolVal(true), nil
			case ast.NotEqual:
				return BoolVal(false), nil
			}
		}
	}
	return nil, operandMismatch(op, left, right)
}

func numberOp(op ast.BinaryOperator, l, r NumberVal) (Value, error) {
	switch op {
	case ast.Add:
		return l + r, nil
	case ast.Subtract:
		return l - r, nil
	case ast.Multiply:
		return l * r, nil
	case ast.Divide:
		if r == 0 {
			return nil, runtimeErr(diag.Arithmetic, "E5001", span.Span{}, "division by zero")
		}
		return l / r, nil
	case ast.Modulus:
		if r == 0 {
			return nil, runtimeErr(diag.Arithmetic, "E5002", span.Span{}, "modulus by zero")
		}
		return NumberVal(math.Mod(float64(l), float64(r))), nil
	case ast.Exponent:
		return NumberVal(math.Pow(float64(l), float64(r))), nil
	case ast.Equal:
		return BoolVal(l == r), nil
	case ast.NotEqual:
		return BoolVal(l != r), nil
	case ast.LessThan:
		return BoolVal(l < r), nil
	case ast.GreaterThan:
		return BoolVal(l > r), nil
	case ast.LessThanOrEqual:
		return BoolVal(l <= r), nil
	case ast.GreaterThanOrEqual:
		return BoolVal(l >= r), nil
	default:
		return nil, operandMismatch(op, l, r)
	}
}

func operandMismatch(op ast.BinaryOperator, left, right Value) error {
	return runtimeErr(diag.Type, "E4001", span.Span{},
		"operator '%s' cannot be applied to %s and %s", op, left.TypeName(), right.TypeName())
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpr, env *Environment) (Value, error) {
	operand, err := i.evalExpr(e.Operand, env)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case ast.Negate:
		if n, ok := operand.(NumberVal); ok {
			return -n, nil
		}
	case ast.Not:
		if b, ok := operand.(BoolVal); ok {
			return !b, nil
		}
	}
	return nil, runtimeErr(diag.Type, "E4002", e.Span,
		"operator '%s' cannot be applied to %s", e.Op, operand.TypeName())
}

// evalAssign rebinds a variable. Only identifiers are assignable.
func (i *Interpreter) evalAssign(e *ast.AssignmentExpr, env *Environment) (Value, error) {
	target, ok := e.Assignee.(*ast.Identifier)
	if !ok {
		return nil, runtimeErr(diag.Type, "E4005", e.Assignee.GetSpan(), "invalid assignment target").
			WithHint("only variables can be assigned; objects and lists are immutable")
	}

	val, err := i.evalExpr(e.Value, env)
	if err != nil {
		return nil, err
	}
	if err := env.Assign(target.Symbol, val); err != nil {
		return nil, at(err, e.Span)
	}
	log.LogVf("assign %s = %v", target.Symbol, val)
	return val, nil
}

// evalIfElse requires a boolean condition and runs the chosen branch in a child frame.
func (i *Interpreter) evalIfElse(e *ast.IfElseExpr, env *Environment) (Value, error) {
	condVal, err := i.evalExpr(e.Condition, env)
	if err != nil {
		return nil, err
	}
	cond, ok := condVal.(BoolVal)
	if !ok {
		return nil, runtimeErr(diag.Type, "E4006", e.Condition.GetSpan(),
			"condition must be totuusarvo, got %s", condVal.TypeName())
	}

	switch {
	case bool(cond):
		log.LogVf("if condition is tosi, taking then branch")
		return i.execBlock(e.Then, NewEnvironment(env))
	case e.Else != nil:
		log.LogVf("if condition is epätosi, taking else branch")
		return i.execBlock(e.Else, NewEnvironment(env))
	default:
		return NullVal{}, nil
	}
}

// ============================================================
// Member access
// ============================================================

func (i *Interpreter) evalMember(e *ast.MemberExpr, env *Environment) (Value, error) {
	object, err := i.evalExpr(e.Object, env)
	if err != nil {
		return nil, err
	}

	if !e.Computed {
		name := e.Property.(*ast.Identifier).Symbol
		obj, ok := object.(*ObjectVal)
		if !ok {
			return nil, runtimeErr(diag.Type, "E4007", e.Span,
				"cannot read property '%s' of %s", name, object.TypeName())
		}
		return property(obj, name, e.Span)
	}

	key, err := i.evalExpr(e.Property, env)
	if err != nil {
		return nil, err
	}

	switch obj := object.(type) {
	case *ArrayVal:
		idx, err := index(key, len(obj.Elements), e.Property.GetSpan())
		if err != nil {
			return nil, err
		}
		return obj.Elements[idx], nil
	case *ObjectVal:
		name, ok := key.(StringVal)
		if !ok {
			return nil, runtimeErr(diag.Type, "E4007", e.Property.GetSpan(),
				"object keys must be merkkijono, got %s", key.TypeName())
		}
		return property(obj, string(name), e.Span)
	case StringVal:
		runes := []rune(string(obj))
		idx, err := index(key, len(runes), e.Property.GetSpan())
		if err != nil {
			return nil, err
		}
		return StringVal(runes[idx]), nil
	default:
		return nil, runtimeErr(diag.Type, "E4007", e.Span, "%s cannot be indexed", object.TypeName())
	}
}

func property(obj *ObjectVal, name string, s span.Span) (Value, error) {
	val, ok := obj.Get(name)
	if !ok {
		return nil, runtimeErr(diag.Name, "E3004", s, "object has no property '%s'", name)
	}
	return val, nil
}

// index checks that key is an integral Number inside [0, length).
func index(key Value, length int, s span.Span) (int, error) {
	n, ok := key.(NumberVal)
	if !ok || !n.IsIntegral() {
		return 0, runtimeErr(diag.Type, "E4007", s, "index must be a whole luku, got %s", key)
	}
	if n < 0 || float64(n) >= float64(length) {
		return 0, runtimeErr(diag.Type, "E4008", s, "index %s out of range for length %d", n, length)
	}
	return int(n), nil
}

// ============================================================
// Calls
// ============================================================

// evalCall evaluates the callee, then the arguments left to right in the caller's frame.
func (i *Interpreter) evalCall(e *ast.CallExpr, env *Environment) (Value, error) {
	callee, err := i.evalExpr(e.Callee, env)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(e.Args))
	for idx, arg := range e.Args {
		val, err := i.evalExpr(arg, env)
		if err != nil {
			return nil, err
		}
		args[idx] = val
	}

	switch fn := callee.(type) {
	case *FuncVal:
		return i.callFunc(fn, args, e.Span)
	case *NativeFuncVal:
		log.LogVf("call native %s with %d args", fn.Name, len(args))
		val, err := fn.Fn(args, env)
		if err != nil {
			return nil, at(err, e.Span)
		}
		return val, nil
	default:
		return nil, runtimeErr(diag.Type, "E4003", e.Callee.GetSpan(), "%s is not callable", callee.TypeName())
	}
}

// callFunc runs fn's body in a new frame whose parent is the captured frame.
func (i *Interpreter) callFunc(fn *FuncVal, args []Value, s span.Span) (Value, error) {
	if len(args) != len(fn.Params) {
		return nil, runtimeErr(diag.Type, "E4004", s,
			"%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	if i.depth >= i.maxDepth {
		return nil, runtimeErr(diag.Resource, "E6001", s,
			"maximum call depth %d exceeded in %s", i.maxDepth, fn.Name).
			WithHint("check for recursion without a base case")
	}
	i.depth++
	defer func() { i.depth-- }()

	log.LogVf("call %s depth %d", fn.Name, i.depth)
	frame := NewEnvironment(fn.Closure)
	for idx, param := range fn.Params {
		if err := frame.Declare(param, args[idx], false); err != nil {
			return nil, at(err, s)
		}
	}
	return i.execBlock(fn.Body, frame)
}
