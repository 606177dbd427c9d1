package treestate

import (
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
// Helpers are reachable as call("name", [args...]) or name(arg).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Engine() string { return "cel" }

func (e *celEvaluator) Evaluate(ctx QueryContext, expression string) (any, error) {
	if expression == "" {
		return nil, queryError("cel", StageCompile, "", ctx, ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()
	bindings := ctx.bindings()
	program, err := e.loadOrCompile(expression, bindings)
	if err != nil {
		return nil, queryError("cel", StageCompile, expression, ctx, err)
	}
	out, _, err := program.program.Eval(bindings)
	if err != nil {
		return nil, queryError("cel", StageRun, expression, ctx, err)
	}
	return celNative(out)
}

// Compile parses and checks expression eagerly. CEL environments declare
// each top-level member, so the program itself is built per document shape.
func (e *celEvaluator) Compile(expression string) (CompiledQuery, error) {
	if expression == "" {
		return nil, queryError("cel", StageCompile, "", QueryContext{}, ErrEmptyExpression)
	}
	env, err := e.buildEnv(nil)
	if err != nil {
		return nil, queryError("cel", StageCompile, expression, QueryContext{}, err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, queryError("cel", StageCompile, expression, QueryContext{}, issues.Err())
	}
	return &celCompiledQuery{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, bindings map[string]any) (*celProgram, error) {
	names := variableNames(bindings)
	key := cacheKey("cel", expression+"\x00"+strings.Join(names, ","))
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(names)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(key, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(members []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("doc", celgo.DynType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
	}
	for _, name := range members {
		if reservedBinding(name) {
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string",
				[]*celgo.Type{celgo.StringType}, celgo.DynType,
				celgo.UnaryBinding(func(name ref.Val) ref.Val {
					return e.invoke(name, nil)
				})),
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)}, celgo.DynType,
				celgo.BinaryBinding(func(name, args ref.Val) ref.Val {
					return e.invoke(name, args)
				})),
		))
		for _, fn := range e.registry.Names() {
			name := fn
			opts = append(opts, celgo.Function(name,
				celgo.Overload(name+"_dyn",
					[]*celgo.Type{celgo.DynType}, celgo.DynType,
					celgo.UnaryBinding(func(arg ref.Val) ref.Val {
						return e.result(e.registry.Call(name, arg.Value()))
					})),
			))
		}
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) invoke(name, args ref.Val) ref.Val {
	fn, ok := name.Value().(string)
	if !ok {
		return types.NewErr("treestate: call name must be string")
	}
	var arguments []any
	if args != nil {
		native, err := args.ConvertToNative(reflect.TypeOf([]any{}))
		if err != nil {
			return types.NewErr("treestate: call arguments: %v", err)
		}
		arguments, _ = native.([]any)
	}
	return e.result(e.registry.Call(fn, arguments...))
}

func (e *celEvaluator) result(value any, err error) ref.Val {
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if value == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(value)
}

type celCompiledQuery struct {
	evaluator  *celEvaluator
	expression string
}

func (q *celCompiledQuery) Evaluate(ctx QueryContext) (any, error) {
	if q.evaluator == nil {
		return nil, queryError("cel", StageRun, q.expression, ctx, errDetachedQuery)
	}
	return q.evaluator.Evaluate(ctx, q.expression)
}

// celNative converts CEL aggregates back into plain Go values.
func celNative(out ref.Val) (any, error) {
	switch out.(type) {
	case traits.Mapper:
		return out.ConvertToNative(reflect.TypeOf(map[string]any{}))
	case traits.Lister:
		return out.ConvertToNative(reflect.TypeOf([]any{}))
	}
	if out == types.NullValue {
		return nil, nil
	}
	return out.Value(), nil
}

func variableNames(bindings map[string]any) []string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		if isIdentifier(name) && !celKeyword(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func celKeyword(name string) bool {
	switch name {
	case "true", "false", "null", "in", "as", "break", "const", "continue",
		"else", "for", "function", "if", "import", "let", "loop", "package",
		"namespace", "return", "var", "void", "while":
		return true
	}
	return false
}
