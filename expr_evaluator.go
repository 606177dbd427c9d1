package treestate

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr evaluator.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr evaluator.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprEvaluator runs document queries using github.com/expr-lang/expr.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Engine() string { return "expr" }

// Evaluate compiles and runs expression against the document bindings.
func (e *exprEvaluator) Evaluate(ctx QueryContext, expression string) (any, error) {
	if expression == "" {
		return nil, queryError("expr", StageCompile, "", ctx, ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, queryError("expr", StageCompile, expression, ctx, err)
	}
	result, err := exprlang.Run(program, e.environment(ctx))
	if err != nil {
		return nil, queryError("expr", StageRun, expression, ctx, err)
	}
	return result, nil
}

// Compile returns a query that reuses one program across documents.
func (e *exprEvaluator) Compile(expression string) (CompiledQuery, error) {
	if expression == "" {
		return nil, queryError("expr", StageCompile, "", QueryContext{}, ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledQuery{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey("expr", expression)); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		options = append(options, exprlang.Function("call", e.callFunction))
		for _, name := range e.registry.Names() {
			options = append(options, exprlang.Function(name, e.registryFunction(name)))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, queryError("expr", StageCompile, expression, QueryContext{}, err)
	}
	if e.cache != nil {
		e.cache.Set(cacheKey("expr", expression), program)
	}
	return program, nil
}

type exprCompiledQuery struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (q *exprCompiledQuery) Evaluate(ctx QueryContext) (any, error) {
	if q.evaluator == nil {
		return nil, queryError("expr", StageRun, q.expression, ctx, errDetachedQuery)
	}
	ctx = ctx.withDefaults()
	if q.program == nil {
		return q.evaluator.Evaluate(ctx, q.expression)
	}
	result, err := exprlang.Run(q.program, q.evaluator.environment(ctx))
	if err != nil {
		return nil, queryError("expr", StageRun, q.expression, ctx, err)
	}
	return result, nil
}

// environment binds the document. Registry functions are compiled into the
// program and need no runtime binding.
func (e *exprEvaluator) environment(ctx QueryContext) map[string]any {
	return ctx.bindings()
}

func (e *exprEvaluator) callFunction(params ...any) (any, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("call needs a function name")
	}
	name, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("call needs a function name, got %T", params[0])
	}
	return e.registry.Call(name, params[1:]...)
}

func (e *exprEvaluator) registryFunction(name string) func(...any) (any, error) {
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}
