package treestate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-treestate/pkg/logging"
	"github.com/goliatone/go-treestate/tree"
)

var ErrNoEvaluator = errors.New("treestate: evaluator not configured")

// Query evaluates expr against the current document. The document is bound
// as doc and, for objects, each top-level member is bound by name.
func (c *Controller) Query(expr string) (Response[any], error) {
	return c.QueryWith(QueryContext{}, expr)
}

// QueryAt evaluates expr against the node at path in the current document.
func (c *Controller) QueryAt(path tree.Path, expr string) (Response[any], error) {
	return c.QueryWith(QueryContext{Path: path}, expr)
}

// QueryWith evaluates expr using ctx, falling back to the current document
// when ctx.Document is nil.
func (c *Controller) QueryWith(ctx QueryContext, expr string) (Response[any], error) {
	evaluator, err := c.resolveEvaluator()
	if err != nil {
		return Response[any]{}, err
	}
	engine := evaluatorEngineName(evaluator)
	if ctx.Source == "" && c.cfg.autosave != nil {
		if ref, refErr := c.cfg.autosave.Ref(); refErr == nil {
			ctx.Source = ref.Asset
		}
	}
	ctx.Source = ctx.sourceLabel()
	ctx = ctx.withDefaults()

	start := time.Now()
	var value any
	if expr == "" {
		err = queryError(engine, StageCompile, expr, ctx, ErrEmptyExpression)
	} else if ctx.Document, err = c.queryDocument(ctx); err != nil {
		err = queryError(engine, StageDocument, expr, ctx, err)
	} else {
		value, err = evaluator.Evaluate(ctx, expr)
		err = queryError(engine, StageRun, expr, ctx, err)
	}
	c.logger.Log(logging.Event{
		Level:    logging.LevelDebug,
		Op:       "query." + engine,
		Message:  expr,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: value}, nil
}

// queryDocument resolves the value bound as doc.
func (c *Controller) queryDocument(ctx QueryContext) (any, error) {
	var node *tree.Node
	switch doc := ctx.Document.(type) {
	case nil:
		node = c.root
	case *tree.Node:
		node = doc
	case json.RawMessage:
		parsed, err := tree.Parse(doc)
		if err != nil {
			return nil, err
		}
		node = parsed
	case []byte:
		parsed, err := tree.Parse(doc)
		if err != nil {
			return nil, err
		}
		node = parsed
	default:
		if len(ctx.Path) > 0 {
			return nil, fmt.Errorf("node paths need a tree document, got %T", doc)
		}
		return doc, nil
	}
	target, err := node.At(ctx.Path)
	if err != nil {
		return nil, err
	}
	return tree.ToValue(target), nil
}

func (c *Controller) resolveEvaluator() (Evaluator, error) {
	if c.evaluator != nil {
		return c.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := c.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := c.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoEvaluator
	}
	c.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return "custom"
}
