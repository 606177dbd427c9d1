package treestate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-treestate/pkg/editorerr"
	"github.com/goliatone/go-treestate/tree"
)

// QueryStage names the step at which a document query failed.
type QueryStage string

const (
	// StageDocument covers resolving the queried node or decoding raw JSON.
	StageDocument QueryStage = "document"
	StageCompile  QueryStage = "compile"
	StageRun      QueryStage = "run"
)

var (
	// ErrEmptyExpression is returned for blank query expressions.
	ErrEmptyExpression = errors.New("treestate: expression must not be empty")

	errDetachedQuery = errors.New("compiled query has no evaluator")
)

// EvaluationError reports a failed document query: which engine and stage
// failed, on which document and node.
type EvaluationError struct {
	Engine string
	Stage  QueryStage
	Expr   string
	Source string
	// Path is the queried node, nil when the query targeted the root.
	Path tree.Path
	Err  error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("treestate: ")
	b.WriteString(e.Engine)
	b.WriteString(" query")
	if e.Expr != "" {
		fmt.Fprintf(&b, " %q", e.Expr)
	}
	if e.Stage != "" {
		fmt.Fprintf(&b, " failed at %s", e.Stage)
	} else {
		b.WriteString(" failed")
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " on %s", e.Source)
	}
	if e.Path != nil {
		fmt.Fprintf(&b, " node %s", e.Path)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseError returns the decode failure behind a query over raw JSON text.
func (e *EvaluationError) ParseError() (*editorerr.ParseError, bool) {
	var parseErr *editorerr.ParseError
	if e == nil || !errors.As(e.Err, &parseErr) {
		return nil, false
	}
	return parseErr, true
}

// queryError attributes err to engine at stage. An error that already is an
// EvaluationError keeps its engine and stage and only gains the query
// context it was missing.
func queryError(engine string, stage QueryStage, expr string, ctx QueryContext, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Source == "" {
			evalErr.Source = ctx.Source
		}
		if evalErr.Path == nil && ctx.Path != nil {
			evalErr.Path = append(tree.Path{}, ctx.Path...)
		}
		return evalErr
	}
	out := &EvaluationError{
		Engine: engine,
		Stage:  stage,
		Expr:   expr,
		Source: ctx.Source,
		Err:    err,
	}
	if ctx.Path != nil {
		out.Path = append(tree.Path{}, ctx.Path...)
	}
	return out
}
