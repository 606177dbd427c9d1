package treestate

import (
	"time"

	"github.com/goliatone/go-treestate/tree"
)

// ResetTitle and ResetMessage are shown when a reset would discard unsaved
// changes.
const (
	ResetTitle   = "Unsaved changes!"
	ResetMessage = "It looks like you've been editing something!\nAll unsaved changes will be lost. Continue anyway?"
)

// Confirmer asks the user to approve a destructive action. Implementations
// must not block: onConfirm is called later, at most once, only if the user
// accepts.
type Confirmer interface {
	Confirm(title, message string, onConfirm func())
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(title, message string, onConfirm func())

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(title, message string, onConfirm func()) {
	if f != nil {
		f(title, message, onConfirm)
	}
}

// Views are the widgets that derive their state from the document.
type Views interface {
	RefreshPreview()
	RefreshDerivedConfig()
}

// ViewFuncs adapts plain functions to Views. Nil fields are skipped.
type ViewFuncs struct {
	Preview       func()
	DerivedConfig func()
}

// RefreshPreview implements Views.
func (v ViewFuncs) RefreshPreview() {
	if v.Preview != nil {
		v.Preview()
	}
}

// RefreshDerivedConfig implements Views.
func (v ViewFuncs) RefreshDerivedConfig() {
	if v.DerivedConfig != nil {
		v.DerivedConfig()
	}
}

// Editor is the host widget that edits single nodes.
type Editor interface {
	ApplyEditedNode(node *tree.Node)
	PresentWidgetPicker(node *tree.Node)
}

// Widget displays the tree being edited.
type Widget interface {
	SetRoot(root *tree.Node)
}

// History is the undo/redo capability of the editing widget. Steps report
// whether there was an entry to move to.
type History interface {
	StepBack() bool
	StepForward() bool
}

// RootHistory is a History that also exposes the tree at its cursor. The
// controller adopts that tree after a successful step.
type RootHistory interface {
	History
	Root() *tree.Node
}

// RootSource exposes the current document.
type RootSource interface {
	Root() *tree.Node
}

// KeyEvent is a key transition delivered by the host.
type KeyEvent struct {
	Msg  KeyMsg
	Down bool
}

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// QueryContext carries inputs needed when evaluating a document query.
type QueryContext struct {
	// Document is the value queried. Nil means the controller's current
	// tree. A *tree.Node or raw JSON ([]byte, json.RawMessage) is converted
	// with tree.ToValue; anything else is bound as is.
	Document any
	// Path narrows a tree document to one of its nodes.
	Path     tree.Path
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	// Source labels the document in errors and logs.
	Source string
}

func (ctx QueryContext) withDefaultNow() QueryContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx QueryContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx QueryContext) withDefaultMaps() QueryContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx QueryContext) withDefaults() QueryContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx QueryContext) sourceLabel() string {
	if ctx.Source != "" {
		return ctx.Source
	}
	return "document"
}

// bindings returns the variables visible to an expression: doc, now, args,
// metadata and, for object documents, each top-level member. Reserved names
// win over members of the same name.
func (ctx QueryContext) bindings() map[string]any {
	env := map[string]any{}
	if members, ok := ctx.Document.(map[string]any); ok {
		for key, value := range members {
			env[key] = value
		}
	}
	env["doc"] = ctx.Document
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	return env
}

// Evaluator executes expressions against a query context.
type Evaluator interface {
	Evaluate(ctx QueryContext, expr string) (any, error)
	Compile(expr string) (CompiledQuery, error)
}

// CompiledQuery represents a reusable expression program.
type CompiledQuery interface {
	Evaluate(ctx QueryContext) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
