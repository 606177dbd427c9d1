// Package treestate holds the state core of a JSON tree editor: the document
// being edited, its unsaved-changes flag, and the reset, undo/redo, save,
// autosave recovery and clipboard flows that move it between states.
//
// A Controller is driven from the host's single logic thread and is not
// safe for concurrent use. Collaborators (confirmation dialog, views,
// history, editing widgets) are injected through Options.
package treestate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-treestate/internal/fsutil"
	"github.com/goliatone/go-treestate/pkg/activity"
	"github.com/goliatone/go-treestate/pkg/clipboard"
	"github.com/goliatone/go-treestate/pkg/editorerr"
	"github.com/goliatone/go-treestate/pkg/logging"
	"github.com/goliatone/go-treestate/tree"
	"github.com/google/uuid"
)

// SavePerm is the file mode SaveToFile gives to new files. Existing files
// keep their mode.
const SavePerm = 0o644

var (
	// ErrNoEditor is returned by node operations when no Editor is set.
	ErrNoEditor = errors.New("treestate: editor not configured")
)

// recorder is implemented by histories that accept new entries, such as
// history.Snapshots.
type recorder interface {
	Record(root *tree.Node)
}

// Controller owns the document being edited.
type Controller struct {
	cfg       optionsConfig
	logger    logging.Logger
	emitter   *activity.Emitter
	clipboard *clipboard.Bridge
	evaluator Evaluator
	keys      KeyMap
	sessionID string

	root      *tree.Node
	dirty     bool
	activated bool
	views     []Views
}

// New constructs a Controller. The session starts Clean with the initial
// root, or an empty object.
func New(opts ...Option) *Controller {
	cfg := applyOptions(opts)
	c := &Controller{
		cfg:       cfg,
		logger:    logging.OrNop(cfg.logger),
		emitter:   activity.NewEmitter(cfg.activityHooks, cfg.activityConfig),
		evaluator: cfg.evaluator,
		keys:      DefaultKeyMap(),
		sessionID: cfg.sessionID,
		views:     append([]Views(nil), cfg.views...),
	}
	if cfg.keyMap != nil {
		c.keys = *cfg.keyMap
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.clipboard = clipboard.NewBridge(cfg.clipboard, clipboard.WithLogger(c.logger))

	c.root = tree.Object()
	if cfg.initialRoot != nil {
		if err := tree.Validate(cfg.initialRoot); err != nil {
			c.warn("editor.init", "ignoring malformed initial document", "", err)
		} else {
			c.root = cfg.initialRoot.Clone()
		}
	}
	c.record(c.root)
	return c
}

// AttachViews appends views after construction, for views that read the
// document back through the controller.
func (c *Controller) AttachViews(views ...Views) {
	for _, view := range views {
		if view != nil {
			c.views = append(c.views, view)
		}
	}
}

// Root returns the live document. Editing widgets mutate it in place and
// report edits with MarkEdited.
func (c *Controller) Root() *tree.Node {
	return c.root
}

// Dirty reports whether the document has unsaved changes.
func (c *Controller) Dirty() bool {
	return c.dirty
}

// Activated reports whether OnFirstActivation has run.
func (c *Controller) Activated() bool {
	return c.activated
}

// SessionID identifies this controller in activity events.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// RequestReset replaces the document with root. A clean document is replaced
// immediately. A dirty one is only replaced once the Confirmer calls back,
// which also clears the dirty flag and deletes the autosave; declining
// leaves everything unchanged. It reports whether root was applied before
// returning.
func (c *Controller) RequestReset(ctx context.Context, root *tree.Node) bool {
	return c.requestReset(ctx, root, nil)
}

// requestReset runs applied after root replaces the document, whether that
// happens now or once the user confirms.
func (c *Controller) requestReset(ctx context.Context, root *tree.Node, applied func(context.Context)) bool {
	if err := tree.Validate(root); err != nil {
		c.warn("editor.reset", "refusing to reset to a malformed document", "", err)
		return false
	}
	candidate := root.Clone()

	if !c.dirty {
		c.apply(ctx, candidate, applied)
		return true
	}
	if c.cfg.confirmer == nil {
		c.warn("editor.reset", "unsaved changes present and no confirmer configured, reset refused", "", nil)
		return false
	}

	detached := context.WithoutCancel(ctx)
	var once sync.Once
	c.cfg.confirmer.Confirm(ResetTitle, ResetMessage, func() {
		once.Do(func() {
			c.dirty = false
			c.deleteAutosave(detached)
			c.apply(detached, candidate, applied)
		})
	})
	return false
}

func (c *Controller) apply(ctx context.Context, root *tree.Node, applied func(context.Context)) {
	c.root = root
	if c.cfg.widget != nil {
		c.cfg.widget.SetRoot(root)
	}
	c.record(root)
	c.refreshViews()
	c.emit(ctx, activity.VerbReset, activity.EditorEventInput{})
	if applied != nil {
		applied(ctx)
	}
}

// Undo steps the history back. On success the views are refreshed; the
// dirty flag is never touched. It reports whether a step happened.
func (c *Controller) Undo(ctx context.Context) bool {
	if c.cfg.history == nil || !c.cfg.history.StepBack() {
		return false
	}
	c.afterStep(ctx, activity.VerbUndo)
	return true
}

// Redo steps the history forward. See Undo.
func (c *Controller) Redo(ctx context.Context) bool {
	if c.cfg.history == nil || !c.cfg.history.StepForward() {
		return false
	}
	c.afterStep(ctx, activity.VerbRedo)
	return true
}

func (c *Controller) afterStep(ctx context.Context, verb string) {
	if rooted, ok := c.cfg.history.(RootHistory); ok {
		if root := rooted.Root(); root != nil {
			c.root = root
			if c.cfg.widget != nil {
				c.cfg.widget.SetRoot(root)
			}
		}
	}
	c.refreshViews()
	c.emit(ctx, verb, activity.EditorEventInput{})
}

// SaveToFile writes the document to path as pretty JSON, replacing the file
// atomically. Symlinks are followed and an existing file keeps its mode.
// Success marks the document Clean. Failures are logged, returned as
// *editorerr.PersistenceError and leave the flag unchanged.
func (c *Controller) SaveToFile(ctx context.Context, path string) error {
	data, err := tree.Marshal(c.root)
	if err != nil {
		err = editorerr.NewPersistenceError("save", path, err)
		c.warn("editor.save", "could not save asset", path, err)
		return err
	}
	if err := fsutil.ReplaceFile(path, data, SavePerm); err != nil {
		err = editorerr.NewPersistenceError("save", path, err)
		c.warn("editor.save", "could not save asset", path, err)
		return err
	}
	c.dirty = false
	c.logger.Log(logging.Event{
		Level:   logging.LevelInfo,
		Op:      "editor.save",
		Message: "asset saved",
		Path:    path,
	})
	c.emit(ctx, activity.VerbSaved, activity.EditorEventInput{Path: path, Bytes: len(data)})
	return nil
}

// OnFirstActivation recovers the autosave the first time the host has laid
// out its views. A recovered document always leaves the session Dirty.
// Later calls return immediately.
func (c *Controller) OnFirstActivation(ctx context.Context) {
	if c.activated {
		return
	}
	c.activated = true
	if c.cfg.autosave == nil {
		return
	}

	root, meta, ok, err := c.cfg.autosave.ReadSnapshot(ctx)
	if err != nil {
		c.warn("autosave.read", "could not load autosaved info", "", err)
		return
	}
	if !ok {
		return
	}
	c.RequestReset(ctx, root)
	c.dirty = true
	c.emit(ctx, activity.VerbAutosaveRecovered, activity.EditorEventInput{SnapshotID: meta.SnapshotID, Bytes: meta.Size})
}

// MarkEdited records an edit made through the editing widget: the document
// becomes Dirty and the autosave is rewritten.
func (c *Controller) MarkEdited(ctx context.Context) {
	c.dirty = true
	c.record(c.root)
	c.Autosave(ctx)
}

// Autosave writes the current document to the autosave without changing the
// dirty flag. Failures are logged by the persistence layer.
func (c *Controller) Autosave(ctx context.Context) bool {
	if c.cfg.autosave == nil {
		return false
	}
	meta, ok := c.cfg.autosave.WriteSnapshot(ctx, c.root)
	if ok {
		c.emit(ctx, activity.VerbAutosaveWritten, activity.EditorEventInput{SnapshotID: meta.SnapshotID, Bytes: meta.Size})
	}
	return ok
}

func (c *Controller) deleteAutosave(ctx context.Context) {
	if c.cfg.autosave == nil {
		return
	}
	if c.cfg.autosave.DeleteSnapshot(ctx) {
		c.emit(ctx, activity.VerbAutosaveDeleted, activity.EditorEventInput{})
	}
}

// CopyToClipboard writes the document to the clipboard as pretty JSON.
func (c *Controller) CopyToClipboard(ctx context.Context) bool {
	if !c.clipboard.Copy(c.root) {
		return false
	}
	c.emit(ctx, activity.VerbClipboardCopied, activity.EditorEventInput{})
	return true
}

// PasteFromClipboard parses the clipboard text and requests a reset to it.
// Invalid text is logged and leaves the document unchanged. It reports
// whether the pasted document was applied before returning. The paste is
// only recorded as activity once the document is applied.
func (c *Controller) PasteFromClipboard(ctx context.Context) bool {
	root, ok, err := c.clipboard.Paste()
	if err != nil || !ok {
		return false
	}
	return c.requestReset(ctx, root, func(ctx context.Context) {
		c.emit(ctx, activity.VerbClipboardPasted, activity.EditorEventInput{})
	})
}

// EditNode hands the node at path to the Editor.
func (c *Controller) EditNode(path tree.Path) error {
	node, err := c.nodeFor(path)
	if err != nil {
		return err
	}
	c.cfg.editor.ApplyEditedNode(node)
	return nil
}

// AddWidget asks the Editor to offer widgets to insert under the container
// at path.
func (c *Controller) AddWidget(path tree.Path) error {
	node, err := c.nodeFor(path)
	if err != nil {
		return err
	}
	if node.IsScalar() {
		return fmt.Errorf("treestate: cannot add a widget under %s node at %s", node.Kind, path)
	}
	c.cfg.editor.PresentWidgetPicker(node)
	return nil
}

// InlineEdit returns the one-line text of the node at path and the range an
// inline editor should select in it.
func (c *Controller) InlineEdit(path tree.Path) (string, tree.Selection, error) {
	node, err := c.root.At(path)
	if err != nil {
		return "", tree.Selection{}, err
	}
	return tree.InlineText(node), tree.InlineSelection(node), nil
}

func (c *Controller) nodeFor(path tree.Path) (*tree.Node, error) {
	if c.cfg.editor == nil {
		return nil, ErrNoEditor
	}
	return c.root.At(path)
}

func (c *Controller) refreshViews() {
	for _, view := range c.views {
		view.RefreshPreview()
		view.RefreshDerivedConfig()
	}
}

func (c *Controller) record(root *tree.Node) {
	if rec, ok := c.cfg.history.(recorder); ok {
		rec.Record(root)
	}
}

func (c *Controller) emit(ctx context.Context, verb string, input activity.EditorEventInput) {
	if !c.emitter.Enabled() {
		return
	}
	input.ActorID = c.cfg.actor.ActorID
	input.UserID = c.cfg.actor.UserID
	input.TenantID = c.cfg.actor.TenantID
	input.SessionID = c.sessionID
	input.Dirty = c.dirty
	if c.cfg.autosave != nil {
		if ref, err := c.cfg.autosave.Ref(); err == nil {
			input.Asset = ref.Asset
			if input.Path == "" {
				input.Path = ref.Path
			}
		}
	}
	if err := c.emitter.Emit(ctx, activity.BuildEditorEvent(verb, input)); err != nil {
		c.warn("activity.emit", "activity hook failed", "", err)
	}
}

func (c *Controller) warn(op, message, path string, err error) {
	c.logger.Log(logging.Event{
		Level:   logging.LevelWarn,
		Op:      op,
		Message: message,
		Path:    path,
		Err:     err,
	})
}
