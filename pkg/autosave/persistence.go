package autosave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-treestate/pkg/editorerr"
	"github.com/goliatone/go-treestate/pkg/logging"
	"github.com/goliatone/go-treestate/tree"
	"github.com/google/uuid"
)

// ErrPathProviderRequired indicates Persistence was built without a PathFunc.
var ErrPathProviderRequired = errors.New("autosave: path provider is required")

// Option configures a Persistence instance.
type Option func(*Persistence)

// WithStore replaces the default FileStore.
func WithStore(store Store) Option {
	return func(p *Persistence) {
		if store != nil {
			p.store = store
		}
	}
}

// WithLogger attaches a logger for swallowed failures.
func WithLogger(logger logging.Logger) Option {
	return func(p *Persistence) {
		p.logger = logging.OrNop(logger)
	}
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Persistence) {
		if now != nil {
			p.now = now
		}
	}
}

// WithAsset labels the snapshots with the edited asset name.
func WithAsset(asset string) Option {
	return func(p *Persistence) {
		p.asset = asset
	}
}

// Persistence reads and writes the autosave snapshot for one editing
// session. It is not safe for concurrent use.
type Persistence struct {
	store  Store
	path   PathFunc
	asset  string
	logger logging.Logger
	now    func() time.Time
}

// New constructs a Persistence bound to path. The default store is a
// FileStore.
func New(path PathFunc, opts ...Option) *Persistence {
	p := &Persistence{
		store:  NewFileStore(),
		path:   path,
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Ref resolves the current autosave reference through the PathFunc.
func (p *Persistence) Ref() (Ref, error) {
	if p.path == nil {
		return Ref{}, ErrPathProviderRequired
	}
	path, err := p.path()
	if err != nil {
		return Ref{}, fmt.Errorf("autosave: resolve path: %w", err)
	}
	ref := Ref{Asset: p.asset, Path: path}
	if _, err := ref.Identifier(); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

// WriteSnapshot serializes root and overwrites the autosave. Failures are
// logged at warn level and reported only through ok.
func (p *Persistence) WriteSnapshot(ctx context.Context, root *tree.Node) (Meta, bool) {
	start := p.now()
	ref, err := p.Ref()
	if err != nil {
		p.warn("autosave.write", "could not resolve autosave file", "", err)
		return Meta{}, false
	}
	data, err := tree.Marshal(root)
	if err != nil {
		p.warn("autosave.write", "could not serialize editor state", ref.Path, err)
		return Meta{}, false
	}
	meta, err := p.store.Save(ctx, ref, data, Meta{
		SnapshotID: uuid.NewString(),
		UpdatedAt:  start,
	})
	if err != nil {
		p.warn("autosave.write", "could not save to autosave file", ref.Path,
			editorerr.NewPersistenceError("write", ref.Path, err))
		return Meta{}, false
	}
	p.logger.Log(logging.Event{
		Level:    logging.LevelDebug,
		Op:       "autosave.write",
		Message:  "autosave updated",
		Path:     ref.Path,
		Duration: p.now().Sub(start),
	})
	return meta, true
}

// ReadSnapshot loads the autosave. A missing file yields ok=false and no
// error. Other I/O failures return a *editorerr.PersistenceError and bad
// content returns a *editorerr.ParseError. Content is parsed leniently.
func (p *Persistence) ReadSnapshot(ctx context.Context) (*tree.Node, Meta, bool, error) {
	ref, err := p.Ref()
	if err != nil {
		return nil, Meta{}, false, editorerr.NewPersistenceError("resolve", "", err)
	}
	data, meta, ok, err := p.store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, false, editorerr.NewPersistenceError("read", ref.Path, err)
	}
	if !ok {
		return nil, Meta{}, false, nil
	}
	root, err := tree.ParseLenient(data)
	if err != nil {
		return nil, Meta{}, false, editorerr.NewParseError("autosave "+ref.Path, err)
	}
	return root, meta, true, nil
}

// DeleteSnapshot removes the autosave. A missing file is not a failure;
// other failures are logged at warn level and reported only through the
// returned bool.
func (p *Persistence) DeleteSnapshot(ctx context.Context) bool {
	ref, err := p.Ref()
	if err != nil {
		p.warn("autosave.delete", "could not resolve autosave file", "", err)
		return false
	}
	if err := p.store.Delete(ctx, ref); err != nil {
		p.warn("autosave.delete", "could not delete autosave file", ref.Path,
			editorerr.NewPersistenceError("delete", ref.Path, err))
		return false
	}
	return true
}

func (p *Persistence) warn(op, message, path string, err error) {
	p.logger.Log(logging.Event{
		Level:   logging.LevelWarn,
		Op:      op,
		Message: message,
		Path:    path,
		Err:     err,
	})
}
