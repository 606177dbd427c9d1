package autosave_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-treestate/pkg/autosave"
	"github.com/goliatone/go-treestate/pkg/editorerr"
	"github.com/goliatone/go-treestate/pkg/logging"
	"github.com/goliatone/go-treestate/tree"
)

func TestReadSnapshotAbsentIsSilent(t *testing.T) {
	rec := &logging.Recorder{}
	path := filepath.Join(t.TempDir(), "screen.autosave.json")
	p := autosave.New(autosave.StaticPath(path), autosave.WithLogger(rec))

	root, _, ok, err := p.ReadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok || root != nil {
		t.Fatalf("expected absent snapshot, got ok=%t root=%v", ok, root)
	}
	if events := rec.AtLeast(logging.LevelError); len(events) != 0 {
		t.Fatalf("expected no error-level log entries, got %+v", events)
	}
}

func TestWriteThenReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.autosave.json")
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	p := autosave.New(autosave.StaticPath(path), autosave.WithClock(func() time.Time { return fixed }))

	root := tree.Object(tree.Member("a", tree.Scalar(1)), tree.Member("b", tree.Scalar("x")))
	meta, ok := p.WriteSnapshot(context.Background(), root)
	if !ok {
		t.Fatalf("expected write to succeed")
	}
	if meta.SnapshotID == "" {
		t.Fatalf("expected snapshot id")
	}
	if !meta.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected clock timestamp, got %v", meta.UpdatedAt)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(raw) != "{\n  \"a\": 1,\n  \"b\": \"x\"\n}" {
		t.Fatalf("unexpected file content %q", raw)
	}

	loaded, loadedMeta, ok, err := p.ReadSnapshot(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected snapshot, ok=%t err=%v", ok, err)
	}
	if !tree.Equal(root, loaded) {
		t.Fatalf("loaded snapshot differs from written tree")
	}
	if loadedMeta.Size != len(raw) {
		t.Fatalf("expected size %d, got %d", len(raw), loadedMeta.Size)
	}
	if loadedMeta.SnapshotID != meta.SnapshotID {
		t.Fatalf("expected snapshot id %q read back, got %q", meta.SnapshotID, loadedMeta.SnapshotID)
	}
}

func TestFileStoreSnapshotIDsFollowContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.autosave.json")
	p := autosave.New(autosave.StaticPath(path))
	ctx := context.Background()

	first, _ := p.WriteSnapshot(ctx, tree.Scalar("first"))
	again, _ := p.WriteSnapshot(ctx, tree.Scalar("first"))
	second, _ := p.WriteSnapshot(ctx, tree.Scalar("second"))
	if first.SnapshotID == "" || first.SnapshotID != again.SnapshotID {
		t.Fatalf("expected identical content to share an id, got %q and %q", first.SnapshotID, again.SnapshotID)
	}
	if second.SnapshotID == first.SnapshotID {
		t.Fatalf("expected new content to get a new id")
	}

	// A file written outside the store still gets an id on load.
	if err := os.WriteFile(path, []byte(`{"legacy":true}`), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, meta, ok, err := p.ReadSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("expected snapshot, ok=%t err=%v", ok, err)
	}
	if meta.SnapshotID != autosave.ContentSnapshotID([]byte(`{"legacy":true}`)) {
		t.Fatalf("unexpected snapshot id %q", meta.SnapshotID)
	}
}

func TestWriteSnapshotOverwrites(t *testing.T) {
	store := autosave.NewMemoryStore()
	p := autosave.New(autosave.StaticPath("/virtual/a.json"), autosave.WithStore(store))

	p.WriteSnapshot(context.Background(), tree.Scalar("first"))
	p.WriteSnapshot(context.Background(), tree.Scalar("second"))

	if store.Len() != 1 {
		t.Fatalf("expected single snapshot, got %d", store.Len())
	}
	root, _, ok, err := p.ReadSnapshot(context.Background())
	if err != nil || !ok {
		t.Fatalf("read: ok=%t err=%v", ok, err)
	}
	if root.Value != "second" {
		t.Fatalf("expected latest snapshot, got %v", root.Value)
	}
}

func TestReadSnapshotIsLenient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	if err := os.WriteFile(path, []byte("{\"a\": 1, /* partial */ \"b\": [true,],}"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	p := autosave.New(autosave.StaticPath(path))

	root, _, ok, err := p.ReadSnapshot(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected lenient read, ok=%t err=%v", ok, err)
	}
	if child, found := root.Child("b"); !found || child.Len() != 1 {
		t.Fatalf("unexpected lenient tree")
	}
}

func TestReadSnapshotGarbageIsParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	p := autosave.New(autosave.StaticPath(path))

	_, _, ok, err := p.ReadSnapshot(context.Background())
	var parseErr *editorerr.ParseError
	if ok || !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, ok=%t err=%v", ok, err)
	}
}

func TestReadSnapshotIOFailureIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	p := autosave.New(autosave.StaticPath(dir))

	_, _, ok, err := p.ReadSnapshot(context.Background())
	var persistErr *editorerr.PersistenceError
	if ok || !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError reading a directory, ok=%t err=%v", ok, err)
	}
	if persistErr.Op != "read" || persistErr.Path != dir {
		t.Fatalf("unexpected error metadata: %+v", persistErr)
	}
}

func TestWriteSnapshotFailureIsLoggedAndSwallowed(t *testing.T) {
	rec := &logging.Recorder{}
	path := filepath.Join(t.TempDir(), "missing", "a.json")
	p := autosave.New(autosave.StaticPath(path), autosave.WithLogger(rec))

	if _, ok := p.WriteSnapshot(context.Background(), tree.Object()); ok {
		t.Fatalf("expected write to fail")
	}
	warns := rec.AtLeast(logging.LevelWarn)
	if len(warns) != 1 || warns[0].Op != "autosave.write" {
		t.Fatalf("expected one warn entry, got %+v", warns)
	}
	var persistErr *editorerr.PersistenceError
	if !errors.As(warns[0].Err, &persistErr) {
		t.Fatalf("expected logged PersistenceError, got %v", warns[0].Err)
	}
}

func TestWriteSnapshotCreatesDirectoriesWhenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "a.json")
	store := &autosave.FileStore{CreateDirs: true}
	p := autosave.New(autosave.StaticPath(path), autosave.WithStore(store))

	if _, ok := p.WriteSnapshot(context.Background(), tree.Array()); !ok {
		t.Fatalf("expected write with CreateDirs to succeed")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file: %v", err)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	rec := &logging.Recorder{}
	path := filepath.Join(t.TempDir(), "a.json")
	p := autosave.New(autosave.StaticPath(path), autosave.WithLogger(rec))

	if !p.DeleteSnapshot(context.Background()) {
		t.Fatalf("deleting a missing autosave must succeed")
	}
	p.WriteSnapshot(context.Background(), tree.Object())
	if !p.DeleteSnapshot(context.Background()) {
		t.Fatalf("expected delete to succeed")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	if len(rec.AtLeast(logging.LevelWarn)) != 0 {
		t.Fatalf("expected no warnings, got %+v", rec.Events())
	}
}

func TestDeleteSnapshotFailureIsLogged(t *testing.T) {
	rec := &logging.Recorder{}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep"), []byte("x"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	p := autosave.New(autosave.StaticPath(dir), autosave.WithLogger(rec))

	if p.DeleteSnapshot(context.Background()) {
		t.Fatalf("expected delete of non-empty directory to fail")
	}
	warns := rec.AtLeast(logging.LevelWarn)
	if len(warns) != 1 || warns[0].Op != "autosave.delete" {
		t.Fatalf("expected one delete warning, got %+v", warns)
	}
}

func TestPathProviderErrors(t *testing.T) {
	rec := &logging.Recorder{}
	p := autosave.New(func() (string, error) { return "", errors.New("no asset selected") }, autosave.WithLogger(rec))

	if _, ok := p.WriteSnapshot(context.Background(), tree.Object()); ok {
		t.Fatalf("expected write to fail without a path")
	}
	if _, _, _, err := p.ReadSnapshot(context.Background()); err == nil {
		t.Fatalf("expected read to fail without a path")
	}

	nilProvider := autosave.New(nil)
	if _, err := nilProvider.Ref(); !errors.Is(err, autosave.ErrPathProviderRequired) {
		t.Fatalf("expected ErrPathProviderRequired, got %v", err)
	}
	empty := autosave.New(autosave.StaticPath("  "))
	if _, err := empty.Ref(); !errors.Is(err, autosave.ErrPathRequired) {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}
