package autosave

import (
	"context"
	"testing"
)

func TestMemoryStoreCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ref := Ref{Asset: "screen", Path: "/tmp/../tmp/screen.json"}
	data := []byte(`{"a":1}`)

	meta, err := store.Save(context.Background(), ref, data, Meta{SnapshotID: "snap-1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.Size != len(data) || meta.SnapshotID != "snap-1" {
		t.Fatalf("unexpected meta %+v", meta)
	}
	data[0] = 'X'

	loaded, loadedMeta, ok, err := store.Load(context.Background(), Ref{Path: "/tmp/screen.json"})
	if err != nil || !ok {
		t.Fatalf("load: ok=%t err=%v", ok, err)
	}
	if string(loaded) != `{"a":1}` {
		t.Fatalf("expected stored copy, got %q", loaded)
	}
	if loadedMeta.SnapshotID != "snap-1" {
		t.Fatalf("expected snapshot id, got %q", loadedMeta.SnapshotID)
	}

	if err := store.Delete(context.Background(), ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok, _ := store.Load(context.Background(), ref); ok {
		t.Fatalf("expected snapshot removed")
	}
	if _, err := store.Save(context.Background(), Ref{}, nil, Meta{}); err != ErrPathRequired {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}
