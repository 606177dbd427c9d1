package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomicOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := WriteFileAtomic(path, []byte("new"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "new" {
		t.Fatalf("expected new content, got %q", raw)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "doc.json")
	if err := WriteFileAtomic(path, []byte("x"), 0o600); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestReplaceFileFollowsSymlinkAndKeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "real.json")
	link := filepath.Join(dir, "link.json")
	if err := os.WriteFile(target, []byte("old"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := os.Symlink("real.json", link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := ReplaceFile(link, []byte("new"), 0o644); err != nil {
		t.Fatalf("replace: %v", err)
	}
	info, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("lstat: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("expected link to survive, got mode %v", info.Mode())
	}
	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(raw) != "new" {
		t.Fatalf("expected target rewritten, got %q", raw)
	}
	targetInfo, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if targetInfo.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600 kept, got %v", targetInfo.Mode().Perm())
	}
}

func TestReplaceFileDanglingLinkAndNewFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink("later.json", link); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := ReplaceFile(link, []byte("x"), 0o640); err != nil {
		t.Fatalf("replace dangling: %v", err)
	}
	if info, err := os.Lstat(link); err != nil || info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("expected link to survive, err=%v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "later.json"))
	if err != nil {
		t.Fatalf("expected link target created: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("expected new file mode 0640, got %v", info.Mode().Perm())
	}
}
