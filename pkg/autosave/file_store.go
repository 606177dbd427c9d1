package autosave

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-treestate/internal/fsutil"
	"github.com/google/uuid"
)

var snapshotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("go-treestate/autosave"))

// ContentSnapshotID derives a stable snapshot ID from the snapshot bytes.
func ContentSnapshotID(data []byte) string {
	return uuid.NewSHA1(snapshotNamespace, data).String()
}

// FileStore keeps each snapshot in the file named by Ref.Path. The file
// carries no metadata, so snapshot IDs are derived from its content and the
// ID returned by Save is the one Load reports later.
type FileStore struct {
	// Perm is applied to written files. Zero means 0o600.
	Perm os.FileMode
	// CreateDirs creates missing parent directories before writing.
	CreateDirs bool
}

// NewFileStore returns a FileStore with private file permissions.
func NewFileStore() *FileStore {
	return &FileStore{Perm: 0o600}
}

func (s *FileStore) Load(_ context.Context, ref Ref) ([]byte, Meta, bool, error) {
	path, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Meta{}, false, nil
		}
		return nil, Meta{}, false, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, Meta{}, false, err
	}
	meta := Meta{SnapshotID: ContentSnapshotID(data), Size: len(data)}
	if info, err := file.Stat(); err == nil {
		meta.UpdatedAt = info.ModTime()
	}
	return data, meta, true, nil
}

func (s *FileStore) Save(_ context.Context, ref Ref, data []byte, meta Meta) (Meta, error) {
	path, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	if s.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Meta{}, err
		}
	}
	if err := fsutil.WriteFileAtomic(path, data, s.perm()); err != nil {
		return Meta{}, err
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now()
	}
	meta.SnapshotID = ContentSnapshotID(data)
	meta.Size = len(data)
	return meta, nil
}

func (s *FileStore) Delete(_ context.Context, ref Ref) error {
	path, err := ref.Identifier()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) perm() os.FileMode {
	if s == nil || s.Perm == 0 {
		return 0o600
	}
	return s.Perm
}
