package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the editor controller.
const (
	VerbReset             = "editor.reset"
	VerbUndo              = "editor.undo"
	VerbRedo              = "editor.redo"
	VerbSaved             = "editor.saved"
	VerbAutosaveWritten   = "editor.autosave.written"
	VerbAutosaveRecovered = "editor.autosave.recovered"
	VerbAutosaveDeleted   = "editor.autosave.deleted"
	VerbClipboardCopied   = "editor.clipboard.copied"
	VerbClipboardPasted   = "editor.clipboard.pasted"
)

// ObjectTypeDocument is the object type of every editor event.
const ObjectTypeDocument = "editor.document"

// EditorEventInput describes the common fields of editor lifecycle events.
type EditorEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	SessionID  string
	Asset      string
	Path       string
	SnapshotID string
	Bytes      int
	Dirty      bool
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildEditorEvent constructs an event for verb. The object ID is the
// session ID, falling back to the asset name and then the object type.
func BuildEditorEvent(verb string, input EditorEventInput) Event {
	metadata := cloneMap(input.Metadata)
	metadata = ensureMetadata(metadata)
	metadata["dirty"] = input.Dirty
	if input.Asset != "" {
		metadata["asset"] = input.Asset
	}
	if input.Path != "" {
		metadata["path"] = input.Path
	}
	if input.SnapshotID != "" {
		metadata["snapshot_id"] = input.SnapshotID
	}
	if input.Bytes > 0 {
		metadata["bytes"] = input.Bytes
	}

	objectID := strings.TrimSpace(input.SessionID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Asset)
	}
	if objectID == "" {
		objectID = ObjectTypeDocument
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeDocument,
		ObjectID:   objectID,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
