// Package autosave persists the in-progress editor document to a single
// recovery file so unsaved work survives a crash or an abandoned session.
//
// Responsibilities:
//   - Store only loads/saves/deletes the raw bytes for one Ref. Absence is
//     reported through the ok result, never as an error.
//   - Persistence binds a Store to the host supplied PathFunc, runs the tree
//     codec in both directions and applies the failure policy: write and
//     delete failures are logged and swallowed, read failures are returned
//     for the caller to log and treat as "no autosave".
//
// Data flow:
//
//	*tree.Node -> tree.Marshal -> Store.Save -> file
//	file -> Store.Load -> tree.ParseLenient -> *tree.Node
//
// The file holds plain pretty-printed JSON with no framing. FileStore
// derives Meta from the file itself: the snapshot ID from its content, the
// timestamp from its modification time.
package autosave
