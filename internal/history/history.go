// Package history keeps a linear undo/redo list of document snapshots.
package history

import (
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// History is an array of snapshots plus a cursor. Snapshots are never
// mutated after they are stored; Current hands out copies.
type History struct {
	snapshots []labelformat.Document
	revisions []int
	index     int
	limit     int
	next      int
}

// New creates a history whose first snapshot is doc. A limit above zero
// caps the number of stored snapshots, dropping the oldest first.
func New(doc labelformat.Document, limit int) *History {
	return &History{
		snapshots: []labelformat.Document{doc.Clone()},
		revisions: []int{0},
		limit:     limit,
		next:      1,
	}
}

// Current returns a copy of the snapshot at the cursor
func (h *History) Current() labelformat.Document {
	return h.snapshots[h.index].Clone()
}

// Commit appends doc after the cursor, discarding any redo branch
func (h *History) Commit(doc labelformat.Document) {
	h.snapshots = append(h.snapshots[:h.index+1], doc.Clone())
	h.revisions = append(h.revisions[:h.index+1], h.next)
	h.next++
	h.index++

	if h.limit > 0 && len(h.snapshots) > h.limit {
		drop := len(h.snapshots) - h.limit
		h.snapshots = append([]labelformat.Document(nil), h.snapshots[drop:]...)
		h.revisions = append([]int(nil), h.revisions[drop:]...)
		h.index -= drop
	}
}

// CommitFunc commits the result of applying fn to a copy of the current snapshot
func (h *History) CommitFunc(fn func(labelformat.Document) labelformat.Document) {
	h.Commit(fn(h.Current()))
}

// Undo moves the cursor back one snapshot
func (h *History) Undo() bool {
	if !h.CanUndo() {
		return false
	}
	h.index--
	return true
}

// Redo moves the cursor forward one snapshot
func (h *History) Redo() bool {
	if !h.CanRedo() {
		return false
	}
	h.index++
	return true
}

// CanUndo reports whether an earlier snapshot exists
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether a later snapshot exists
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

// Rollback drops the snapshot at the cursor when it is the newest one.
// Unlike Undo it leaves nothing to redo.
func (h *History) Rollback() bool {
	if h.index == 0 || h.CanRedo() {
		return false
	}
	h.snapshots = h.snapshots[:h.index]
	h.revisions = h.revisions[:h.index]
	h.index--
	return true
}

// Reset replaces the whole history with a single snapshot
func (h *History) Reset(doc labelformat.Document) {
	h.snapshots = []labelformat.Document{doc.Clone()}
	h.revisions = []int{h.next}
	h.next++
	h.index = 0
}

// Revision identifies the snapshot at the cursor. Every committed
// snapshot gets a fresh revision, so equal revisions mean equal documents.
func (h *History) Revision() int { return h.revisions[h.index] }

// Index returns the cursor position
func (h *History) Index() int { return h.index }

// Len returns the number of stored snapshots
func (h *History) Len() int { return len(h.snapshots) }
