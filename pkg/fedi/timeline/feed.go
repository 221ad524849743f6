// Copyright 2024-2026 Aiku AI

// Package timeline maintains the ordered per-subscription feed: merge and
// dedup operations applied by REST page loads and streaming events.
package timeline

import (
	"slices"
	"sync"

	"github.com/aiku/fedikit/pkg/fedi"
)

// MergeOrPrepend replaces the entry with the same id in place, or prepends
// the status when the id is new. Streaming inserts use it: newest first.
func MergeOrPrepend(seq []*fedi.Status, st *fedi.Status) []*fedi.Status {
	if st == nil {
		return seq
	}
	for i, existing := range seq {
		if existing.ID == st.ID {
			seq[i] = st
			return seq
		}
	}
	return append([]*fedi.Status{st}, seq...)
}

// Replace swaps the entry whose id matches. When the id matches an
// entry's embedded boosted post instead, only the embedded copy is
// swapped, keeping the outer wrapper. Absent ids are a no-op. Applying
// the same status twice is the same as applying it once.
func Replace(seq []*fedi.Status, st *fedi.Status) []*fedi.Status {
	if st == nil {
		return seq
	}
	for i, existing := range seq {
		if existing.ID == st.ID {
			seq[i] = st
			continue
		}
		if existing.Reblog != nil && existing.Reblog.ID == st.ID {
			outer := *existing
			outer.Reblog = st
			seq[i] = &outer
		}
	}
	return seq
}

// AppendDeduped appends the entries of page whose ids are not already in
// seq. Pagination uses it, so relative order within both inputs survives.
func AppendDeduped(seq, page []*fedi.Status) []*fedi.Status {
	seen := make(map[string]struct{}, len(seq))
	for _, st := range seq {
		seen[st.ID] = struct{}{}
	}
	for _, st := range page {
		if st == nil {
			continue
		}
		if _, dup := seen[st.ID]; dup {
			continue
		}
		seen[st.ID] = struct{}{}
		seq = append(seq, st)
	}
	return seq
}

// RemoveByID drops the entry with the given id, if present.
func RemoveByID(seq []*fedi.Status, id string) []*fedi.Status {
	return slices.DeleteFunc(seq, func(st *fedi.Status) bool {
		return st.ID == id
	})
}

// Feed is one subscription's ordered sequence. All mutations go through
// the feed's lock: the merge operations are read-modify-write over the
// same slice and must run one at a time per feed. Feeds are never shared
// between subscriptions.
type Feed struct {
	mu  sync.Mutex
	seq []*fedi.Status
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Apply folds one streaming event into the feed.
func (f *Feed) Apply(evt fedi.StreamingEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch evt.Kind {
	case fedi.EventUpdate:
		f.seq = MergeOrPrepend(f.seq, evt.Status)
	case fedi.EventDelete:
		f.seq = RemoveByID(f.seq, evt.DeleteID)
	case fedi.EventNotify:
		if evt.Status != nil {
			f.seq = MergeOrPrepend(f.seq, evt.Status)
		}
	}
}

// Prepend merges one status at the top (streaming insert semantics).
func (f *Feed) Prepend(st *fedi.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq = MergeOrPrepend(f.seq, st)
}

// Update replaces a status in place, including inside boost wrappers.
func (f *Feed) Update(st *fedi.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq = Replace(f.seq, st)
}

// AppendPage appends a REST page, dropping ids already present.
func (f *Feed) AppendPage(page []*fedi.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq = AppendDeduped(f.seq, page)
}

// Remove drops the status with the given id.
func (f *Feed) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq = RemoveByID(f.seq, id)
}

// Snapshot returns a copy of the current sequence for rendering.
func (f *Feed) Snapshot() []*fedi.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.seq)
}

// Len reports the current feed length.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seq)
}
