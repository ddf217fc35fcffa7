package indexing

import (
	"git.home.luguber.info/inful/chronicle/internal/record"
	"git.home.luguber.info/inful/chronicle/internal/timestamp"
)

// ByAllTags indexes records under every tag they carry, growing a bucket the
// first time a tag is observed.
type ByAllTags struct {
	idsByTag map[string][]record.ID
}

// NewByAllTags returns an empty all-tags index.
func NewByAllTags() *ByAllTags {
	return &ByAllTags{idsByTag: make(map[string][]record.ID)}
}

func (ix *ByAllTags) Insert(id record.ID, rec record.Recordable) {
	for _, tag := range rec.Tags() {
		ix.idsByTag[tag] = insertSorted(ix.idsByTag[tag], id)
	}
}

func (ix *ByAllTags) Update(id record.ID, old, updated record.Recordable) {
	if tagsEqual(old.Tags(), updated.Tags()) {
		return
	}
	ix.Remove(id, old)
	ix.Insert(id, updated)
}

func (ix *ByAllTags) Remove(id record.ID, rec record.Recordable) {
	for _, tag := range rec.Tags() {
		bucket, ok := ix.idsByTag[tag]
		if !ok {
			panic("indexing: removing a record that was never indexed")
		}
		bucket = removeSorted(bucket, id)
		if len(bucket) == 0 {
			delete(ix.idsByTag, tag)
		} else {
			ix.idsByTag[tag] = bucket
		}
	}
}

func (ix *ByAllTags) Reset() { ix.idsByTag = make(map[string][]record.ID) }

// TimeRange is not served by a tag index.
func (ix *ByAllTags) TimeRange(_, _ timestamp.Timestamp) ([]record.ID, bool) { return nil, false }

// Tagged is authoritative for every tag: a tag with no bucket has no records.
func (ix *ByAllTags) Tagged(tag string) ([]record.ID, bool) {
	return ix.idsByTag[tag], true
}

// BySelectedTags indexes records only under a configured set of tags.
// Lookups for unconfigured tags report ok=false so the engine falls back to
// a scan. A BySelectedTags with no tags is useless, so there is no empty
// constructor.
type BySelectedTags struct {
	idsByTag map[string][]record.ID
}

// NewBySelectedTags returns an index covering exactly the given tags.
func NewBySelectedTags(tags []string) *BySelectedTags {
	idsByTag := make(map[string][]record.ID, len(tags))
	for _, tag := range tags {
		idsByTag[tag] = nil
	}
	return &BySelectedTags{idsByTag: idsByTag}
}

func (ix *BySelectedTags) Insert(id record.ID, rec record.Recordable) {
	for _, tag := range rec.Tags() {
		if bucket, ok := ix.idsByTag[tag]; ok {
			ix.idsByTag[tag] = insertSorted(bucket, id)
		}
	}
}

func (ix *BySelectedTags) Update(id record.ID, old, updated record.Recordable) {
	if tagsEqual(old.Tags(), updated.Tags()) {
		return
	}
	ix.Remove(id, old)
	ix.Insert(id, updated)
}

func (ix *BySelectedTags) Remove(id record.ID, rec record.Recordable) {
	for _, tag := range rec.Tags() {
		if bucket, ok := ix.idsByTag[tag]; ok {
			ix.idsByTag[tag] = removeSorted(bucket, id)
		}
	}
}

func (ix *BySelectedTags) Reset() {
	for tag := range ix.idsByTag {
		ix.idsByTag[tag] = nil
	}
}

// TimeRange is not served by a tag index.
func (ix *BySelectedTags) TimeRange(_, _ timestamp.Timestamp) ([]record.ID, bool) {
	return nil, false
}

func (ix *BySelectedTags) Tagged(tag string) ([]record.ID, bool) {
	bucket, ok := ix.idsByTag[tag]
	if !ok {
		return nil, false
	}
	return bucket, true
}

func tagsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
