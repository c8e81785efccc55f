package memory

import (
	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
)

// recordIterator is a jobstore.RecordIterator implementation for the in-memory job store.
type recordIterator struct {
	s *InMemoryJobStore

	records  []*jobstore.Record
	total    uint64
	curIndex int
}

func (i *recordIterator) Next() bool {
	if i.curIndex >= len(i.records) {
		return false
	}
	i.curIndex++
	return true
}

func (i *recordIterator) Error() error {
	return nil
}

func (i *recordIterator) Close() error {
	return nil
}

func (i *recordIterator) TotalCount() uint64 {
	return i.total
}

func (i *recordIterator) Record() *jobstore.Record {
	// The record pointer contents may be overwritten by an upsert; to
	// avoid data-races, acquire the read lock and clone the record.
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	return i.records[i.curIndex-1].Clone()
}
