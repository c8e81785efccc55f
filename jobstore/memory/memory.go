package memory

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
)

// Compile-time check for ensuring InMemoryJobStore implements Store.
var _ jobstore.Store = (*InMemoryJobStore)(nil)

// InMemoryJobStore implements an in-memory job store that can be concurrently
// accessed by multiple clients.
type InMemoryJobStore struct {
	mu sync.RWMutex

	// [<job hash>] --> Record
	records map[common.Hash]*jobstore.Record

	// Job hashes in insertion order.
	order []common.Hash
}

// NewInMemoryJobStore returns an in-memory implementation of the job store.
func NewInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		records: make(map[common.Hash]*jobstore.Record),
	}
}

// Upsert a record.
func (s *InMemoryJobStore) Upsert(rec *jobstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rCopy := rec.Clone()
	if rCopy.UpdatedAt.IsZero() {
		rCopy.UpdatedAt = time.Now()
	}

	existing, exists := s.records[rCopy.JobHash]
	if !exists {
		s.records[rCopy.JobHash] = rCopy
		s.order = append(s.order, rCopy.JobHash)
		return nil
	}

	existing.Status = rCopy.Status
	existing.LeafHash = rCopy.LeafHash
	existing.Files = rCopy.Files
	existing.UpdatedAt = rCopy.UpdatedAt
	return nil
}

// Find the record of a job.
func (s *InMemoryJobStore) Find(jobHash common.Hash) (*jobstore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[jobHash]
	if !exists {
		return nil, xerrors.Errorf("find: %w", jobstore.ErrNotFound)
	}
	return rec.Clone(), nil
}

// Search the store by a particular query and return a result iterator.
func (s *InMemoryJobStore) Search(query jobstore.Query) (jobstore.RecordIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*jobstore.Record
	switch query.Type {
	case jobstore.QueryTypeTask:
		for _, hash := range s.order {
			if rec := s.records[hash]; rec.Task == query.Expression {
				list = append(list, rec)
			}
		}
	default:
		return nil, xerrors.Errorf("search: %w, %d", jobstore.ErrUnknownQueryType, query.Type)
	}

	total := uint64(len(list))
	if query.Offset >= total {
		list = nil
	} else {
		list = list[query.Offset:]
	}
	return &recordIterator{s: s, records: list, total: total}, nil
}
