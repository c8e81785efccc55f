package jobstore

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Store is implemented by objects that keep track of submitted jobs.
type Store interface {
	// Upsert a record. On conflict of the job hash, the status, leaf hash,
	// files and update time are overwritten.
	Upsert(rec *Record) error

	// Find the record of a job.
	Find(jobHash common.Hash) (*Record, error)

	// Search the store by a particular query and return a result iterator.
	Search(query Query) (RecordIterator, error)
}

// Status is the lifecycle state of a job.
type Status uint8

const (
	// StatusSubmitted means the node accepted the job.
	StatusSubmitted Status = iota

	// StatusCompleted means a leaf was found and its files were downloaded.
	StatusCompleted

	// StatusPending means polling gave up before a leaf appeared.
	StatusPending

	// StatusFailed means the job lifecycle was aborted by an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusCompleted:
		return "completed"
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Record describes one job submitted to the network.
type Record struct {
	JobHash common.Hash
	RunID   uuid.UUID
	Task    string
	Chunk   string
	Status  Status

	// The leaf the job completed under. Zero until the job completes.
	LeafHash common.Hash

	// Local paths of the downloaded result files.
	Files []string

	UpdatedAt time.Time
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	rCopy := new(Record)
	*rCopy = *r
	rCopy.Files = append([]string(nil), r.Files...)
	return rCopy
}

// QueryType describes the types of queries supported by the Store implementation.
type QueryType uint8

const (
	// QueryTypeTask requests all records pertaining to a specified task.
	QueryTypeTask QueryType = iota
)

// Query encapsulates a set of parameters to use when searching the store.
type Query struct {
	// The way that the Store should interpret the search expression.
	Type QueryType

	// The search expression.
	Expression string

	// The number of search results to skip.
	Offset uint64
}

// RecordIterator is implemented by objects that can paginate search results.
type RecordIterator interface {
	// Close the iterator and release any allocated resources.
	Close() error

	// Next loads the next Record matching the search query.
	// It returns false if no more records are available.
	Next() bool

	// Error returns the last error encountered by the iterator.
	Error() error

	// Record returns the current record from the result set.
	Record() *Record

	// TotalCount returns the approximate number of search results.
	TotalCount() uint64
}
