package test

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	gc "gopkg.in/check.v1"

	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
)

// SuiteBase defines a re-usable set of job store related tests that can be
// executed against any type that implements jobstore.Store.
type SuiteBase struct {
	s jobstore.Store
}

// SetJobStore configures the test-suite to run all tests against s.
func (s *SuiteBase) SetJobStore(store jobstore.Store) {
	s.s = store
}

func (s *SuiteBase) TestUpsertAndFind(c *gc.C) {
	original := newRecord(1, "lr", "0")

	err := s.s.Upsert(original)
	c.Assert(err, gc.IsNil)

	got, err := s.s.Find(original.JobHash)
	c.Assert(err, gc.IsNil)
	assertRecordsEqual(c, got, original)

	// Mutating the returned record must not affect the stored one.
	got.Files = append(got.Files, "tampered")
	got, err = s.s.Find(original.JobHash)
	c.Assert(err, gc.IsNil)
	assertRecordsEqual(c, got, original)
}

func (s *SuiteBase) TestUpsertUpdatesExisting(c *gc.C) {
	original := newRecord(2, "lr", "1")
	c.Assert(s.s.Upsert(original), gc.IsNil)

	updated := original.Clone()
	updated.Task = "ignored"
	updated.Status = jobstore.StatusCompleted
	updated.LeafHash = common.HexToHash("1eaf")
	updated.Files = []string{"/tmp/proof/lr_proof.bin", "/tmp/proof/debug.log"}
	updated.UpdatedAt = original.UpdatedAt.Add(time.Minute)
	c.Assert(s.s.Upsert(updated), gc.IsNil)

	got, err := s.s.Find(original.JobHash)
	c.Assert(err, gc.IsNil)
	c.Assert(got.Task, gc.Equals, "lr", gc.Commentf("task should not change on update"))
	c.Assert(got.Status, gc.Equals, jobstore.StatusCompleted)
	c.Assert(got.LeafHash, gc.Equals, updated.LeafHash)
	c.Assert(got.Files, gc.DeepEquals, updated.Files)
	c.Assert(got.UpdatedAt.Equal(updated.UpdatedAt), gc.Equals, true)
}

func (s *SuiteBase) TestFindUnknownJob(c *gc.C) {
	_, err := s.s.Find(common.HexToHash("404"))
	c.Assert(err, gc.ErrorMatches, ".*not found.*")
}

func (s *SuiteBase) TestSearchByTask(c *gc.C) {
	var lrRecords []*jobstore.Record
	for i := 0; i < 4; i++ {
		rec := newRecord(10+i, "lr", string(rune('0'+i)))
		c.Assert(s.s.Upsert(rec), gc.IsNil)
		lrRecords = append(lrRecords, rec)
	}
	c.Assert(s.s.Upsert(newRecord(20, "fib", "0")), gc.IsNil)

	it, err := s.s.Search(jobstore.Query{Type: jobstore.QueryTypeTask, Expression: "lr", Offset: 1})
	c.Assert(err, gc.IsNil)
	c.Assert(it.TotalCount(), gc.Equals, uint64(4), gc.Commentf("total count should equal 4"))

	var got []*jobstore.Record
	for it.Next() {
		got = append(got, it.Record())
	}
	c.Assert(it.Error(), gc.IsNil)
	c.Assert(it.Close(), gc.IsNil)

	c.Assert(got, gc.HasLen, 3)
	for i, rec := range got {
		assertRecordsEqual(c, rec, lrRecords[i+1])
	}
}

func (s *SuiteBase) TestSearch(c *gc.C) {
	// Attempt to get an iterator with an invalid query type.
	it, err := s.s.Search(jobstore.Query{Type: 73, Expression: "lr"})
	c.Assert(it, gc.IsNil)
	c.Assert(err, gc.ErrorMatches, ".*unknown query type.*")
}

func newRecord(i int, task, chunk string) *jobstore.Record {
	return &jobstore.Record{
		JobHash:   common.BytesToHash([]byte{0x10, byte(i)}),
		RunID:     uuid.New(),
		Task:      task,
		Chunk:     chunk,
		Status:    jobstore.StatusSubmitted,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func assertRecordsEqual(c *gc.C, got, exp *jobstore.Record) {
	c.Assert(got.JobHash, gc.Equals, exp.JobHash)
	c.Assert(got.RunID, gc.Equals, exp.RunID)
	c.Assert(got.Task, gc.Equals, exp.Task)
	c.Assert(got.Chunk, gc.Equals, exp.Chunk)
	c.Assert(got.Status, gc.Equals, exp.Status)
	c.Assert(got.LeafHash, gc.Equals, exp.LeafHash)
	c.Assert(len(got.Files), gc.Equals, len(exp.Files))
	for i := range exp.Files {
		c.Assert(got.Files[i], gc.Equals, exp.Files[i])
	}
	c.Assert(got.UpdatedAt.Equal(exp.UpdatedAt), gc.Equals, true, gc.Commentf("got %v, want %v", got.UpdatedAt, exp.UpdatedAt))
}
