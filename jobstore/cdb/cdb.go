package cdb

import (
	"database/sql"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

var (
	schemaQuery = `create table if not exists job_record (
	seq serial,
	job_hash text primary key,
	run_id uuid not null,
	task text not null,
	chunk text not null,
	status int not null,
	leaf_hash text not null default '',
	files text[],
	updated_at timestamptz not null
)`

	upsertRecordQuery = `insert into job_record(job_hash, run_id, task, chunk, status, leaf_hash, files, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8)
on conflict (job_hash) do update set
	status=excluded.status, leaf_hash=excluded.leaf_hash, files=excluded.files, updated_at=excluded.updated_at`

	findRecordQuery = `select job_hash, run_id, task, chunk, status, leaf_hash, files, updated_at from job_record where job_hash=$1`

	taskRecordsQuery = `select job_hash, run_id, task, chunk, status, leaf_hash, files, updated_at from job_record where task=$1 order by seq offset $2`

	totalTaskRecordsQuery = `select count(*) from job_record where task=$1`

	// Compile-time check for ensuring CDBJobStore implements Store.
	_ jobstore.Store = (*CDBJobStore)(nil)
)

// CDBJobStore implements a job store that persists records to a
// cockroachdb instance.
type CDBJobStore struct {
	db *sql.DB
}

// NewCDBJobStore returns a CDBJobStore instance that connects to the
// cockroachdb instance specified by dsn and makes sure the records table
// exists.
func NewCDBJobStore(dsn string) (*CDBJobStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(schemaQuery); err != nil {
		_ = db.Close()
		return nil, xerrors.Errorf("ensure schema: %w", err)
	}
	return &CDBJobStore{db: db}, nil
}

// Close terminates the connection to the backing cockroachdb instance.
func (s *CDBJobStore) Close() error {
	return s.db.Close()
}

// Upsert a record.
func (s *CDBJobStore) Upsert(rec *jobstore.Record) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := s.db.Exec(upsertRecordQuery,
		workflow.HashHex(rec.JobHash),
		rec.RunID,
		rec.Task,
		rec.Chunk,
		int(rec.Status),
		leafHex(rec.LeafHash),
		pq.Array(rec.Files),
		updatedAt.UTC(),
	)
	if err != nil {
		return xerrors.Errorf("upsert record: %w", err)
	}
	return nil
}

// Find the record of a job.
func (s *CDBJobStore) Find(jobHash common.Hash) (*jobstore.Record, error) {
	row := s.db.QueryRow(findRecordQuery, workflow.HashHex(jobHash))
	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, xerrors.Errorf("find: %w", jobstore.ErrNotFound)
		}
		return nil, xerrors.Errorf("find: %w", err)
	}
	return rec, nil
}

// Search the store by a particular query and return a result iterator.
func (s *CDBJobStore) Search(query jobstore.Query) (jobstore.RecordIterator, error) {
	var (
		stmt      string
		totalRows uint64
	)

	switch query.Type {
	case jobstore.QueryTypeTask:
		stmt = taskRecordsQuery

		row := s.db.QueryRow(totalTaskRecordsQuery, query.Expression)
		if err := row.Scan(&totalRows); err != nil {
			return nil, xerrors.Errorf("total rows with expression: %s : %w", query.Expression, err)
		}
	default:
		return nil, xerrors.Errorf("search: %w, %d", jobstore.ErrUnknownQueryType, query.Type)
	}

	rows, err := s.db.Query(stmt, query.Expression, int64(query.Offset))
	if err != nil {
		return nil, xerrors.Errorf("search with expression: %s : %w", query.Expression, err)
	}
	return &recordIterator{rows: rows, totalRows: totalRows}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*jobstore.Record, error) {
	var (
		jobHex, leaf string
		status       int
		files        []string
	)
	rec := new(jobstore.Record)
	err := row.Scan(&jobHex, &rec.RunID, &rec.Task, &rec.Chunk, &status, &leaf, pq.Array(&files), &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if rec.JobHash, err = workflow.ParseHash(jobHex); err != nil {
		return nil, err
	}
	if leaf != "" {
		if rec.LeafHash, err = workflow.ParseHash(leaf); err != nil {
			return nil, err
		}
	}
	rec.Status = jobstore.Status(status)
	rec.Files = files
	return rec, nil
}

func leafHex(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return workflow.HashHex(h)
}
