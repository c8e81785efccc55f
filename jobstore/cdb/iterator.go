package cdb

import (
	"database/sql"

	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
)

// recordIterator is a jobstore.RecordIterator implementation for the cdb job store.
type recordIterator struct {
	rows          *sql.Rows
	lastErr       error
	totalRows     uint64
	latchedRecord *jobstore.Record
}

func (i *recordIterator) Next() bool {
	if i.lastErr != nil || !i.rows.Next() {
		return false
	}

	rec, err := scanRecord(i.rows)
	if err != nil {
		i.lastErr = err
		return false
	}

	i.latchedRecord = rec
	return true
}

func (i *recordIterator) Error() error {
	return i.lastErr
}

func (i *recordIterator) Close() error {
	err := i.rows.Close()
	if err != nil {
		return xerrors.Errorf("record iterator: %w", err)
	}
	return nil
}

func (i *recordIterator) Record() *jobstore.Record {
	return i.latchedRecord
}

func (i *recordIterator) TotalCount() uint64 {
	return i.totalRows
}
