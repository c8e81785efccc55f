package continuation

import (
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

// ChunkState is the feed-forward state computed by a single dry run over a
// task. It is shared, read-only, by every chunk of that task.
type ChunkState struct {
	feedForward []uint64
	shutdownRow uint64
}

// NewChunkState returns a ChunkState holding a copy of values. The shutdown
// row is 1-based and must fall within values.
func NewChunkState(values []uint64, shutdownRow uint64) (*ChunkState, error) {
	if shutdownRow == 0 || shutdownRow > uint64(len(values)) {
		return nil, xerrors.Errorf("chunk state: %w: shutdown row %d outside of 1..%d", workflow.ErrValidation, shutdownRow, len(values))
	}
	return &ChunkState{
		feedForward: append([]uint64(nil), values...),
		shutdownRow: shutdownRow,
	}, nil
}

// Len returns the number of feed-forward values.
func (s *ChunkState) Len() int { return len(s.feedForward) }

// ShutdownRow returns the row at which the shutdown routine starts.
func (s *ChunkState) ShutdownRow() uint64 { return s.shutdownRow }

// FeedForward returns a copy of the feed-forward values.
func (s *ChunkState) FeedForward() []uint64 {
	return append([]uint64(nil), s.feedForward...)
}

// ShutdownMarkers returns a sequence as long as the feed-forward values with
// a single 1 at ShutdownRow()-1.
func (s *ChunkState) ShutdownMarkers() []uint64 {
	markers := make([]uint64, len(s.feedForward))
	markers[s.shutdownRow-1] = 1
	return markers
}
