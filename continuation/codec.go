package continuation

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"io/ioutil"
	"os"

	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

const wordSize = 8

// WriteChunkState encodes s as the shutdown row followed by the feed-forward
// values, each as an 8-byte little-endian word.
func WriteChunkState(w io.Writer, s *ChunkState) error {
	bw := bufio.NewWriter(w)
	var word [wordSize]byte

	binary.LittleEndian.PutUint64(word[:], s.shutdownRow)
	if _, err := bw.Write(word[:]); err != nil {
		return xerrors.Errorf("write chunk state: %w", err)
	}
	for _, v := range s.feedForward {
		binary.LittleEndian.PutUint64(word[:], v)
		if _, err := bw.Write(word[:]); err != nil {
			return xerrors.Errorf("write chunk state: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return xerrors.Errorf("write chunk state: %w", err)
	}
	return nil
}

// ReadChunkState decodes the layout written by WriteChunkState.
func ReadChunkState(r io.Reader) (*ChunkState, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, xerrors.Errorf("read chunk state: %w", err)
	}
	if len(data) < wordSize || len(data)%wordSize != 0 {
		return nil, xerrors.Errorf("read chunk state: %w: length %d is not a positive multiple of %d", workflow.ErrValidation, len(data), wordSize)
	}

	row := binary.LittleEndian.Uint64(data[:wordSize])
	values := make([]uint64, 0, len(data)/wordSize-1)
	for off := wordSize; off < len(data); off += wordSize {
		values = append(values, binary.LittleEndian.Uint64(data[off:off+wordSize]))
	}
	return NewChunkState(values, row)
}

// SaveChunkState writes s to the file at path, replacing any previous
// content.
func SaveChunkState(path string, s *ChunkState) error {
	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("save chunk state: %w", err)
	}
	if err = WriteChunkState(f, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadChunkState reads a chunk state from the file at path.
func LoadChunkState(path string) (*ChunkState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("load chunk state: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadChunkState(f)
}

// FileAnalyzer is an Analyzer that reads the dry-run result of a task from
// a bootloader input file instead of executing the program.
type FileAnalyzer struct {
	// Path returns the bootloader input file of a task.
	Path func(task Task) string
}

// DryRun implements Analyzer.
func (a FileAnalyzer) DryRun(_ context.Context, task Task) (*ChunkState, error) {
	return LoadChunkState(a.Path(task))
}
