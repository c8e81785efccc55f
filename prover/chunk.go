package prover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/continuation"
)

// Compile-time check for ensuring NetworkChunkProver implements ChunkProver.
var _ continuation.ChunkProver = (*NetworkChunkProver)(nil)

// ChunkStateFile returns the name of the bootloader input file of a chunk.
func ChunkStateFile(task string, index int) string {
	return fmt.Sprintf("%s_chunks_%d.data", task, index)
}

// ChunkProverConfig encapsulates the settings for creating a new
// NetworkChunkProver.
type ChunkProverConfig struct {
	// The prover that runs one network job per chunk.
	Prover *Prover

	// The directory published by the file server. Chunk state files are
	// written here so the network can fetch them.
	WorkDir string

	// Trace and program files shared by all chunks, relative to WorkDir.
	TraceFile string
	AsmFile   string
}

func (cfg *ChunkProverConfig) validate() error {
	var err error
	if cfg.Prover == nil {
		err = multierror.Append(err, xerrors.Errorf("prover has not been provided"))
	}
	if cfg.WorkDir == "" {
		err = multierror.Append(err, xerrors.Errorf("work directory has not been provided"))
	}
	if cfg.TraceFile == "" {
		err = multierror.Append(err, xerrors.Errorf("trace file has not been provided"))
	}
	if cfg.AsmFile == "" {
		err = multierror.Append(err, xerrors.Errorf("asm file has not been provided"))
	}
	return err
}

// NetworkChunkProver proves chunks by running a prove/verify job per chunk
// on the network. The chunk state travels to the network as a bootloader
// input file.
type NetworkChunkProver struct {
	cfg     ChunkProverConfig
	results map[int]*Result
}

// NewNetworkChunkProver creates a new NetworkChunkProver with the specified
// config.
func NewNetworkChunkProver(cfg ChunkProverConfig) (*NetworkChunkProver, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("network chunk prover: config validation failed: %w", err)
	}
	return &NetworkChunkProver{cfg: cfg, results: make(map[int]*Result)}, nil
}

// Result returns the job result of a proved chunk.
func (n *NetworkChunkProver) Result(index int) (*Result, bool) {
	res, ok := n.results[index]
	return res, ok
}

// WitnessAndProve implements continuation.ChunkProver. Result files land in
// the chunk directory.
func (n *NetworkChunkProver) WitnessAndProve(ctx context.Context, in *continuation.ChunkInput) error {
	biFile := ChunkStateFile(in.Task.Name, in.Index)
	if err := continuation.SaveChunkState(filepath.Join(n.cfg.WorkDir, biFile), in.State); err != nil {
		return err
	}

	res, err := n.cfg.Prover.Run(ctx, Request{
		Task:           in.Task.Name,
		Chunk:          strconv.Itoa(in.Index),
		TraceFile:      n.cfg.TraceFile,
		BootloaderFile: biFile,
		AsmFile:        n.cfg.AsmFile,
		OutputDir:      in.Dir,
	})
	if err != nil {
		return err
	}
	if !res.Outcome.Ready {
		return xerrors.Errorf("chunk %d: %w", in.Index, ErrNoResult)
	}
	n.results[in.Index] = res
	return nil
}

// GenerateVerifier implements continuation.ChunkProver. The circuit is
// produced on the network; if the job returned it, it is moved to the
// chunk's verifier path.
func (n *NetworkChunkProver) GenerateVerifier(_ context.Context, in *continuation.ChunkInput) error {
	res, ok := n.results[in.Index]
	if !ok {
		return xerrors.Errorf("chunk %d: %w", in.Index, ErrNoResult)
	}
	logger := n.cfg.Prover.cfg.Logger.WithFields(logrus.Fields{
		"task":     in.Task.Name,
		"chunk":    in.Index,
		"verifier": in.VerifierFile,
	})

	want := filepath.Base(in.VerifierFile)
	for i, path := range res.Files {
		if filepath.Base(path) != want {
			continue
		}
		if path != in.VerifierFile {
			if err := os.Rename(path, in.VerifierFile); err != nil {
				return xerrors.Errorf("chunk %d: move verifier circuit: %w", in.Index, err)
			}
			res.Files[i] = in.VerifierFile
			if err := n.cfg.Prover.recordFiles(res.JobHash, res.Files); err != nil {
				return xerrors.Errorf("chunk %d: %w", in.Index, err)
			}
		}
		logger.Info("verifier circuit ready")
		return nil
	}

	logger.Warn("job did not return a verifier circuit")
	return nil
}
