package workflow

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

// DebugLogFile is written by the prove program and handed to the verify
// program together with the proof.
const DebugLogFile = WorkspacePrefix + "debug.log"

// BuilderConfig encapsulates the settings for creating a new Builder.
type BuilderConfig struct {
	// The program that generates the witness and the proof of a chunk.
	ProveProgram common.Hash

	// The program that consumes the prover outputs.
	VerifyProgram common.Hash

	// Base URL of the local file server the network downloads inputs from.
	FileServerURL string
}

func (cfg *BuilderConfig) validate() error {
	var err error
	if cfg.ProveProgram == (common.Hash{}) {
		err = multierror.Append(err, xerrors.Errorf("prove program hash has not been provided"))
	}
	if cfg.VerifyProgram == (common.Hash{}) {
		err = multierror.Append(err, xerrors.Errorf("verify program hash has not been provided"))
	}
	if cfg.FileServerURL == "" {
		err = multierror.Append(err, xerrors.Errorf("file server URL has not been provided"))
	}
	return err
}

// InputFile is a file from the local work directory handed to the prove step.
type InputFile struct {
	// Command line flag of the prove program, without the leading dashes.
	Flag string

	// Name relative to the work directory. The same name is used for the
	// download URL and, under WorkspacePrefix, inside the workspace.
	Name string

	// Checksum of the file contents.
	Checksum common.Hash
}

// Request describes one prove/verify job.
type Request struct {
	Task   string
	Chunk  string
	Inputs []InputFile
}

// Builder assembles the two-step prove/verify workflow of a chunk.
type Builder struct {
	cfg BuilderConfig
}

// NewBuilder creates a new Builder with the specified config.
func NewBuilder(cfg BuilderConfig) (*Builder, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("workflow builder: config validation failed: %w", err)
	}
	cfg.FileServerURL = strings.TrimSuffix(cfg.FileServerURL, "/")
	return &Builder{cfg: cfg}, nil
}

// ProveVerify returns a workflow with exactly two steps: the prove program
// reading the request inputs from the file server, followed by the verify
// program reading the circuit, the proof and the debug log produced by the
// prove step.
func (b *Builder) ProveVerify(req Request) (*Workflow, error) {
	if req.Task == "" {
		return nil, xerrors.Errorf("prove/verify workflow: %w: task name is empty", ErrValidation)
	}
	if req.Chunk == "" {
		return nil, xerrors.Errorf("prove/verify workflow: %w: chunk id is empty", ErrValidation)
	}

	var (
		proveArgs   []string
		proveInputs = make([]DataDependency, 0, len(req.Inputs))
	)
	for _, in := range req.Inputs {
		if in.Name == "" || in.Flag == "" {
			return nil, xerrors.Errorf("prove/verify workflow: %w: input file needs a name and a flag", ErrValidation)
		}
		name := WorkspacePrefix + in.Name
		proveArgs = append(proveArgs, "--"+in.Flag, name)
		proveInputs = append(proveInputs, ExternalInput(in.Checksum, name, b.cfg.FileServerURL+"/"+in.Name))
	}
	proveArgs = append(proveArgs, "--task_name", req.Task, "--chunk_id", req.Chunk)

	circomFile := CircomFile(req.Task, req.Chunk)
	proofFile := ProofFile(req.Task, req.Chunk)

	return &Workflow{
		Steps: []Step{
			{
				Program: b.cfg.ProveProgram,
				Args:    proveArgs,
				Inputs:  proveInputs,
			},
			{
				Program: b.cfg.VerifyProgram,
				Args:    []string{"--circom_file", circomFile, "--proof_file", proofFile},
				Inputs: []DataDependency{
					StepOutput(b.cfg.ProveProgram, circomFile),
					StepOutput(b.cfg.ProveProgram, proofFile),
					StepOutput(b.cfg.ProveProgram, DebugLogFile),
				},
			},
		},
	}, nil
}

// ChunkName returns the name shared by the working directory and the
// artifacts of a chunk.
func ChunkName(task, chunk string) string {
	return fmt.Sprintf("%s_chunk_%s", task, chunk)
}

// CircomFile returns the workspace path of the verifier circuit of a chunk.
func CircomFile(task, chunk string) string {
	return WorkspacePrefix + ChunkName(task, chunk) + ".circom"
}

// ProofFile returns the workspace path of the proof of a chunk.
func ProofFile(task, chunk string) string {
	return fmt.Sprintf("%s%s/%s_proof.bin", WorkspacePrefix, ChunkName(task, chunk), task)
}
