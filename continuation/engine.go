package continuation

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/0xEigenLabs/eigen-estark-gevulot/continuation Analyzer,ChunkProver

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

const (
	// BootloaderInputsColumn receives the feed-forward values of a chunk.
	BootloaderInputsColumn = "main_bootloader_inputs.value"

	// ShutdownMarkerColumn receives the one-hot shutdown marker sequence.
	ShutdownMarkerColumn = "main.jump_to_shutdown_routine"
)

// Task identifies one logically continuous program execution.
type Task struct {
	// Name of the task, e.g. "lr". Used to namespace every chunk artifact.
	Name string

	// Path of the compiled program.
	Program string

	// Path of the trace/suite description fed to the program.
	Suite string

	// Directory that receives the chunk directories and verifier circuits.
	OutputDir string
}

// WitnessColumn is a named sequence of synthetic values supplied to the
// prover next to the chunk's own trace.
type WitnessColumn struct {
	Name   string
	Values []uint64
}

// ChunkInput describes everything the prover needs for one chunk.
type ChunkInput struct {
	Task  Task
	Index int

	// Working directory of the chunk.
	Dir string

	// Path of the verifier circuit generated for the chunk.
	VerifierFile string

	ExternalWitness []WitnessColumn

	// The task-level state shared by all chunks.
	State *ChunkState
}

// Analyzer is implemented by objects that perform the dry run of a task.
type Analyzer interface {
	DryRun(ctx context.Context, task Task) (*ChunkState, error)
}

// ChunkProver is implemented by objects that prove a single chunk.
type ChunkProver interface {
	// WitnessAndProve generates the witness of a chunk and proves it.
	WitnessAndProve(ctx context.Context, in *ChunkInput) error

	// GenerateVerifier produces the verifier circuit for the same chunk.
	GenerateVerifier(ctx context.Context, in *ChunkInput) error
}

// Config encapsulates the settings for creating a new Engine.
type Config struct {
	// The dry-run collaborator.
	Analyzer Analyzer

	// The proving collaborator.
	Prover ChunkProver

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Analyzer == nil {
		err = multierror.Append(err, xerrors.Errorf("analyzer has not been provided"))
	}
	if cfg.Prover == nil {
		err = multierror.Append(err, xerrors.Errorf("chunk prover has not been provided"))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Engine splits a task into sequential chunks that share the state of a
// single dry run.
type Engine struct {
	cfg Config
}

// NewEngine creates a new Engine with the specified config.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("continuation engine: config validation failed: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// DryRun computes the feed-forward state of task.
func (e *Engine) DryRun(ctx context.Context, task Task) (*ChunkState, error) {
	if task.Name == "" {
		return nil, xerrors.Errorf("dry run: %w: task name is empty", workflow.ErrValidation)
	}
	state, err := e.cfg.Analyzer.DryRun(ctx, task)
	if err != nil {
		return nil, xerrors.Errorf("dry run %s: %w", task.Name, err)
	}
	if state == nil {
		return nil, xerrors.Errorf("dry run %s: %w: analyzer returned no state", task.Name, workflow.ErrValidation)
	}
	e.cfg.Logger.WithFields(logrus.Fields{
		"task":         task.Name,
		"values":       state.Len(),
		"shutdown_row": state.ShutdownRow(),
	}).Info("dry run completed")
	return state, nil
}

// RunChunk proves chunk index of task using the shared state. The chunk
// directory is created if needed.
func (e *Engine) RunChunk(ctx context.Context, task Task, index int, state *ChunkState) error {
	if state == nil {
		return xerrors.Errorf("run chunk %d: %w: missing dry-run state", index, workflow.ErrValidation)
	}
	if index < 0 {
		return xerrors.Errorf("run chunk %d: %w: negative chunk index", index, workflow.ErrValidation)
	}

	name := workflow.ChunkName(task.Name, strconv.Itoa(index))
	in := &ChunkInput{
		Task:         task,
		Index:        index,
		Dir:          filepath.Join(task.OutputDir, name),
		VerifierFile: filepath.Join(task.OutputDir, name+".circom"),
		ExternalWitness: []WitnessColumn{
			{Name: BootloaderInputsColumn, Values: state.FeedForward()},
			{Name: ShutdownMarkerColumn, Values: state.ShutdownMarkers()},
		},
		State: state,
	}
	if err := os.MkdirAll(in.Dir, 0755); err != nil {
		return xerrors.Errorf("run chunk %d: %w", index, err)
	}

	logger := e.cfg.Logger.WithFields(logrus.Fields{"task": task.Name, "chunk": index})
	logger.WithField("dir", in.Dir).Info("proving chunk")
	if err := e.cfg.Prover.WitnessAndProve(ctx, in); err != nil {
		return xerrors.Errorf("run chunk %d: witness and prove: %w", index, err)
	}
	if err := e.cfg.Prover.GenerateVerifier(ctx, in); err != nil {
		return xerrors.Errorf("run chunk %d: generate verifier: %w", index, err)
	}
	logger.WithField("verifier", in.VerifierFile).Info("chunk completed")
	return nil
}

// Run performs the dry run of task once and then proves chunks 0 to
// numChunks-1 in order, stopping at the first failure.
func (e *Engine) Run(ctx context.Context, task Task, numChunks int) error {
	if numChunks < 1 {
		return xerrors.Errorf("run %s: %w: need at least one chunk", task.Name, workflow.ErrValidation)
	}
	state, err := e.DryRun(ctx, task)
	if err != nil {
		return err
	}
	for i := 0; i < numChunks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.RunChunk(ctx, task, i, state); err != nil {
			return err
		}
	}
	return nil
}
