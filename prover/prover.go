package prover

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/0xEigenLabs/eigen-estark-gevulot/prover Submitter,Poller,Fetcher

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/artifactstore"
	"github.com/0xEigenLabs/eigen-estark-gevulot/fetcher"
	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore/memory"
	"github.com/0xEigenLabs/eigen-estark-gevulot/poller"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

// ErrNoResult is returned by callers that need a completed job when polling
// gave up before a leaf appeared.
var ErrNoResult = xerrors.New("job produced no result")

// Submitter is implemented by objects that hand signed jobs to the network.
type Submitter interface {
	Submit(ctx context.Context, job *workflow.Job) (common.Hash, error)
}

// Poller is implemented by objects that wait for a job's result leaf.
type Poller interface {
	Poll(ctx context.Context, hash common.Hash, expected time.Duration) (poller.Outcome, error)
}

// Fetcher is implemented by objects that retrieve the files of a result leaf.
type Fetcher interface {
	Fetch(ctx context.Context, leaf common.Hash) (*fetcher.Descriptor, error)
	DownloadTo(ctx context.Context, desc *fetcher.Descriptor, dir string) ([]string, error)
}

// ExpectedDuration returns how long a prove/verify job of task is expected
// to take on the network.
func ExpectedDuration(task string) time.Duration {
	if task == "lr" {
		return 300 * time.Second
	}
	return 1100 * time.Second
}

// Config encapsulates the settings for creating a new Prover.
type Config struct {
	// Assembles the prove/verify workflow.
	Builder *workflow.Builder

	// Signs the workflow into a job.
	Signer *workflow.Signer

	Submitter Submitter
	Poller    Poller
	Fetcher   Fetcher

	// Keeps track of job lifecycles. If not specified, an in-memory store
	// will be used instead.
	Store jobstore.Store

	// Optional mirror for downloaded result files.
	Sink artifactstore.Sink

	// The directory published by the file server. Input checksums are
	// computed from the files in it.
	WorkDir string

	// The default directory for downloaded result files.
	OutputDir string

	// Maps a task to the delay before its first result query. If not
	// specified, the poller's own initial delay applies to every job.
	ExpectedDuration func(task string) time.Duration

	// A clock instance for nonces and timestamps. If not specified, the
	// default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Builder == nil {
		err = multierror.Append(err, xerrors.Errorf("workflow builder has not been provided"))
	}
	if cfg.Signer == nil {
		err = multierror.Append(err, xerrors.Errorf("signer has not been provided"))
	}
	if cfg.Submitter == nil {
		err = multierror.Append(err, xerrors.Errorf("submitter has not been provided"))
	}
	if cfg.Poller == nil {
		err = multierror.Append(err, xerrors.Errorf("poller has not been provided"))
	}
	if cfg.Fetcher == nil {
		err = multierror.Append(err, xerrors.Errorf("fetcher has not been provided"))
	}
	if cfg.WorkDir == "" {
		err = multierror.Append(err, xerrors.Errorf("work directory has not been provided"))
	}
	if cfg.OutputDir == "" {
		err = multierror.Append(err, xerrors.Errorf("output directory has not been provided"))
	}
	if cfg.Store == nil {
		cfg.Store = memory.NewInMemoryJobStore()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Request describes one prove/verify job. File names are relative to the
// work directory.
type Request struct {
	Task           string
	Chunk          string
	TraceFile      string
	BootloaderFile string
	AsmFile        string

	// Overrides the configured output directory.
	OutputDir string
}

// Result summarises a finished job lifecycle.
type Result struct {
	RunID   uuid.UUID
	JobHash common.Hash
	Outcome poller.Outcome

	// Local paths of the downloaded files. Empty unless the outcome is ready.
	Files []string
}

// Prover drives a prove/verify job through the network: build, sign,
// submit, poll and fetch.
type Prover struct {
	cfg Config
}

// NewProver creates a new Prover with the specified config.
func NewProver(cfg Config) (*Prover, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("prover: config validation failed: %w", err)
	}
	return &Prover{cfg: cfg}, nil
}

// Store returns the job store the prover records lifecycles in.
func (p *Prover) Store() jobstore.Store { return p.cfg.Store }

// Run executes the whole lifecycle of one job. A job that does not complete
// within the polling budget is not an error: the returned result carries a
// pending outcome and no files.
func (p *Prover) Run(ctx context.Context, req Request) (*Result, error) {
	startAt := p.cfg.Clock.Now()
	res := &Result{RunID: uuid.New()}
	logger := p.cfg.Logger.WithFields(logrus.Fields{
		"run_id": res.RunID.String(),
		"task":   req.Task,
		"chunk":  req.Chunk,
	})

	job, err := p.signedJob(req)
	if err != nil {
		jobOutcomes.WithLabelValues("invalid").Inc()
		return nil, err
	}
	res.JobHash = job.Hash
	rec := &jobstore.Record{
		JobHash: job.Hash,
		RunID:   res.RunID,
		Task:    req.Task,
		Chunk:   req.Chunk,
		Status:  jobstore.StatusSubmitted,
	}
	logger = logger.WithField("job_hash", workflow.HashHex(job.Hash))

	hash, err := p.cfg.Submitter.Submit(ctx, job)
	if err != nil {
		return nil, p.fail(logger, rec, xerrors.Errorf("prover: %w", err))
	}
	jobsSubmitted.Inc()
	if err = p.record(rec); err != nil {
		return nil, err
	}

	var expected time.Duration
	if p.cfg.ExpectedDuration != nil {
		expected = p.cfg.ExpectedDuration(req.Task)
	}
	res.Outcome, err = p.cfg.Poller.Poll(ctx, hash, expected)
	if err != nil {
		return nil, p.fail(logger, rec, xerrors.Errorf("prover: poll: %w", err))
	}
	if !res.Outcome.Ready {
		jobOutcomes.WithLabelValues("pending").Inc()
		logger.Warn("job did not complete within the polling budget")
		rec.Status = jobstore.StatusPending
		return res, p.record(rec)
	}

	desc, err := p.cfg.Fetcher.Fetch(ctx, res.Outcome.Leaf)
	if err != nil {
		return nil, p.fail(logger, rec, xerrors.Errorf("prover: %w", err))
	}
	outDir := req.OutputDir
	if outDir == "" {
		outDir = p.cfg.OutputDir
	}
	if res.Files, err = p.cfg.Fetcher.DownloadTo(ctx, desc, outDir); err != nil {
		return nil, p.fail(logger, rec, xerrors.Errorf("prover: %w", err))
	}
	downloadedFiles.Add(float64(len(res.Files)))

	if p.cfg.Sink != nil {
		for _, path := range res.Files {
			if _, err = p.cfg.Sink.Upload(ctx, res.RunID.String(), path); err != nil {
				return nil, p.fail(logger, rec, xerrors.Errorf("prover: mirror: %w", err))
			}
		}
	}

	rec.Status = jobstore.StatusCompleted
	rec.LeafHash = res.Outcome.Leaf
	rec.Files = res.Files
	if err = p.record(rec); err != nil {
		return nil, err
	}

	elapsed := p.cfg.Clock.Now().Sub(startAt)
	jobOutcomes.WithLabelValues("completed").Inc()
	jobDuration.Observe(elapsed.Seconds())
	logger.WithFields(logrus.Fields{
		"leaf_hash": workflow.HashHex(res.Outcome.Leaf),
		"files":     len(res.Files),
		"duration":  elapsed.String(),
	}).Info("job completed")
	return res, nil
}

func (p *Prover) signedJob(req Request) (*workflow.Job, error) {
	var inputs []workflow.InputFile
	for _, in := range []struct{ flag, name string }{
		{"trace_file", req.TraceFile},
		{"bi_file", req.BootloaderFile},
		{"asm_file", req.AsmFile},
	} {
		if in.name == "" {
			return nil, xerrors.Errorf("prover: %w: %s has not been provided", workflow.ErrValidation, in.flag)
		}
		sum, err := workflow.FileChecksum(filepath.Join(p.cfg.WorkDir, in.name))
		if err != nil {
			return nil, xerrors.Errorf("prover: %w", err)
		}
		inputs = append(inputs, workflow.InputFile{Flag: in.flag, Name: in.name, Checksum: sum})
	}

	wf, err := p.cfg.Builder.ProveVerify(workflow.Request{Task: req.Task, Chunk: req.Chunk, Inputs: inputs})
	if err != nil {
		return nil, xerrors.Errorf("prover: %w", err)
	}
	job, err := p.cfg.Signer.Sign(*wf, uint64(p.cfg.Clock.Now().UnixNano()))
	if err != nil {
		return nil, xerrors.Errorf("prover: %w", err)
	}
	return job, nil
}

func (p *Prover) record(rec *jobstore.Record) error {
	rec.UpdatedAt = p.cfg.Clock.Now()
	if err := p.cfg.Store.Upsert(rec); err != nil {
		return xerrors.Errorf("prover: record job: %w", err)
	}
	return nil
}

// recordFiles replaces the local file paths of a recorded job.
func (p *Prover) recordFiles(jobHash common.Hash, files []string) error {
	rec, err := p.cfg.Store.Find(jobHash)
	if err != nil {
		return xerrors.Errorf("prover: find job: %w", err)
	}
	rec.Files = append([]string(nil), files...)
	return p.record(rec)
}

// fail records the job as failed and returns err. A store failure is
// logged but does not mask err.
func (p *Prover) fail(logger *logrus.Entry, rec *jobstore.Record, err error) error {
	jobOutcomes.WithLabelValues("failed").Inc()
	logger.WithError(err).Error("job failed")
	rec.Status = jobstore.StatusFailed
	if storeErr := p.record(rec); storeErr != nil {
		logger.WithError(storeErr).Warn("unable to record failed job")
	}
	return err
}
