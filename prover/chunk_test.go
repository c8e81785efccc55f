package prover_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"

	"github.com/0xEigenLabs/eigen-estark-gevulot/continuation"
	"github.com/0xEigenLabs/eigen-estark-gevulot/fetcher"
	"github.com/0xEigenLabs/eigen-estark-gevulot/poller"
	"github.com/0xEigenLabs/eigen-estark-gevulot/prover"
	"github.com/0xEigenLabs/eigen-estark-gevulot/prover/mocks"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

func (s *ProverTestSuite) newChunkProver(c *gc.C, p *prover.Prover) *prover.NetworkChunkProver {
	cp, err := prover.NewNetworkChunkProver(prover.ChunkProverConfig{
		Prover:    p,
		WorkDir:   s.workDir,
		TraceFile: "trace.bin",
		AsmFile:   "lr.asm",
	})
	c.Assert(err, gc.IsNil)
	return cp
}

func (s *ProverTestSuite) TestChunkProverConfigValidation(c *gc.C) {
	_, err := prover.NewNetworkChunkProver(prover.ChunkProverConfig{})
	c.Assert(err, gc.ErrorMatches, "(?ms).*prover has not been provided.*")
	c.Assert(err, gc.ErrorMatches, "(?ms).*work directory has not been provided.*")
	c.Assert(err, gc.ErrorMatches, "(?ms).*trace file has not been provided.*")
	c.Assert(err, gc.ErrorMatches, "(?ms).*asm file has not been provided.*")
}

func (s *ProverTestSuite) TestChunkStateFile(c *gc.C) {
	c.Assert(prover.ChunkStateFile("lr", 3), gc.Equals, "lr_chunks_3.data")
}

func (s *ProverTestSuite) TestEngineProvesChunksOnNetwork(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	sub := mocks.NewMockSubmitter(ctrl)
	pol := mocks.NewMockPoller(ctrl)
	fet := mocks.NewMockFetcher(ctrl)

	var jobs []*workflow.Job
	sub.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, job *workflow.Job) (common.Hash, error) {
			jobs = append(jobs, job)
			return job.Hash, nil
		},
	).Times(2)
	pol.EXPECT().Poll(gomock.Any(), gomock.Any(), 300*time.Second).DoAndReturn(
		func(_ context.Context, hash common.Hash, _ time.Duration) (poller.Outcome, error) {
			return poller.Ready(common.BytesToHash(append([]byte{0xaa}, hash[:4]...))), nil
		},
	).Times(2)
	fet.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, leaf common.Hash) (*fetcher.Descriptor, error) {
			return &fetcher.Descriptor{Hash: workflow.HashHex(leaf)}, nil
		},
	).Times(2)
	chunk := 0
	fet.EXPECT().DownloadTo(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *fetcher.Descriptor, dir string) ([]string, error) {
			c.Assert(filepath.Base(dir), gc.Equals, workflow.ChunkName("lr", strconv.Itoa(chunk)))
			circuit := filepath.Join(dir, filepath.Base(dir)+".circom")
			c.Assert(ioutil.WriteFile(circuit, []byte("circuit"), 0644), gc.IsNil)
			chunk++
			return []string{circuit}, nil
		},
	).Times(2)

	state, err := continuation.NewChunkState([]uint64{7, 11, 13, 17}, 3)
	c.Assert(err, gc.IsNil)
	statePath := filepath.Join(c.MkDir(), "lr_dry_run.data")
	c.Assert(continuation.SaveChunkState(statePath, state), gc.IsNil)

	p := s.newProver(c, sub, pol, fet)
	cp := s.newChunkProver(c, p)
	engine, err := continuation.NewEngine(continuation.Config{
		Analyzer: continuation.FileAnalyzer{Path: func(continuation.Task) string { return statePath }},
		Prover:   cp,
	})
	c.Assert(err, gc.IsNil)

	task := continuation.Task{Name: "lr", Program: "lr.asm", OutputDir: c.MkDir()}
	c.Assert(engine.Run(context.TODO(), task, 2), gc.IsNil)
	c.Assert(jobs, gc.HasLen, 2)

	for i, job := range jobs {
		// Every chunk ships the shared state as its bootloader input.
		biFile := prover.ChunkStateFile("lr", i)
		got, err := continuation.LoadChunkState(filepath.Join(s.workDir, biFile))
		c.Assert(err, gc.IsNil)
		c.Assert(got.FeedForward(), gc.DeepEquals, state.FeedForward())
		c.Assert(got.ShutdownRow(), gc.Equals, state.ShutdownRow())

		sum, err := workflow.FileChecksum(filepath.Join(s.workDir, biFile))
		c.Assert(err, gc.IsNil)
		c.Assert(job.Workflow.Steps[0].Inputs[1].Checksum, gc.Equals, sum)

		// The returned circuit is moved next to the chunk directory.
		name := workflow.ChunkName("lr", strconv.Itoa(i))
		verifier := filepath.Join(task.OutputDir, name+".circom")
		_, err = os.Stat(verifier)
		c.Assert(err, gc.IsNil)

		res, ok := cp.Result(i)
		c.Assert(ok, gc.Equals, true)
		c.Assert(res.Files, gc.DeepEquals, []string{verifier})

		// The job store points at the moved circuit too.
		rec, err := p.Store().Find(res.JobHash)
		c.Assert(err, gc.IsNil)
		c.Assert(rec.Files, gc.DeepEquals, []string{verifier})
	}
}

func (s *ProverTestSuite) TestWitnessAndProveFailsOnPendingJob(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	sub := mocks.NewMockSubmitter(ctrl)
	pol := mocks.NewMockPoller(ctrl)
	sub.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, job *workflow.Job) (common.Hash, error) { return job.Hash, nil },
	)
	pol.EXPECT().Poll(gomock.Any(), gomock.Any(), gomock.Any()).Return(poller.Pending(), nil)

	cp := s.newChunkProver(c, s.newProver(c, sub, pol, mocks.NewMockFetcher(ctrl)))
	state, err := continuation.NewChunkState([]uint64{1, 2}, 1)
	c.Assert(err, gc.IsNil)
	in := &continuation.ChunkInput{
		Task:         continuation.Task{Name: "lr"},
		Index:        0,
		Dir:          c.MkDir(),
		VerifierFile: filepath.Join(c.MkDir(), "lr_chunk_0.circom"),
		State:        state,
	}

	err = cp.WitnessAndProve(context.TODO(), in)
	c.Assert(xerrors.Is(err, prover.ErrNoResult), gc.Equals, true)

	_, ok := cp.Result(0)
	c.Assert(ok, gc.Equals, false)
	err = cp.GenerateVerifier(context.TODO(), in)
	c.Assert(xerrors.Is(err, prover.ErrNoResult), gc.Equals, true)
}

func (s *ProverTestSuite) TestGenerateVerifierToleratesMissingCircuit(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	sub := mocks.NewMockSubmitter(ctrl)
	pol := mocks.NewMockPoller(ctrl)
	fet := mocks.NewMockFetcher(ctrl)
	leaf := common.HexToHash("0xfeed")
	desc := new(fetcher.Descriptor)
	sub.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, job *workflow.Job) (common.Hash, error) { return job.Hash, nil },
	)
	pol.EXPECT().Poll(gomock.Any(), gomock.Any(), gomock.Any()).Return(poller.Ready(leaf), nil)
	fet.EXPECT().Fetch(gomock.Any(), leaf).Return(desc, nil)
	fet.EXPECT().DownloadTo(gomock.Any(), desc, gomock.Any()).Return([]string{"/tmp/lr_proof.bin"}, nil)

	cp := s.newChunkProver(c, s.newProver(c, sub, pol, fet))
	state, err := continuation.NewChunkState([]uint64{1, 2}, 2)
	c.Assert(err, gc.IsNil)
	in := &continuation.ChunkInput{
		Task:         continuation.Task{Name: "lr"},
		Index:        1,
		Dir:          c.MkDir(),
		VerifierFile: filepath.Join(c.MkDir(), "lr_chunk_1.circom"),
		State:        state,
	}

	c.Assert(cp.WitnessAndProve(context.TODO(), in), gc.IsNil)
	c.Assert(cp.GenerateVerifier(context.TODO(), in), gc.IsNil)

	res, ok := cp.Result(1)
	c.Assert(ok, gc.Equals, true)
	c.Assert(res.Files, gc.DeepEquals, []string{"/tmp/lr_proof.bin"})
}
