package continuation_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"

	"github.com/0xEigenLabs/eigen-estark-gevulot/continuation"
	"github.com/0xEigenLabs/eigen-estark-gevulot/continuation/mocks"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

var _ = gc.Suite(new(EngineTestSuite))

func Test(t *testing.T) {
	// Run all gocheck test-suites
	gc.TestingT(t)
}

type EngineTestSuite struct {
	task  continuation.Task
	state *continuation.ChunkState
}

func (s *EngineTestSuite) SetUpTest(c *gc.C) {
	s.task = continuation.Task{
		Name:      "lr",
		Program:   "lr.asm",
		Suite:     "solidityExample.json",
		OutputDir: c.MkDir(),
	}

	var err error
	s.state, err = continuation.NewChunkState([]uint64{7, 11, 13, 17, 19, 23}, 4)
	c.Assert(err, gc.IsNil)
}

func (s *EngineTestSuite) TestConfigValidation(c *gc.C) {
	_, err := continuation.NewEngine(continuation.Config{})
	c.Assert(err, gc.ErrorMatches, "(?ms).*analyzer has not been provided.*")
	c.Assert(err, gc.ErrorMatches, "(?ms).*chunk prover has not been provided.*")
}

func (s *EngineTestSuite) TestRunSharesOneDryRunAcrossChunks(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	analyzer := mocks.NewMockAnalyzer(ctrl)
	prover := mocks.NewMockChunkProver(ctrl)

	var (
		calls  []string
		inputs []*continuation.ChunkInput
	)
	analyzer.EXPECT().DryRun(gomock.Any(), s.task).DoAndReturn(
		func(context.Context, continuation.Task) (*continuation.ChunkState, error) {
			calls = append(calls, "dry run")
			return s.state, nil
		},
	).Times(1)
	prover.EXPECT().WitnessAndProve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *continuation.ChunkInput) error {
			calls = append(calls, fmt.Sprintf("prove %d", in.Index))
			inputs = append(inputs, in)
			return nil
		},
	).Times(3)
	prover.EXPECT().GenerateVerifier(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *continuation.ChunkInput) error {
			calls = append(calls, fmt.Sprintf("verifier %d", in.Index))
			return nil
		},
	).Times(3)

	engine, err := continuation.NewEngine(continuation.Config{Analyzer: analyzer, Prover: prover})
	c.Assert(err, gc.IsNil)
	c.Assert(engine.Run(context.TODO(), s.task, 3), gc.IsNil)

	c.Assert(calls, gc.DeepEquals, []string{
		"dry run",
		"prove 0", "verifier 0",
		"prove 1", "verifier 1",
		"prove 2", "verifier 2",
	})

	expMarkers := []uint64{0, 0, 0, 1, 0, 0}
	for i, in := range inputs {
		name := fmt.Sprintf("lr_chunk_%d", i)
		c.Assert(in.Dir, gc.Equals, filepath.Join(s.task.OutputDir, name))
		c.Assert(in.VerifierFile, gc.Equals, filepath.Join(s.task.OutputDir, name+".circom"))
		c.Assert(in.State, gc.Equals, s.state)

		info, err := os.Stat(in.Dir)
		c.Assert(err, gc.IsNil)
		c.Assert(info.IsDir(), gc.Equals, true)

		c.Assert(in.ExternalWitness, gc.DeepEquals, []continuation.WitnessColumn{
			{Name: continuation.BootloaderInputsColumn, Values: []uint64{7, 11, 13, 17, 19, 23}},
			{Name: continuation.ShutdownMarkerColumn, Values: expMarkers},
		})
	}
}

func (s *EngineTestSuite) TestRunStopsAtFirstFailedChunk(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	analyzer := mocks.NewMockAnalyzer(ctrl)
	prover := mocks.NewMockChunkProver(ctrl)

	analyzer.EXPECT().DryRun(gomock.Any(), s.task).Return(s.state, nil)
	gomock.InOrder(
		prover.EXPECT().WitnessAndProve(gomock.Any(), gomock.Any()).Return(nil),
		prover.EXPECT().GenerateVerifier(gomock.Any(), gomock.Any()).Return(nil),
		prover.EXPECT().WitnessAndProve(gomock.Any(), gomock.Any()).Return(xerrors.New("out of memory")),
	)

	engine, err := continuation.NewEngine(continuation.Config{Analyzer: analyzer, Prover: prover})
	c.Assert(err, gc.IsNil)

	err = engine.Run(context.TODO(), s.task, 4)
	c.Assert(err, gc.ErrorMatches, "run chunk 1: witness and prove: out of memory")
}

func (s *EngineTestSuite) TestDryRunFailureStartsNoChunk(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	analyzer := mocks.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().DryRun(gomock.Any(), s.task).Return(nil, xerrors.New("trace not found"))

	engine, err := continuation.NewEngine(continuation.Config{
		Analyzer: analyzer,
		Prover:   mocks.NewMockChunkProver(ctrl),
	})
	c.Assert(err, gc.IsNil)

	err = engine.Run(context.TODO(), s.task, 2)
	c.Assert(err, gc.ErrorMatches, "dry run lr: trace not found")
}

func (s *EngineTestSuite) TestDryRunWithoutStateStartsNoChunk(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	analyzer := mocks.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().DryRun(gomock.Any(), s.task).Return(nil, nil)

	engine, err := continuation.NewEngine(continuation.Config{
		Analyzer: analyzer,
		Prover:   mocks.NewMockChunkProver(ctrl),
	})
	c.Assert(err, gc.IsNil)

	err = engine.Run(context.TODO(), s.task, 2)
	c.Assert(xerrors.Is(err, workflow.ErrValidation), gc.Equals, true)
	c.Assert(err, gc.ErrorMatches, ".*analyzer returned no state")
}

func (s *EngineTestSuite) TestInvalidChunkRequests(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	engine, err := continuation.NewEngine(continuation.Config{
		Analyzer: mocks.NewMockAnalyzer(ctrl),
		Prover:   mocks.NewMockChunkProver(ctrl),
	})
	c.Assert(err, gc.IsNil)

	err = engine.RunChunk(context.TODO(), s.task, 0, nil)
	c.Assert(xerrors.Is(err, workflow.ErrValidation), gc.Equals, true)

	err = engine.RunChunk(context.TODO(), s.task, -1, s.state)
	c.Assert(xerrors.Is(err, workflow.ErrValidation), gc.Equals, true)

	err = engine.Run(context.TODO(), s.task, 0)
	c.Assert(xerrors.Is(err, workflow.ErrValidation), gc.Equals, true)

	_, err = engine.DryRun(context.TODO(), continuation.Task{})
	c.Assert(xerrors.Is(err, workflow.ErrValidation), gc.Equals, true)
}
