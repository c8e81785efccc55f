package workflow_test

import (
	"encoding/json"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"

	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

var _ = gc.Suite(new(SignerTestSuite))

type SignerTestSuite struct {
	signer *workflow.Signer
	wf     workflow.Workflow
}

func (s *SignerTestSuite) SetUpTest(c *gc.C) {
	key, err := crypto.GenerateKey()
	c.Assert(err, gc.IsNil)
	s.signer = workflow.NewSigner(key)

	prove := common.HexToHash("aa")
	s.wf = workflow.Workflow{
		Steps: []workflow.Step{
			{
				Program: prove,
				Args:    []string{"--task_name", "lr"},
				Inputs: []workflow.DataDependency{
					workflow.ExternalInput(common.HexToHash("01"), "/workspace/lr.asm", "http://localhost:8080/lr.asm"),
				},
			},
			{
				Program: common.HexToHash("bb"),
				Inputs: []workflow.DataDependency{
					workflow.StepOutput(prove, "/workspace/debug.log"),
				},
			},
		},
	}
}

func (s *SignerTestSuite) TestSignIsDeterministic(c *gc.C) {
	job1, err := s.signer.Sign(s.wf, 42)
	c.Assert(err, gc.IsNil)
	job2, err := s.signer.Sign(s.wf, 42)
	c.Assert(err, gc.IsNil)
	c.Assert(job1.Hash, gc.Equals, job2.Hash)

	job3, err := s.signer.Sign(s.wf, 43)
	c.Assert(err, gc.IsNil)
	c.Assert(job3.Hash, gc.Not(gc.Equals), job1.Hash)

	c.Assert(job1.Author, gc.Equals, s.signer.Author())
	c.Assert(workflow.VerifyJob(job1), gc.IsNil)
}

func (s *SignerTestSuite) TestVerifyDetectsTampering(c *gc.C) {
	job, err := s.signer.Sign(s.wf, 1)
	c.Assert(err, gc.IsNil)

	job.Workflow.Steps[0].Args = append(job.Workflow.Steps[0].Args, "--chunk_id", "9")
	err = workflow.VerifyJob(job)
	c.Assert(xerrors.Is(err, workflow.ErrValidation), gc.Equals, true)
}

func (s *SignerTestSuite) TestSignedJobDoesNotAliasWorkflow(c *gc.C) {
	job, err := s.signer.Sign(s.wf, 1)
	c.Assert(err, gc.IsNil)

	s.wf.Steps[0].Args[0] = "--mutated"
	c.Assert(job.Workflow.Steps[0].Args[0], gc.Equals, "--task_name")
}

func (s *SignerTestSuite) TestJobWireRoundTrip(c *gc.C) {
	job, err := s.signer.Sign(s.wf, 7)
	c.Assert(err, gc.IsNil)

	data, err := json.Marshal(job)
	c.Assert(err, gc.IsNil)

	var raw map[string]interface{}
	c.Assert(json.Unmarshal(data, &raw), gc.IsNil)
	c.Assert(raw["hash"], gc.Equals, workflow.HashHex(job.Hash))
	payload := raw["payload"].(map[string]interface{})
	c.Assert(payload["Run"], gc.NotNil)

	decoded := new(workflow.Job)
	c.Assert(json.Unmarshal(data, decoded), gc.IsNil)
	c.Assert(decoded.Hash, gc.Equals, job.Hash)
	c.Assert(decoded.Workflow, gc.DeepEquals, job.Workflow)
	c.Assert(workflow.VerifyJob(decoded), gc.IsNil)
}

func (s *SignerTestSuite) TestLoadSigner(c *gc.C) {
	key, err := crypto.GenerateKey()
	c.Assert(err, gc.IsNil)
	path := filepath.Join(c.MkDir(), "localkey.pki")
	c.Assert(crypto.SaveECDSA(path, key), gc.IsNil)

	signer, err := workflow.LoadSigner(path)
	c.Assert(err, gc.IsNil)
	c.Assert(signer.Author(), gc.Equals, workflow.NewSigner(key).Author())

	_, err = workflow.LoadSigner(filepath.Join(c.MkDir(), "missing.pki"))
	c.Assert(err, gc.ErrorMatches, "reading key file .*")
}
