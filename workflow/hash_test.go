package workflow_test

import (
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"

	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

var _ = gc.Suite(new(HashTestSuite))

type HashTestSuite struct{}

func (s *HashTestSuite) TestParseHash(c *gc.C) {
	plain := "735dd3a758ca4a7ddb17965a016068e789424eced65727549014f159e929cfa4"

	h, err := workflow.ParseHash(plain)
	c.Assert(err, gc.IsNil)
	c.Assert(workflow.HashHex(h), gc.Equals, plain)

	prefixed, err := workflow.ParseHash("0x" + plain)
	c.Assert(err, gc.IsNil)
	c.Assert(prefixed, gc.Equals, h)
}

func (s *HashTestSuite) TestParseMalformedHash(c *gc.C) {
	for _, in := range []string{
		"",
		"abcd",
		strings.Repeat("z", 64),
		strings.Repeat("a", 66),
	} {
		_, err := workflow.ParseHash(in)
		c.Assert(err, gc.NotNil, gc.Commentf("input %q", in))
		c.Assert(xerrors.Is(err, workflow.ErrValidation), gc.Equals, true, gc.Commentf("input %q", in))
	}
}

func (s *HashTestSuite) TestFileChecksum(c *gc.C) {
	path := filepath.Join(c.MkDir(), "lr.asm")
	content := []byte("addi x1, x0, 1\n")
	c.Assert(ioutil.WriteFile(path, content, 0644), gc.IsNil)

	sum, err := workflow.FileChecksum(path)
	c.Assert(err, gc.IsNil)
	c.Assert(sum, gc.Equals, crypto.Keccak256Hash(content))

	_, err = workflow.FileChecksum(filepath.Join(c.MkDir(), "missing"))
	c.Assert(err, gc.NotNil)
}
