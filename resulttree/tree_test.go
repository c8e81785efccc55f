package resulttree_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
	"pgregory.net/rapid"

	"github.com/0xEigenLabs/eigen-estark-gevulot/resulttree"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

var _ = gc.Suite(new(TreeTestSuite))

func Test(t *testing.T) {
	// Run all gocheck test-suites
	gc.TestingT(t)
}

type TreeTestSuite struct{}

func (s *TreeTestSuite) TestFirstLeafExploresLeftBranchFirst(c *gc.C) {
	h0, h1, h2, h3 := hash(0), hash(1), hash(2), hash(3)
	tree := resulttree.Root(h0,
		resulttree.Node(h1, resulttree.Leaf(h2)),
		resulttree.Leaf(h3),
	)

	leaf, found := resulttree.FirstLeaf(tree)
	c.Assert(found, gc.Equals, true)
	c.Assert(leaf, gc.Equals, h2)
	c.Assert(resulttree.Leaves(tree), gc.DeepEquals, []common.Hash{h2, h3})
}

func (s *TreeTestSuite) TestFirstLeafWithoutLeaves(c *gc.C) {
	tree := resulttree.Root(hash(0), resulttree.Node(hash(1)), resulttree.Node(hash(2)))
	_, found := resulttree.FirstLeaf(tree)
	c.Assert(found, gc.Equals, false)

	_, found = resulttree.FirstLeaf(nil)
	c.Assert(found, gc.Equals, false)
}

func (s *TreeTestSuite) TestFormat(c *gc.C) {
	tree := resulttree.Root(hash(0),
		resulttree.Node(hash(1), resulttree.Leaf(hash(2))),
	)

	var buf bytes.Buffer
	c.Assert(resulttree.Format(&buf, tree), gc.IsNil)
	c.Assert(buf.String(), gc.Equals,
		"Root: "+workflow.HashHex(hash(0))+"\n"+
			"\tNode: "+workflow.HashHex(hash(1))+"\n"+
			"\t\tLeaf: "+workflow.HashHex(hash(2))+"\n",
	)
}

func (s *TreeTestSuite) TestDecodeNetworkTree(c *gc.C) {
	doc := `{"Root":{"children":[{"Node":{"children":[{"Leaf":{"hash":"` + workflow.HashHex(hash(2)) + `"}}],"hash":"` +
		workflow.HashHex(hash(1)) + `"}},{"Leaf":{"hash":"` + workflow.HashHex(hash(3)) + `"}}],"hash":"` + workflow.HashHex(hash(0)) + `"}}`

	var tree resulttree.Tree
	c.Assert(json.Unmarshal([]byte(doc), &tree), gc.IsNil)
	c.Assert(tree.Kind, gc.Equals, resulttree.KindRoot)
	c.Assert(tree.Hash, gc.Equals, hash(0))

	leaf, found := resulttree.FirstLeaf(&tree)
	c.Assert(found, gc.Equals, true)
	c.Assert(leaf, gc.Equals, hash(2))
}

func (s *TreeTestSuite) TestDecodeRejectsMalformedTrees(c *gc.C) {
	for _, doc := range []string{
		`{}`,
		`{"Branch":{"hash":"00"}}`,
		`{"Leaf":{"hash":"not-a-hash"}}`,
		`[]`,
	} {
		var tree resulttree.Tree
		err := json.Unmarshal([]byte(doc), &tree)
		c.Assert(err, gc.NotNil, gc.Commentf("doc %s", doc))
		c.Assert(xerrors.Is(err, workflow.ErrValidation), gc.Equals, true, gc.Commentf("doc %s", doc))
	}
}

func TestTraversalIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := genTree(3).Draw(t, "tree")

		data, err := json.Marshal(tree)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		var refetched resulttree.Tree
		if err := json.Unmarshal(data, &refetched); err != nil {
			t.Fatalf("decode: %v", err)
		}

		leaf1, found1 := resulttree.FirstLeaf(tree)
		leaf2, found2 := resulttree.FirstLeaf(&refetched)
		if found1 != found2 || leaf1 != leaf2 {
			t.Fatalf("first leaf changed after re-fetch: %x/%v vs %x/%v", leaf1, found1, leaf2, found2)
		}

		leaves := resulttree.Leaves(tree)
		if found1 != (len(leaves) > 0) {
			t.Fatalf("found=%v but tree has %d leaves", found1, len(leaves))
		}
		if found1 && leaves[0] != leaf1 {
			t.Fatalf("first leaf %x is not the leftmost leaf %x", leaf1, leaves[0])
		}
	})
}

func genTree(depth int) *rapid.Generator[*resulttree.Tree] {
	return rapid.Custom(func(t *rapid.T) *resulttree.Tree {
		root := resulttree.Root(genHash().Draw(t, "root"))
		root.Children = genChildren(t, depth)
		return root
	})
}

func genChildren(t *rapid.T, depth int) []*resulttree.Tree {
	if depth == 0 {
		return nil
	}
	n := rapid.IntRange(0, 3).Draw(t, "children")
	children := make([]*resulttree.Tree, 0, n)
	for i := 0; i < n; i++ {
		h := genHash().Draw(t, "hash")
		if rapid.Bool().Draw(t, "leaf") {
			children = append(children, resulttree.Leaf(h))
			continue
		}
		node := resulttree.Node(h)
		node.Children = genChildren(t, depth-1)
		children = append(children, node)
	}
	return children
}

func genHash() *rapid.Generator[common.Hash] {
	return rapid.Custom(func(t *rapid.T) common.Hash {
		return common.BytesToHash(rapid.SliceOfN(rapid.Byte(), common.HashLength, common.HashLength).Draw(t, "bytes"))
	})
}

func hash(i byte) common.Hash {
	return common.BytesToHash([]byte{0xab, i})
}
