package nodeclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	gc "gopkg.in/check.v1"

	"github.com/0xEigenLabs/eigen-estark-gevulot/nodeclient"
	"github.com/0xEigenLabs/eigen-estark-gevulot/resulttree"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

var _ = gc.Suite(new(NodeClientTestSuite))

func Test(t *testing.T) {
	// Run all gocheck test-suites
	gc.TestingT(t)
}

type NodeClientTestSuite struct {
	node   *fakeNode
	srv    *httptest.Server
	client nodeclient.NodeClient
	signer *workflow.Signer
}

func (s *NodeClientTestSuite) SetUpTest(c *gc.C) {
	s.node = &fakeNode{txs: make(map[string]json.RawMessage), trees: make(map[string]json.RawMessage)}
	s.srv = httptest.NewServer(s.node)

	var err error
	s.client, err = nodeclient.NewNodeClient(context.TODO(), nodeclient.Config{Endpoint: s.srv.URL})
	c.Assert(err, gc.IsNil)

	key, err := crypto.GenerateKey()
	c.Assert(err, gc.IsNil)
	s.signer = workflow.NewSigner(key)
}

func (s *NodeClientTestSuite) TearDownTest(c *gc.C) {
	s.srv.Close()
}

func (s *NodeClientTestSuite) TestConfigValidation(c *gc.C) {
	_, err := nodeclient.NewNodeClient(context.TODO(), nodeclient.Config{})
	c.Assert(err, gc.ErrorMatches, "(?ms).*node endpoint has not been provided.*")

	_, err = nodeclient.NewNodeClient(context.TODO(), nodeclient.Config{Endpoint: s.srv.URL, RequestTimeout: -1})
	c.Assert(err, gc.ErrorMatches, "(?ms).*invalid value for request timeout.*")
}

func (s *NodeClientTestSuite) TestSendAndReadBack(c *gc.C) {
	job, err := s.signer.Sign(workflow.Workflow{
		Steps: []workflow.Step{{Program: common.HexToHash("aa"), Args: []string{"--task_name", "lr"}}},
	}, 1)
	c.Assert(err, gc.IsNil)

	c.Assert(s.client.SendTransaction(context.TODO(), job), gc.IsNil)

	rec, err := s.client.GetTransaction(context.TODO(), job.Hash)
	c.Assert(err, gc.IsNil)
	c.Assert(rec.Hash, gc.Equals, workflow.HashHex(job.Hash))
	c.Assert(rec.Author, gc.Equals, s.signer.Author())
	c.Assert(rec.Nonce, gc.Equals, uint64(1))

	decoded := new(workflow.Job)
	c.Assert(json.Unmarshal(rec.Raw, decoded), gc.IsNil)
	c.Assert(decoded.Workflow, gc.DeepEquals, job.Workflow)
}

func (s *NodeClientTestSuite) TestGetUnknownTransaction(c *gc.C) {
	_, err := s.client.GetTransaction(context.TODO(), common.HexToHash("ff"))
	c.Assert(err, gc.ErrorMatches, `get transaction: node returned an error: .*not found.*`)
}

func (s *NodeClientTestSuite) TestGetTxTree(c *gc.C) {
	root, leaf := common.HexToHash("01"), common.HexToHash("02")
	doc, err := json.Marshal(resulttree.Root(root, resulttree.Node(common.HexToHash("03")), resulttree.Leaf(leaf)))
	c.Assert(err, gc.IsNil)
	s.node.setTree(workflow.HashHex(root), doc)

	tree, err := s.client.GetTxTree(context.TODO(), root)
	c.Assert(err, gc.IsNil)
	c.Assert(tree.Kind, gc.Equals, resulttree.KindRoot)
	got, found := resulttree.FirstLeaf(tree)
	c.Assert(found, gc.Equals, true)
	c.Assert(got, gc.Equals, leaf)
}

func (s *NodeClientTestSuite) TestTransportError(c *gc.C) {
	s.srv.Close()
	_, err := s.client.GetTxTree(context.TODO(), common.HexToHash("01"))
	c.Assert(err, gc.ErrorMatches, "get tx tree: .*")
}

// fakeNode answers the node's JSON-RPC methods from in-memory maps.
type fakeNode struct {
	mu    sync.Mutex
	txs   map[string]json.RawMessage
	trees map[string]json.RawMessage
}

func (n *fakeNode) setTree(hash string, doc json.RawMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.trees[hash] = doc
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	result := n.dispatch(req)
	n.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
}

func (n *fakeNode) dispatch(req rpcRequest) interface{} {
	switch req.Method {
	case "sendTransaction":
		var tx struct {
			Hash string `json:"hash"`
		}
		if err := json.Unmarshal(req.Params[0], &tx); err != nil {
			return map[string]string{"Err": err.Error()}
		}
		n.txs[tx.Hash] = req.Params[0]
		return map[string]interface{}{"Ok": nil}
	case "getTransaction", "getTransactionTree":
		var hash string
		_ = json.Unmarshal(req.Params[0], &hash)
		store := n.txs
		if req.Method == "getTransactionTree" {
			store = n.trees
		}
		if doc, ok := store[hash]; ok {
			return map[string]json.RawMessage{"Ok": doc}
		}
		return map[string]string{"Err": "not found"}
	}
	return map[string]string{"Err": "unknown method"}
}
