package nodeclient

//go:generate mockgen -package mocks -destination mocks/mocks.go github.com/0xEigenLabs/eigen-estark-gevulot/nodeclient NodeClient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/resulttree"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

// NodeClient is implemented by objects that talk to a proving network node.
type NodeClient interface {
	// SendTransaction hands a signed job to the node.
	SendTransaction(ctx context.Context, job *workflow.Job) error

	// GetTransaction fetches the transaction stored under hash.
	GetTransaction(ctx context.Context, hash common.Hash) (*TxRecord, error)

	// GetTxTree fetches a snapshot of the result tree rooted at hash.
	GetTxTree(ctx context.Context, hash common.Hash) (*resulttree.Tree, error)
}

// TxRecord is a transaction as stored by the node.
type TxRecord struct {
	Author    string          `json:"author"`
	Hash      string          `json:"hash"`
	Payload   json.RawMessage `json:"payload"`
	Nonce     uint64          `json:"nonce"`
	Signature string          `json:"signature"`

	// Raw holds the undecoded transaction document.
	Raw json.RawMessage `json:"-"`
}

// Config encapsulates the configuration options for creating a new NodeClient.
type Config struct {
	// JSON-RPC endpoint of the node, e.g. http://localhost:9944.
	Endpoint string

	// Upper bound for a single request. Zero means no bound besides the
	// caller's context.
	RequestTimeout time.Duration
}

func (cfg *Config) validate() error {
	var err error
	if cfg.Endpoint == "" {
		err = multierror.Append(err, xerrors.Errorf("node endpoint has not been provided"))
	}
	if cfg.RequestTimeout < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for request timeout"))
	}
	return err
}

// NewNodeClient dials the node at cfg.Endpoint.
func NewNodeClient(ctx context.Context, cfg Config) (NodeClient, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("node client: config validation failed: %w", err)
	}

	client, err := rpc.DialContext(ctx, cfg.Endpoint)
	if err != nil {
		return nil, xerrors.Errorf("dialling node: %w", err)
	}
	return &nodeClient{client: client, timeout: cfg.RequestTimeout}, nil
}

// Implements NodeClient.
type nodeClient struct {
	client  *rpc.Client
	timeout time.Duration
}

func (n *nodeClient) SendTransaction(ctx context.Context, job *workflow.Job) error {
	var res json.RawMessage
	if err := n.call(ctx, &res, "sendTransaction", job); err != nil {
		return xerrors.Errorf("send transaction: %w", err)
	}
	if _, err := unwrap(res); err != nil {
		return xerrors.Errorf("send transaction: %w", err)
	}
	return nil
}

func (n *nodeClient) GetTransaction(ctx context.Context, hash common.Hash) (*TxRecord, error) {
	var res json.RawMessage
	if err := n.call(ctx, &res, "getTransaction", workflow.HashHex(hash)); err != nil {
		return nil, xerrors.Errorf("get transaction: %w", err)
	}
	doc, err := unwrap(res)
	if err != nil {
		return nil, xerrors.Errorf("get transaction: %w", err)
	}

	rec := new(TxRecord)
	if err = json.Unmarshal(doc, rec); err != nil {
		return nil, xerrors.Errorf("get transaction: %w: %v", workflow.ErrValidation, err)
	}
	rec.Raw = doc
	return rec, nil
}

func (n *nodeClient) GetTxTree(ctx context.Context, hash common.Hash) (*resulttree.Tree, error) {
	var res json.RawMessage
	if err := n.call(ctx, &res, "getTransactionTree", workflow.HashHex(hash)); err != nil {
		return nil, xerrors.Errorf("get tx tree: %w", err)
	}
	doc, err := unwrap(res)
	if err != nil {
		return nil, xerrors.Errorf("get tx tree: %w", err)
	}

	tree := new(resulttree.Tree)
	if err = json.Unmarshal(doc, tree); err != nil {
		return nil, xerrors.Errorf("get tx tree: %w", err)
	}
	return tree, nil
}

func (n *nodeClient) call(ctx context.Context, res interface{}, method string, args ...interface{}) error {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	return n.client.CallContext(ctx, res, method, args...)
}

// The node wraps results as {"Ok": value} or {"Err": reason}. Bare values
// are passed through unchanged.
func unwrap(res json.RawMessage) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(res, &envelope); err != nil || len(envelope) != 1 {
		return res, nil
	}
	if reason, ok := envelope["Err"]; ok {
		return nil, xerrors.Errorf("node returned an error: %s", string(reason))
	}
	if value, ok := envelope["Ok"]; ok {
		return value, nil
	}
	return res, nil
}
