package resulttree

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

// Kind identifies the variant of a Tree.
type Kind uint8

const (
	// KindRoot is the top of the tree; its hash is the submitted job hash.
	KindRoot Kind = iota

	// KindNode is an intermediate transaction spawned by the job.
	KindNode

	// KindLeaf is a completed unit whose hash can be fetched.
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "Root"
	case KindNode:
		return "Node"
	case KindLeaf:
		return "Leaf"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Tree is a snapshot of the completion lineage of a job as reported by the
// network. Leaves never have children.
type Tree struct {
	Kind     Kind
	Hash     common.Hash
	Children []*Tree
}

// Root returns a root tree with the given children.
func Root(hash common.Hash, children ...*Tree) *Tree {
	return &Tree{Kind: KindRoot, Hash: hash, Children: children}
}

// Node returns an intermediate tree with the given children.
func Node(hash common.Hash, children ...*Tree) *Tree {
	return &Tree{Kind: KindNode, Hash: hash, Children: children}
}

// Leaf returns a leaf tree.
func Leaf(hash common.Hash) *Tree {
	return &Tree{Kind: KindLeaf, Hash: hash}
}

// Walk visits t in pre-order: a tree before its children, children left to
// right. Walk stops as soon as fn returns false and reports whether the
// traversal ran to completion.
func Walk(t *Tree, fn func(t *Tree, depth int) bool) bool {
	return walk(t, 0, fn)
}

func walk(t *Tree, depth int, fn func(*Tree, int) bool) bool {
	if t == nil {
		return true
	}
	if !fn(t, depth) {
		return false
	}
	for _, child := range t.Children {
		if !walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}

// FirstLeaf returns the hash of the leftmost leaf in pre-order. The second
// return value is false when the tree holds no leaves yet.
func FirstLeaf(t *Tree) (common.Hash, bool) {
	var (
		leaf  common.Hash
		found bool
	)
	Walk(t, func(n *Tree, _ int) bool {
		if n.Kind == KindLeaf {
			leaf, found = n.Hash, true
			return false
		}
		return true
	})
	return leaf, found
}

// Leaves returns the hashes of all leaves in pre-order.
func Leaves(t *Tree) []common.Hash {
	var leaves []common.Hash
	Walk(t, func(n *Tree, _ int) bool {
		if n.Kind == KindLeaf {
			leaves = append(leaves, n.Hash)
		}
		return true
	})
	return leaves
}

// Format writes one line per tree entry to w, indented with one tab per
// level below the root.
func Format(w io.Writer, t *Tree) error {
	var err error
	Walk(t, func(n *Tree, depth int) bool {
		_, err = fmt.Fprintf(w, "%s%s: %s\n", strings.Repeat("\t", depth), n.Kind, workflow.HashHex(n.Hash))
		return err == nil
	})
	return err
}

type wireBranch struct {
	Children []*Tree `json:"children"`
	Hash     string  `json:"hash"`
}

type wireLeaf struct {
	Hash string `json:"hash"`
}

type wireTree struct {
	Root *wireBranch `json:"Root,omitempty"`
	Node *wireBranch `json:"Node,omitempty"`
	Leaf *wireLeaf   `json:"Leaf,omitempty"`
}

// MarshalJSON encodes t in the network's externally tagged layout, e.g.
// {"Leaf":{"hash":"..."}}.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var w wireTree
	children := t.Children
	if children == nil {
		children = []*Tree{}
	}
	switch t.Kind {
	case KindRoot:
		w.Root = &wireBranch{Children: children, Hash: workflow.HashHex(t.Hash)}
	case KindNode:
		w.Node = &wireBranch{Children: children, Hash: workflow.HashHex(t.Hash)}
	case KindLeaf:
		w.Leaf = &wireLeaf{Hash: workflow.HashHex(t.Hash)}
	default:
		return nil, xerrors.Errorf("encode tree: %w: unknown kind %v", workflow.ErrValidation, t.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the externally tagged layout produced by the network.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var w wireTree
	if err := json.Unmarshal(data, &w); err != nil {
		return xerrors.Errorf("decode tree: %w: %v", workflow.ErrValidation, err)
	}

	var (
		kind     Kind
		rawHash  string
		children []*Tree
	)
	switch {
	case w.Root != nil:
		kind, rawHash, children = KindRoot, w.Root.Hash, w.Root.Children
	case w.Node != nil:
		kind, rawHash, children = KindNode, w.Node.Hash, w.Node.Children
	case w.Leaf != nil:
		kind, rawHash = KindLeaf, w.Leaf.Hash
	default:
		return xerrors.Errorf("decode tree: %w: expected one of Root, Node or Leaf", workflow.ErrValidation)
	}

	hash, err := workflow.ParseHash(rawHash)
	if err != nil {
		return xerrors.Errorf("decode tree: %w", err)
	}
	if len(children) == 0 {
		children = nil
	}
	*t = Tree{Kind: kind, Hash: hash, Children: children}
	return nil
}
