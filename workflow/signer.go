package workflow

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/xerrors"
)

// Signer turns workflows into signed, content-identified jobs.
type Signer struct {
	key    *ecdsa.PrivateKey
	author string
}

// NewSigner returns a Signer that signs with key.
func NewSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:    key,
		author: hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey)),
	}
}

// LoadSigner reads a hex-encoded secp256k1 private key from path.
func LoadSigner(path string) (*Signer, error) {
	key, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, xerrors.Errorf("reading key file %s: %w", path, err)
	}
	return NewSigner(key), nil
}

// Author returns the hex encoded public key that identifies the signer on
// the network.
func (s *Signer) Author() string { return s.author }

// Sign hashes and signs wf. The same workflow, author and nonce always
// produce the same job hash.
func (s *Signer) Sign(wf Workflow, nonce uint64) (*Job, error) {
	hash, err := contentHash(s.author, wf, nonce)
	if err != nil {
		return nil, xerrors.Errorf("sign: %w", err)
	}
	sig, err := crypto.Sign(hash[:], s.key)
	if err != nil {
		return nil, xerrors.Errorf("sign: %w", err)
	}

	return &Job{
		Hash:      hash,
		Author:    s.author,
		Workflow:  cloneWorkflow(wf),
		Nonce:     nonce,
		Signature: hex.EncodeToString(sig),
	}, nil
}

// VerifyJob checks that job.Hash matches its content and that the
// signature was produced by job.Author.
func VerifyJob(job *Job) error {
	hash, err := contentHash(job.Author, job.Workflow, job.Nonce)
	if err != nil {
		return xerrors.Errorf("verify job: %w", err)
	}
	if hash != job.Hash {
		return xerrors.Errorf("verify job: %w: hash %s does not match content hash %s", ErrValidation, HashHex(job.Hash), HashHex(hash))
	}
	sig, err := hex.DecodeString(job.Signature)
	if err != nil {
		return xerrors.Errorf("verify job: %w: bad signature encoding: %v", ErrValidation, err)
	}
	pub, err := crypto.SigToPub(hash[:], sig)
	if err != nil {
		return xerrors.Errorf("verify job: %w: %v", ErrValidation, err)
	}
	author, err := hex.DecodeString(job.Author)
	if err != nil || !bytes.Equal(crypto.FromECDSAPub(pub), author) {
		return xerrors.Errorf("verify job: %w: signature does not belong to author", ErrValidation)
	}
	return nil
}

func contentHash(author string, wf Workflow, nonce uint64) (common.Hash, error) {
	wire, err := toWireWorkflow(wf)
	if err != nil {
		return common.Hash{}, err
	}
	data, err := json.Marshal(signedContent{
		Author:  author,
		Payload: wirePayload{Run: &wireRun{Workflow: wire}},
		Nonce:   nonce,
	})
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(data), nil
}

func cloneWorkflow(wf Workflow) Workflow {
	steps := make([]Step, len(wf.Steps))
	for i, step := range wf.Steps {
		steps[i] = Step{
			Program: step.Program,
			Args:    append([]string(nil), step.Args...),
			Inputs:  append([]DataDependency(nil), step.Inputs...),
		}
	}
	return Workflow{Steps: steps}
}
