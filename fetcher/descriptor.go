package fetcher

import (
	"encoding/json"

	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

// FileRef points at one output file produced by the network.
type FileRef struct {
	URL      string `json:"url"`
	Checksum string `json:"checksum"`
	VMPath   string `json:"vm_path"`
}

// Verification is the payload of a completed verification transaction.
type Verification struct {
	Parent       string    `json:"parent"`
	Verifier     string    `json:"verifier"`
	Verification string    `json:"verification"`
	Files        []FileRef `json:"files"`
}

// Payload wraps the verification payload the way the network tags it.
type Payload struct {
	Verification *Verification `json:"Verification"`
}

// Descriptor is the transaction stored under a result tree leaf. It lists
// the output files of the job in order.
type Descriptor struct {
	Author    string  `json:"author"`
	Hash      string  `json:"hash"`
	Payload   Payload `json:"payload"`
	Nonce     uint64  `json:"nonce"`
	Signature string  `json:"signature"`
}

// Files returns the output files referenced by d.
func (d *Descriptor) Files() []FileRef {
	if d.Payload.Verification == nil {
		return nil
	}
	return d.Payload.Verification.Files
}

// ParseDescriptor decodes a result descriptor. Transactions without a
// verification payload are rejected.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	desc := new(Descriptor)
	if err := json.Unmarshal(data, desc); err != nil {
		return nil, xerrors.Errorf("parse descriptor: %w: %v", workflow.ErrValidation, err)
	}
	if desc.Payload.Verification == nil {
		return nil, xerrors.Errorf("parse descriptor: %w: payload carries no verification", workflow.ErrValidation)
	}
	return desc, nil
}
