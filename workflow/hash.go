package workflow

import (
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/xerrors"
)

// ParseHash decodes a 32-byte hash given as 64 hex characters, with or
// without a 0x prefix.
func ParseHash(s string) (common.Hash, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*common.HashLength {
		return common.Hash{}, xerrors.Errorf("parse hash %q: %w: expected %d hex characters, got %d", s, ErrValidation, 2*common.HashLength, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return common.Hash{}, xerrors.Errorf("parse hash %q: %w: %v", s, ErrValidation, err)
	}
	return common.BytesToHash(b), nil
}

// HashHex encodes h the way the network prints hashes: lowercase hex
// without a prefix.
func HashHex(h common.Hash) string {
	return hex.EncodeToString(h[:])
}

// Checksum returns the keccak256 digest of everything read from r. Nodes
// verify input files with the same digest.
func Checksum(r io.Reader) (common.Hash, error) {
	hasher := crypto.NewKeccakState()
	if _, err := io.Copy(hasher, r); err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(hasher.Sum(nil)), nil
}

// FileChecksum returns the keccak256 digest of the file at path.
func FileChecksum(path string) (common.Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return common.Hash{}, xerrors.Errorf("file checksum: %w", err)
	}
	defer func() { _ = f.Close() }()

	sum, err := Checksum(f)
	if err != nil {
		return common.Hash{}, xerrors.Errorf("file checksum %s: %w", path, err)
	}
	return sum, nil
}
