package submission

import (
	"context"
	"io/ioutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/nodeclient"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

// NodeAPI is implemented by objects that can store a transaction on the
// network and read it back.
type NodeAPI interface {
	SendTransaction(ctx context.Context, job *workflow.Job) error
	GetTransaction(ctx context.Context, hash common.Hash) (*nodeclient.TxRecord, error)
}

// Config encapsulates the settings for creating a new Submitter.
type Config struct {
	// The node the jobs are sent to.
	NodeAPI NodeAPI

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.NodeAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("node API has not been provided"))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Submitter sends signed jobs to the network and confirms that the node
// accepted them.
type Submitter struct {
	cfg Config
}

// NewSubmitter creates a new Submitter with the specified config.
func NewSubmitter(cfg Config) (*Submitter, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("submitter: config validation failed: %w", err)
	}
	return &Submitter{cfg: cfg}, nil
}

// Submit sends job to the node and immediately reads it back by hash. The
// returned hash is the one the node reports, which is guaranteed to equal
// job.Hash. Submit does not retry: transport failures are wrapped in
// workflow.ErrNetwork, an undecodable read-back keeps its
// workflow.ErrValidation and a read-back mismatch is wrapped in
// workflow.ErrConsistency.
func (s *Submitter) Submit(ctx context.Context, job *workflow.Job) (common.Hash, error) {
	logger := s.cfg.Logger.WithField("job_hash", workflow.HashHex(job.Hash))

	if err := s.cfg.NodeAPI.SendTransaction(ctx, job); err != nil {
		return common.Hash{}, xerrors.Errorf("submit: %w: %v", workflow.ErrNetwork, err)
	}
	logger.Debug("transaction sent")

	rec, err := s.cfg.NodeAPI.GetTransaction(ctx, job.Hash)
	if err != nil {
		if xerrors.Is(err, workflow.ErrValidation) {
			return common.Hash{}, xerrors.Errorf("submit: read back: %w", err)
		}
		return common.Hash{}, xerrors.Errorf("submit: read back: %w: %v", workflow.ErrNetwork, err)
	}

	stored, err := workflow.ParseHash(rec.Hash)
	if err != nil || stored != job.Hash {
		logger.WithField("stored_hash", rec.Hash).Error("node stored a different transaction")
		return common.Hash{}, xerrors.Errorf("submit: %w: sent %s, node returned %q", workflow.ErrConsistency, workflow.HashHex(job.Hash), rec.Hash)
	}

	logger.Info("transaction accepted")
	return stored, nil
}
