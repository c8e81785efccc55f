package poller

import (
	"context"
	"io/ioutil"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/resulttree"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

const (
	// DefaultInitialDelay is the time waited before the first tree query.
	DefaultInitialDelay = 250 * time.Second

	// DefaultPollInterval is the time waited between tree queries.
	DefaultPollInterval = 20 * time.Second

	// DefaultMaxRetries is the number of queries after the first one.
	DefaultMaxRetries = 15

	// NoInitialDelay makes the first tree query immediately.
	NoInitialDelay time.Duration = -1

	// NoRetries limits a poll to a single tree query.
	NoRetries = -1
)

// TreeAPI is implemented by objects that can fetch the result tree of a
// transaction.
type TreeAPI interface {
	GetTxTree(ctx context.Context, hash common.Hash) (*resulttree.Tree, error)
}

// Outcome is the terminal state of a poll. A pending outcome is a normal
// result; the caller decides whether to keep waiting or give up.
type Outcome struct {
	Ready bool
	Leaf  common.Hash
}

// Pending returns an outcome without a leaf.
func Pending() Outcome { return Outcome{} }

// Ready returns an outcome carrying the given leaf.
func Ready(leaf common.Hash) Outcome { return Outcome{Ready: true, Leaf: leaf} }

// Config encapsulates the settings for creating a new Poller.
type Config struct {
	// An API for querying result trees.
	TreeAPI TreeAPI

	// A clock instance for waiting between queries. If not specified, the
	// default wall-clock will be used instead.
	Clock clock.Clock

	// The time to wait before the first query. Zero selects
	// DefaultInitialDelay; use NoInitialDelay to query immediately.
	InitialDelay time.Duration

	// The time between subsequent queries. Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// The number of queries issued after the first one before giving up.
	// Zero selects DefaultMaxRetries; use NoRetries for a single query.
	MaxRetries int

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.TreeAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("tree API has not been provided"))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	switch {
	case cfg.InitialDelay == NoInitialDelay:
		cfg.InitialDelay = 0
	case cfg.InitialDelay < 0:
		err = multierror.Append(err, xerrors.Errorf("invalid value for initial delay"))
	case cfg.InitialDelay == 0:
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.PollInterval < 0 {
		err = multierror.Append(err, xerrors.Errorf("invalid value for poll interval"))
	} else if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	switch {
	case cfg.MaxRetries == NoRetries:
		cfg.MaxRetries = 0
	case cfg.MaxRetries < 0:
		err = multierror.Append(err, xerrors.Errorf("invalid value for max retries"))
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Poller waits for a submitted job to show up as a leaf of its result tree.
type Poller struct {
	cfg Config
}

// NewPoller creates a new Poller with the specified config.
func NewPoller(cfg Config) (*Poller, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("poller: config validation failed: %w", err)
	}
	return &Poller{cfg: cfg}, nil
}

// Poll waits for the initial delay, then queries the result tree of hash
// up to MaxRetries+1 times, PollInterval apart. It returns the first leaf
// in pre-order as soon as one appears. Failed queries are logged and count
// against the retry budget. Running out of retries yields a pending outcome
// and no error.
//
// A positive expected duration replaces the configured initial delay.
// Poll only returns an error if ctx is cancelled.
func (p *Poller) Poll(ctx context.Context, hash common.Hash, expected time.Duration) (Outcome, error) {
	logger := p.cfg.Logger.WithField("job_hash", workflow.HashHex(hash))

	delay := p.cfg.InitialDelay
	if expected > 0 {
		delay = expected
	}
	logger.WithField("initial_delay", delay.String()).Info("waiting for job to complete")
	if err := p.wait(ctx, delay); err != nil {
		return Pending(), err
	}

	for attempt := 0; ; attempt++ {
		tree, err := p.cfg.TreeAPI.GetTxTree(ctx, hash)
		switch {
		case err != nil:
			pollAttempts.WithLabelValues("error").Inc()
			logger.WithError(err).WithField("attempt", attempt).Warn("querying result tree failed")
		default:
			pollAttempts.WithLabelValues("ok").Inc()
			if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
				var dump strings.Builder
				if resulttree.Format(&dump, tree) == nil {
					logger.WithField("tree", dump.String()).Debug("result tree snapshot")
				}
			}
			if leaf, found := resulttree.FirstLeaf(tree); found {
				logger.WithField("leaf_hash", workflow.HashHex(leaf)).Info("job completed")
				return Ready(leaf), nil
			}
			logger.WithField("attempt", attempt).Debug("result tree has no leaf yet")
		}

		if attempt == p.cfg.MaxRetries {
			break
		}
		if err := p.wait(ctx, p.cfg.PollInterval); err != nil {
			return Pending(), err
		}
	}

	logger.WithField("retries", p.cfg.MaxRetries).Warn("gave up waiting for job result")
	return Pending(), nil
}

func (p *Poller) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.cfg.Clock.After(d):
		return nil
	}
}
