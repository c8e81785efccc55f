package fileserver

import (
	"context"
	"io/ioutil"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/fileserver"
)

const defaultResultsPerPage = 30

// Config encapsulates the settings for configuring the file server service.
type Config struct {
	// The directory whose files are published to the network.
	WorkDir string

	// An API for listing recorded jobs.
	JobStoreAPI fileserver.JobStoreAPI

	// The address to listen for incoming requests.
	ListenAddr string

	// The number of jobs to return per page. If not specified, a default
	// value of 30 results per page will be used instead.
	ResultsPerPage int

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (cfg *Config) validate() error {
	var err error
	if cfg.WorkDir == "" {
		err = multierror.Append(err, xerrors.Errorf("work directory has not been specified"))
	}
	if cfg.ListenAddr == "" {
		err = multierror.Append(err, xerrors.Errorf("listen address has not been specified"))
	}
	if cfg.ResultsPerPage <= 0 {
		cfg.ResultsPerPage = defaultResultsPerPage
	}
	if cfg.JobStoreAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("jobstore API has not been provided"))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}

// Service publishes the work directory for the lifetime of its context.
type Service struct {
	cfg    Config
	server *fileserver.FileServer
}

// NewService creates a new file server service instance with the specified config.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, xerrors.Errorf("file server service: config validation failed: %w", err)
	}

	server, err := fileserver.NewFileServer(fileserver.Config{
		WorkDir:        cfg.WorkDir,
		JobStoreAPI:    cfg.JobStoreAPI,
		ListenAddr:     cfg.ListenAddr,
		ResultsPerPage: cfg.ResultsPerPage,
		Logger:         cfg.Logger,
	})
	if err != nil {
		return nil, xerrors.Errorf("file server service: new file server creation failed: %w", err)
	}

	return &Service{cfg: cfg, server: server}, nil
}

// Name implements service.Service
func (svc *Service) Name() string { return "file-server" }

// Run implements service.Service
func (svc *Service) Run(ctx context.Context) error {
	svc.cfg.Logger.WithFields(logrus.Fields{
		"addr":     svc.cfg.ListenAddr,
		"work_dir": svc.cfg.WorkDir,
	}).Info("starting file server")
	return svc.server.Serve(ctx)
}
