package fileserver

import (
	"io/ioutil"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// Config encapsulates the settings for configuring a file server instance.
type Config struct {
	// The directory whose files are published to the network.
	WorkDir string

	// An API for listing the jobs recorded for a task.
	JobStoreAPI JobStoreAPI

	// The address to listen for incoming requests.
	ListenAddr string

	// The number of jobs to return per page.
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
		err = multierror.Append(err, xerrors.Errorf("results per page has not been specified"))
	}
	if cfg.JobStoreAPI == nil {
		err = multierror.Append(err, xerrors.Errorf("jobstore API has not been provided"))
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(&logrus.Logger{Out: ioutil.Discard})
	}
	return err
}
