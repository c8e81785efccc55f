package main

import (
	"context"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/artifactstore"
	"github.com/0xEigenLabs/eigen-estark-gevulot/fetcher"
	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
	cdbjs "github.com/0xEigenLabs/eigen-estark-gevulot/jobstore/cdb"
	memjs "github.com/0xEigenLabs/eigen-estark-gevulot/jobstore/memory"
	"github.com/0xEigenLabs/eigen-estark-gevulot/nodeclient"
	"github.com/0xEigenLabs/eigen-estark-gevulot/poller"
	"github.com/0xEigenLabs/eigen-estark-gevulot/prover"
	"github.com/0xEigenLabs/eigen-estark-gevulot/submission"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

// setupProver wires the network collaborators of a job lifecycle from the
// global flags.
func setupProver(ctx context.Context, appCtx *cli.Context, store jobstore.Store) (*prover.Prover, error) {
	nodeCli, err := nodeclient.NewNodeClient(ctx, nodeclient.Config{
		Endpoint:       appCtx.GlobalString("json-url"),
		RequestTimeout: appCtx.GlobalDuration("rpc-timeout"),
	})
	if err != nil {
		return nil, err
	}

	signer, err := workflow.LoadSigner(appCtx.GlobalString("key-file"))
	if err != nil {
		return nil, err
	}
	logger.WithField("author", signer.Author()).Info("loaded signing key")

	proveProgram, err := workflow.ParseHash(appCtx.GlobalString("prover-hash"))
	if err != nil {
		return nil, xerrors.Errorf("prover hash must be specified with --prover-hash: %w", err)
	}
	verifyProgram, err := workflow.ParseHash(appCtx.GlobalString("verifier-hash"))
	if err != nil {
		return nil, xerrors.Errorf("verifier hash must be specified with --verifier-hash: %w", err)
	}
	builder, err := workflow.NewBuilder(workflow.BuilderConfig{
		ProveProgram:  proveProgram,
		VerifyProgram: verifyProgram,
		FileServerURL: appCtx.GlobalString("local-http-url"),
	})
	if err != nil {
		return nil, err
	}

	submitter, err := submission.NewSubmitter(submission.Config{
		NodeAPI: nodeCli,
		Logger:  logger.WithField("component", "submitter"),
	})
	if err != nil {
		return nil, err
	}

	// The flags carry explicit defaults, so a zero value is meant literally.
	initialDelay := appCtx.GlobalDuration("initial-delay")
	if initialDelay == 0 {
		initialDelay = poller.NoInitialDelay
	}
	maxRetries := appCtx.GlobalInt("max-retries")
	if maxRetries == 0 {
		maxRetries = poller.NoRetries
	}
	pol, err := poller.NewPoller(poller.Config{
		TreeAPI:      nodeCli,
		InitialDelay: initialDelay,
		PollInterval: appCtx.GlobalDuration("poll-interval"),
		MaxRetries:   maxRetries,
		Logger:       logger.WithField("component", "poller"),
	})
	if err != nil {
		return nil, err
	}

	fet, err := fetcher.NewFetcher(fetcher.Config{
		TxAPI:           nodeCli,
		OutputDir:       appCtx.GlobalString("output-dir"),
		VerifyChecksums: appCtx.GlobalBool("verify-checksums"),
		Logger:          logger.WithField("component", "fetcher"),
	})
	if err != nil {
		return nil, err
	}

	sink, err := getSink(appCtx, logger.WithField("component", "mirror"))
	if err != nil {
		return nil, err
	}

	// An explicit initial delay applies to every task.
	var expected func(string) time.Duration
	if !appCtx.GlobalIsSet("initial-delay") {
		expected = prover.ExpectedDuration
	}

	return prover.NewProver(prover.Config{
		Builder:          builder,
		Signer:           signer,
		Submitter:        submitter,
		Poller:           pol,
		Fetcher:          fet,
		Store:            store,
		Sink:             sink,
		WorkDir:          appCtx.GlobalString("http-work-dir"),
		OutputDir:        appCtx.GlobalString("output-dir"),
		ExpectedDuration: expected,
		Logger:           logger.WithField("component", "prover"),
	})
}

func getJobStore(jobStoreURI string) (jobstore.Store, error) {
	if jobStoreURI == "" {
		return nil, xerrors.Errorf("job store URI must be specified with --job-store-uri")
	}

	uri, err := url.Parse(jobStoreURI)
	if err != nil {
		return nil, xerrors.Errorf("could not parse job store URI: %w", err)
	}

	switch uri.Scheme {
	case "in-memory":
		logger.Info("using in-memory job store")
		return memjs.NewInMemoryJobStore(), nil
	case "postgresql":
		logger.Info("using CDB job store")
		return cdbjs.NewCDBJobStore(jobStoreURI)
	default:
		return nil, xerrors.Errorf("unsupported job store URI scheme: %q", uri.Scheme)
	}
}

// getSink returns a nil sink when mirroring is disabled.
func getSink(appCtx *cli.Context, sinkLogger *logrus.Entry) (artifactstore.Sink, error) {
	endpoint := appCtx.GlobalString("minio-endpoint")
	if endpoint == "" {
		return nil, nil
	}

	sink, err := artifactstore.NewMinioSink(artifactstore.MinioConfig{
		Endpoint:  endpoint,
		Region:    appCtx.GlobalString("minio-region"),
		AccessKey: appCtx.GlobalString("minio-access-key"),
		SecretKey: appCtx.GlobalString("minio-secret-key"),
		Bucket:    appCtx.GlobalString("minio-bucket"),
		UseSSL:    appCtx.GlobalBool("minio-use-ssl"),
		Logger:    sinkLogger,
	})
	if err != nil {
		return nil, err
	}
	sinkLogger.WithField("endpoint", endpoint).Info("mirroring downloaded files")
	return sink, nil
}
