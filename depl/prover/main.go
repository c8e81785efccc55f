package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/0xEigenLabs/eigen-estark-gevulot/continuation"
	"github.com/0xEigenLabs/eigen-estark-gevulot/depl/service"
	"github.com/0xEigenLabs/eigen-estark-gevulot/depl/service/fileserver"
	"github.com/0xEigenLabs/eigen-estark-gevulot/jobstore"
	"github.com/0xEigenLabs/eigen-estark-gevulot/poller"
	"github.com/0xEigenLabs/eigen-estark-gevulot/prover"
	"github.com/0xEigenLabs/eigen-estark-gevulot/workflow"
)

var (
	appName = "gevulot-prover"
	appSha  = "populated-at-link-time"
	logger  *logrus.Entry
)

func main() {
	// A missing .env file is fine; flags and the environment still apply.
	_ = godotenv.Load()

	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSha,
		"host": host,
	})

	if err := makeApp(rootLogger).Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to error")
		_ = os.Stderr.Sync()
		os.Exit(1)
	}
}

func makeApp(rootLogger *logrus.Logger) *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Version = appSha
	app.Usage = "Run eSTARK prove/verify jobs on a Gevulot node"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "log-level",
			Value:  "info",
			EnvVar: "LOG_LEVEL",
			Usage:  "The logging level (debug dumps every result tree snapshot)",
		},
		cli.StringFlag{
			Name:   "json-url",
			Value:  "http://localhost:9944",
			EnvVar: "JSON_URL",
			Usage:  "The JSON-RPC endpoint of the node",
		},
		cli.DurationFlag{
			Name:   "rpc-timeout",
			EnvVar: "RPC_TIMEOUT",
			Usage:  "The upper bound for a single JSON-RPC request (0 disables it)",
		},
		cli.StringFlag{
			Name:   "key-file",
			Value:  "localkey.pki",
			EnvVar: "KEY_FILE",
			Usage:  "The file holding the hex-encoded secp256k1 key used for signing jobs",
		},
		cli.StringFlag{
			Name:   "prover-hash",
			EnvVar: "PROVER_HASH",
			Usage:  "The hash of the deployed prove program",
		},
		cli.StringFlag{
			Name:   "verifier-hash",
			EnvVar: "VERIFIER_HASH",
			Usage:  "The hash of the deployed verify program",
		},
		cli.StringFlag{
			Name:   "http-work-dir",
			Value:  "./data",
			EnvVar: "HTTP_WORK_DIR",
			Usage:  "The directory published to the network by the file server",
		},
		cli.StringFlag{
			Name:   "local-http-url",
			Value:  "http://localhost:8080",
			EnvVar: "LOCAL_HTTP_URL",
			Usage:  "The URL the network uses for reaching the file server",
		},
		cli.StringFlag{
			Name:   "listen-addr",
			Value:  ":8080",
			EnvVar: "LISTEN_ADDR",
			Usage:  "The address the file server listens on",
		},
		cli.StringFlag{
			Name:   "output-dir",
			Value:  "./output",
			EnvVar: "OUTPUT_DIR",
			Usage:  "The directory receiving downloaded result files",
		},
		cli.StringFlag{
			Name:   "job-store-uri",
			Value:  "in-memory://",
			EnvVar: "JOB_STORE_URI",
			Usage:  "The URI for connecting to the job store (supported URIs: in-memory://, postgresql://user@host:26257/gevulot?sslmode=disable)",
		},
		cli.DurationFlag{
			Name:   "initial-delay",
			Value:  poller.DefaultInitialDelay,
			EnvVar: "INITIAL_DELAY",
			Usage:  "The time to wait before the first result query. If not set, the expected duration of the task is used instead",
		},
		cli.DurationFlag{
			Name:   "poll-interval",
			Value:  poller.DefaultPollInterval,
			EnvVar: "POLL_INTERVAL",
			Usage:  "The time between result queries",
		},
		cli.IntFlag{
			Name:   "max-retries",
			Value:  poller.DefaultMaxRetries,
			EnvVar: "MAX_RETRIES",
			Usage:  "The number of result queries after the first one before giving up",
		},
		cli.BoolFlag{
			Name:   "verify-checksums",
			EnvVar: "VERIFY_CHECKSUMS",
			Usage:  "Compare the digest of every downloaded file with its published checksum",
		},
		cli.StringFlag{
			Name:   "minio-endpoint",
			EnvVar: "MINIO_ENDPOINT",
			Usage:  "The S3/minio endpoint downloaded files are mirrored to (mirroring is disabled if empty)",
		},
		cli.StringFlag{
			Name:   "minio-region",
			EnvVar: "MINIO_REGION",
			Usage:  "The region of the mirror bucket",
		},
		cli.StringFlag{
			Name:   "minio-access-key",
			EnvVar: "MINIO_ACCESS_KEY",
			Usage:  "The access key for the mirror",
		},
		cli.StringFlag{
			Name:   "minio-secret-key",
			EnvVar: "MINIO_SECRET_KEY",
			Usage:  "The secret key for the mirror",
		},
		cli.StringFlag{
			Name:   "minio-bucket",
			Value:  "gevulot-results",
			EnvVar: "MINIO_BUCKET",
			Usage:  "The bucket receiving mirrored files",
		},
		cli.BoolFlag{
			Name:   "minio-use-ssl",
			EnvVar: "MINIO_USE_SSL",
			Usage:  "Connect to the mirror over TLS",
		},
		cli.IntFlag{
			Name:   "pprof-port",
			Value:  6060,
			EnvVar: "PPROF_PORT",
			Usage:  "The port for exposing pprof endpoints (0 disables them)",
		},
	}
	app.Before = func(appCtx *cli.Context) error {
		level, err := logrus.ParseLevel(appCtx.GlobalString("log-level"))
		if err != nil {
			return err
		}
		rootLogger.SetLevel(level)

		if port := appCtx.GlobalInt("pprof-port"); port > 0 {
			go func() {
				logger.WithField("port", port).Info("listening for pprof requests")
				_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
			}()
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:   "prove",
			Usage:  "Run a single prove/verify job and download its results",
			Action: runProve,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "task", Value: "lr", EnvVar: "TASK_NAME", Usage: "The task name"},
				cli.StringFlag{Name: "chunk", Value: "0", EnvVar: "CHUNK_ID", Usage: "The chunk id"},
				cli.StringFlag{Name: "trace-file", EnvVar: "TRACE_FILE", Usage: "The trace file, relative to the work dir"},
				cli.StringFlag{Name: "bi-file", EnvVar: "BI_FILE", Usage: "The bootloader input file, relative to the work dir"},
				cli.StringFlag{Name: "asm-file", EnvVar: "ASM_FILE", Usage: "The program file, relative to the work dir"},
			},
		},
		{
			Name:   "chunks",
			Usage:  "Prove a task as a sequence of chunks sharing one dry run",
			Action: runChunks,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "task", Value: "lr", EnvVar: "TASK_NAME", Usage: "The task name"},
				cli.IntFlag{Name: "num-chunks", Value: 1, EnvVar: "NUM_CHUNKS", Usage: "The number of chunks to prove"},
				cli.StringFlag{Name: "trace-file", EnvVar: "TRACE_FILE", Usage: "The trace file, relative to the work dir"},
				cli.StringFlag{Name: "bi-file", EnvVar: "BI_FILE", Usage: "The dry-run bootloader input file of the task, relative to the work dir"},
				cli.StringFlag{Name: "asm-file", EnvVar: "ASM_FILE", Usage: "The program file, relative to the work dir"},
			},
		},
		{
			Name:   "serve",
			Usage:  "Only publish the work dir and the recorded jobs",
			Action: runServe,
		},
	}
	return app
}

func runProve(appCtx *cli.Context) error {
	ctx, cancelFn := signalContext()
	defer cancelFn()

	store, err := getJobStore(appCtx.GlobalString("job-store-uri"))
	if err != nil {
		return err
	}
	p, err := setupProver(ctx, appCtx, store)
	if err != nil {
		return err
	}

	req := prover.Request{
		Task:           appCtx.String("task"),
		Chunk:          appCtx.String("chunk"),
		TraceFile:      appCtx.String("trace-file"),
		BootloaderFile: appCtx.String("bi-file"),
		AsmFile:        appCtx.String("asm-file"),
	}
	job := jobService{name: "prove", run: func(ctx context.Context) error {
		res, err := p.Run(ctx, req)
		if err != nil {
			return err
		}
		jobLogger := logger.WithFields(logrus.Fields{
			"run_id":   res.RunID.String(),
			"job_hash": workflow.HashHex(res.JobHash),
		})
		if !res.Outcome.Ready {
			jobLogger.Warn("no result within the polling budget")
			return nil
		}
		for _, path := range res.Files {
			jobLogger.WithField("file", path).Info("downloaded result file")
		}
		return nil
	}}
	return runServices(ctx, appCtx, store, job)
}

func runChunks(appCtx *cli.Context) error {
	ctx, cancelFn := signalContext()
	defer cancelFn()

	store, err := getJobStore(appCtx.GlobalString("job-store-uri"))
	if err != nil {
		return err
	}
	p, err := setupProver(ctx, appCtx, store)
	if err != nil {
		return err
	}

	workDir := appCtx.GlobalString("http-work-dir")
	chunkProver, err := prover.NewNetworkChunkProver(prover.ChunkProverConfig{
		Prover:    p,
		WorkDir:   workDir,
		TraceFile: appCtx.String("trace-file"),
		AsmFile:   appCtx.String("asm-file"),
	})
	if err != nil {
		return err
	}

	if appCtx.String("bi-file") == "" {
		return xerrors.Errorf("dry-run state must be specified with --bi-file")
	}
	statePath := filepath.Join(workDir, appCtx.String("bi-file"))
	engine, err := continuation.NewEngine(continuation.Config{
		Analyzer: continuation.FileAnalyzer{Path: func(continuation.Task) string { return statePath }},
		Prover:   chunkProver,
		Logger:   logger.WithField("component", "continuation"),
	})
	if err != nil {
		return err
	}

	task := continuation.Task{
		Name:      appCtx.String("task"),
		Program:   filepath.Join(workDir, appCtx.String("asm-file")),
		Suite:     filepath.Join(workDir, appCtx.String("trace-file")),
		OutputDir: appCtx.GlobalString("output-dir"),
	}
	numChunks := appCtx.Int("num-chunks")
	job := jobService{name: "chunks", run: func(ctx context.Context) error {
		if err := engine.Run(ctx, task, numChunks); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"task": task.Name, "chunks": numChunks}).Info("all chunks proved")
		return nil
	}}
	return runServices(ctx, appCtx, store, job)
}

func runServe(appCtx *cli.Context) error {
	ctx, cancelFn := signalContext()
	defer cancelFn()

	store, err := getJobStore(appCtx.GlobalString("job-store-uri"))
	if err != nil {
		return err
	}
	return runServices(ctx, appCtx, store)
}

// runServices publishes the work dir alongside svcs. The file server stops
// as soon as any of svcs returns.
func runServices(ctx context.Context, appCtx *cli.Context, store jobstore.Store, svcs ...service.Service) error {
	fsSvc, err := fileserver.NewService(fileserver.Config{
		WorkDir:     appCtx.GlobalString("http-work-dir"),
		JobStoreAPI: store,
		ListenAddr:  appCtx.GlobalString("listen-addr"),
		Logger:      logger.WithField("service", "file-server"),
	})
	if err != nil {
		return err
	}

	svcGroup := append(service.Group{fsSvc}, svcs...)
	return svcGroup.Run(ctx)
}

// signalContext returns a context that gets cancelled on SIGINT or SIGHUP.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancelFn := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP)
		select {
		case s := <-sigCh:
			logger.WithField("signal", s.String()).Infof("shutting down due to signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()
	return ctx, cancelFn
}

// jobService runs a one-shot job as part of a service group.
type jobService struct {
	name string
	run  func(context.Context) error
}

// Name implements service.Service
func (s jobService) Name() string { return s.name }

// Run implements service.Service
func (s jobService) Run(ctx context.Context) error {
	startAt := time.Now()
	err := s.run(ctx)
	logger.WithFields(logrus.Fields{
		"job":      s.name,
		"duration": time.Since(startAt).String(),
	}).Info("job finished")
	return err
}
